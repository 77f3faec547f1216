// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
//
// Size-class byte buffer pool.

package pool

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

const (
	minClassShift = 9  // 512 B
	maxClassShift = 24 // 16 MiB
	numClasses    = maxClassShift - minClassShift + 1
)

// Stats reports pool activity.
type Stats struct {
	TotalAlloc int64 // buffers created because a class was empty
	TotalGet   int64
	TotalPut   int64
	InUse      int64 // Get minus Put
}

// BufferPool hands out byte slices rounded up to a power-of-two class.
// Requests above the largest class are allocated directly and dropped on Put.
type BufferPool struct {
	classes [numClasses]sync.Pool

	alloc atomic.Int64
	gets  atomic.Int64
	puts  atomic.Int64
}

// New returns an empty pool.
func New() *BufferPool {
	bp := &BufferPool{}
	for i := range bp.classes {
		size := 1 << (minClassShift + i)
		bp.classes[i].New = func() any {
			bp.alloc.Add(1)
			b := make([]byte, size)
			return &b
		}
	}
	return bp
}

var defaultPool = New()

// Default returns the process-wide pool.
func Default() *BufferPool { return defaultPool }

// classOf returns the class index for size, or -1 when it does not fit.
func classOf(size int) int {
	if size <= 1<<minClassShift {
		return 0
	}
	shift := bits.Len(uint(size - 1))
	if shift > maxClassShift {
		return -1
	}
	return shift - minClassShift
}

// Get returns a slice of length size. Its capacity is the class size.
func (bp *BufferPool) Get(size int) []byte {
	if size < 0 {
		size = 0
	}
	bp.gets.Add(1)
	c := classOf(size)
	if c < 0 {
		bp.alloc.Add(1)
		return make([]byte, size)
	}
	b := bp.classes[c].Get().(*[]byte)
	return (*b)[:size]
}

// Put returns buf to its class. Slices whose capacity is not a class size
// are dropped. buf must not be used afterwards.
func (bp *BufferPool) Put(buf []byte) {
	if buf == nil {
		return
	}
	bp.puts.Add(1)
	n := cap(buf)
	c := classOf(n)
	if c < 0 || 1<<(minClassShift+c) != n {
		return
	}
	buf = buf[:n]
	bp.classes[c].Put(&buf)
}

// Stats returns a snapshot of the counters.
func (bp *BufferPool) Stats() Stats {
	g, p := bp.gets.Load(), bp.puts.Load()
	return Stats{
		TotalAlloc: bp.alloc.Load(),
		TotalGet:   g,
		TotalPut:   p,
		InUse:      g - p,
	}
}
