// File: ioctx/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pool owns N execution contexts, each running on its own locked OS thread.

package ioctx

import (
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-net/internal/concurrency"
	"github.com/momentics/hioload-net/internal/logger"
)

// Option configures a Pool.
type Option func(*poolOptions)

type poolOptions struct {
	pinCPUs   bool
	batchSize int
	log       *zap.Logger
}

// WithCPUPinning pins context i to CPU i modulo the CPU count.
func WithCPUPinning(enabled bool) Option {
	return func(o *poolOptions) { o.pinCPUs = enabled }
}

// WithBatchSize bounds callbacks dequeued per loop iteration.
func WithBatchSize(n int) Option {
	return func(o *poolOptions) { o.batchSize = n }
}

// WithLogger overrides the "ioctx" subsystem logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *poolOptions) { o.log = l }
}

// Pool is a fixed, ordered set of running execution contexts.
type Pool struct {
	contexts []*Context

	_      cpu.CacheLinePad
	cursor atomic.Uint64
	_      cpu.CacheLinePad

	closeOnce sync.Once
	closed    atomic.Bool
	log       *zap.Logger
}

// NewPool starts size contexts. size <= 0 means runtime.NumCPU().
func NewPool(size int, opts ...Option) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	o := poolOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrDefault(o.log, "ioctx")

	p := &Pool{
		contexts: make([]*Context, size),
		log:      log,
	}
	for i := 0; i < size; i++ {
		loopOpts := []concurrency.LoopOption{
			concurrency.WithLogger(log),
			concurrency.WithBatchSize(o.batchSize),
		}
		if o.pinCPUs {
			loopOpts = append(loopOpts, concurrency.WithCPU(i))
		}
		loop := concurrency.NewEventLoop(i, loopOpts...)
		loop.Start()
		p.contexts[i] = &Context{loop: loop}
	}
	log.Debug("pool started", zap.Int("size", size), zap.Bool("pinned", o.pinCPUs))
	return p
}

// Pick returns the next context in round-robin order. It is safe for
// concurrent use, never blocks and never returns nil.
func (p *Pool) Pick() *Context {
	n := p.cursor.Add(1) - 1
	return p.contexts[n%uint64(len(p.contexts))]
}

// Size returns the number of contexts.
func (p *Pool) Size() int { return len(p.contexts) }

// Contexts returns the contexts in pool order. The slice must not be modified.
func (p *Pool) Contexts() []*Context { return p.contexts }

// Pending returns queued callbacks summed over all contexts.
func (p *Pool) Pending() int {
	total := 0
	for _, c := range p.contexts {
		total += c.Pending()
	}
	return total
}

// Closed reports whether Close was called.
func (p *Pool) Closed() bool { return p.closed.Load() }

// Close stops every loop after it drains its queue and joins the loop
// threads. Called from a callback, the caller's own loop is only signalled
// and exits once that callback returns. Later calls are no-ops.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		var wg sync.WaitGroup
		for _, c := range p.contexts {
			if c.InLoop() {
				// closing from one of our own callbacks: the loop cannot join itself
				c.loop.Shutdown()
				continue
			}
			wg.Add(1)
			go func(l *concurrency.EventLoop) {
				defer wg.Done()
				l.Stop()
			}(c.loop)
		}
		wg.Wait()
		p.log.Debug("pool stopped", zap.Int("size", len(p.contexts)))
	})
	return nil
}
