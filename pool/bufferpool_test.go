package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassOf(t *testing.T) {
	assert.Equal(t, 0, classOf(0))
	assert.Equal(t, 0, classOf(512))
	assert.Equal(t, 1, classOf(513))
	assert.Equal(t, 3, classOf(4096))
	assert.Equal(t, numClasses-1, classOf(1<<maxClassShift))
	assert.Equal(t, -1, classOf(1<<maxClassShift+1))
}

func TestBufferPool_GetPut(t *testing.T) {
	bp := New()
	b := bp.Get(1000)
	require.Len(t, b, 1000)
	assert.Equal(t, 1024, cap(b))

	bp.Put(b)
	s := bp.Stats()
	assert.Equal(t, int64(1), s.TotalGet)
	assert.Equal(t, int64(1), s.TotalPut)
	assert.Zero(t, s.InUse)
	assert.Equal(t, int64(1), s.TotalAlloc)
}

func TestBufferPool_OversizedAndForeign(t *testing.T) {
	bp := New()
	big := bp.Get(1<<maxClassShift + 1)
	assert.Len(t, big, 1<<maxClassShift+1)
	bp.Put(big)

	// a foreign slice with an odd capacity is accepted and dropped
	bp.Put(make([]byte, 100))
	bp.Put(nil)
	assert.Equal(t, int64(2), bp.Stats().TotalPut)
	assert.Len(t, bp.Get(0), 0)
}
