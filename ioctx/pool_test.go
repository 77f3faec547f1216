package ioctx

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/momentics/hioload-net/api"
	"github.com/momentics/hioload-net/internal/concurrency"
)

func TestPool_RoundRobinCyclicOrder(t *testing.T) {
	p := NewPool(3, WithLogger(zaptest.NewLogger(t)))
	defer p.Close()

	for i := 0; i < 10; i++ {
		assert.Equal(t, i%3, p.Pick().ID())
	}
}

func TestPool_RoundRobinFairUnderConcurrency(t *testing.T) {
	const (
		k       = 4
		m       = 1003
		pickers = 8
	)
	p := NewPool(k)
	defer p.Close()

	counts := make([]int, k)
	var mu sync.Mutex
	var wg sync.WaitGroup
	per := m / pickers
	extra := m % pickers
	for g := 0; g < pickers; g++ {
		n := per
		if g < extra {
			n++
		}
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			local := make([]int, k)
			for i := 0; i < n; i++ {
				local[p.Pick().ID()]++
			}
			mu.Lock()
			for i := range local {
				counts[i] += local[i]
			}
			mu.Unlock()
		}(n)
	}
	wg.Wait()

	total := 0
	for _, c := range counts {
		assert.True(t, c == m/k || c == m/k+1, "count %d outside [%d,%d]", c, m/k, m/k+1)
		total += c
	}
	assert.Equal(t, m, total)
}

func TestPool_DefaultSize(t *testing.T) {
	p := NewPool(0)
	defer p.Close()
	assert.Greater(t, p.Size(), 0)
	assert.Len(t, p.Contexts(), p.Size())
}

func TestPool_CallbacksRunOnOwnContext(t *testing.T) {
	p := NewPool(2)
	defer p.Close()

	for i := 0; i < 4; i++ {
		c := p.Pick()
		res := make(chan bool, 1)
		require.NoError(t, c.Post(func() { res <- c.InLoop() || c.loop.ThreadID() < 0 }))
		select {
		case ok := <-res:
			assert.True(t, ok)
		case <-time.After(time.Second):
			t.Fatal("callback did not run")
		}
	}
}

func TestPool_CloseDrainsAndRejects(t *testing.T) {
	p := NewPool(2)
	var mu sync.Mutex
	ran := 0
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Pick().Post(func() {
			mu.Lock()
			ran++
			mu.Unlock()
		}))
	}
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.Equal(t, 20, ran)
	assert.True(t, p.Closed())
	assert.Equal(t, 0, p.Pending())
	assert.ErrorIs(t, p.Pick().Post(func() {}), api.ErrContextClosed)
}

func TestPool_CloseFromOwnCallback(t *testing.T) {
	if !threadIDsAvailable() {
		t.Skip("thread ids unavailable on this platform")
	}
	p := NewPool(2)
	queued := make(chan struct{})
	var laterRan bool
	done := make(chan error, 1)
	require.NoError(t, p.Contexts()[0].Post(func() {
		<-queued
		done <- p.Close()
	}))
	require.NoError(t, p.Contexts()[0].Post(func() { laterRan = true }))
	close(queued)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close called on a loop thread never returned")
	}
	assert.True(t, p.Closed())
	assert.ErrorIs(t, p.Contexts()[1].Post(func() {}), api.ErrContextClosed)

	// the caller's loop still drains what was queued before Close
	require.NoError(t, p.Close())
	<-p.Contexts()[0].loop.Done()
	assert.True(t, laterRan)
}

func threadIDsAvailable() bool {
	return concurrency.CurrentThreadID() >= 0
}
