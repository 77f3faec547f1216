// Copyright 2025 momentics@gmail.com
// License: Apache 2.0

package concurrency

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/momentics/hioload-net/api"
)

func TestEventLoop_RunsInPostOrder(t *testing.T) {
	el := NewEventLoop(0, WithBatchSize(4), WithLogger(zaptest.NewLogger(t)))
	el.Start()
	defer el.Stop()

	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	wg.Add(50)
	for i := 0; i < 50; i++ {
		i := i
		require.NoError(t, el.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			wg.Done()
		}))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 50)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestEventLoop_SurvivesPanics(t *testing.T) {
	el := NewEventLoop(1, WithLogger(zaptest.NewLogger(t)))
	el.Start()
	defer el.Stop()

	require.NoError(t, el.Post(func() { panic("boom") }))
	done := make(chan struct{})
	require.NoError(t, el.Post(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not survive a panicking callback")
	}
	assert.EqualValues(t, 1, el.Panics())
	assert.EqualValues(t, 2, el.Executed())
}

func TestEventLoop_StopDrainsAndRefuses(t *testing.T) {
	el := NewEventLoop(2)
	block := make(chan struct{})
	ran := 0
	require.NoError(t, el.Post(func() { <-block }))
	for i := 0; i < 10; i++ {
		require.NoError(t, el.Post(func() { ran++ }))
	}
	assert.Equal(t, 11, el.Pending())

	el.Start()
	close(block)
	el.Stop()

	assert.Equal(t, 10, ran)
	assert.Equal(t, 0, el.Pending())
	assert.ErrorIs(t, el.Post(func() {}), api.ErrContextClosed)

	select {
	case <-el.Done():
	default:
		t.Fatal("done channel not closed after Stop")
	}
}

func TestEventLoop_StopWithoutStart(t *testing.T) {
	el := NewEventLoop(3)
	el.Stop()
	el.Stop()
	assert.ErrorIs(t, el.Post(func() {}), api.ErrContextClosed)
}

func TestEventLoop_RejectsNilTask(t *testing.T) {
	el := NewEventLoop(4)
	assert.ErrorIs(t, el.Post(nil), api.ErrInvalidArgument)
}

func TestPinCurrentThread_NegativeIsNoop(t *testing.T) {
	assert.NoError(t, PinCurrentThread(-1))
}

func TestEventLoop_InLoop(t *testing.T) {
	if CurrentThreadID() < 0 {
		t.Skip("thread ids unavailable on this platform")
	}
	el := NewEventLoop(5)
	el.Start()
	defer el.Stop()

	res := make(chan bool, 1)
	require.NoError(t, el.Post(func() { res <- el.InLoop() }))
	assert.True(t, <-res)
	assert.False(t, el.InLoop())
	assert.GreaterOrEqual(t, el.ThreadID(), int64(0))
}

func TestEventLoop_StopFromOwnCallback(t *testing.T) {
	if CurrentThreadID() < 0 {
		t.Skip("thread ids unavailable on this platform")
	}
	el := NewEventLoop(6, WithLogger(zaptest.NewLogger(t)))
	el.Start()

	gate := make(chan struct{})
	returned := make(chan struct{})
	var after bool
	require.NoError(t, el.Post(func() {
		<-gate
		el.Stop()
		close(returned)
	}))
	require.NoError(t, el.Post(func() { after = true }))
	close(gate)

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop called on the loop thread never returned")
	}
	select {
	case <-el.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after Stop")
	}
	assert.True(t, after)
	assert.ErrorIs(t, el.Post(func() {}), api.ErrContextClosed)
}
