package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetNotifiesInOrder(t *testing.T) {
	s := NewStore()
	var calls []string
	s.OnReload(func(changed map[string]any) {
		calls = append(calls, "a")
		assert.Equal(t, map[string]any{KeyAcceptBackoffMax: 2 * time.Second}, changed)
	})
	s.OnReload(func(map[string]any) { calls = append(calls, "b") })

	s.Set(map[string]any{KeyAcceptBackoffMax: 2 * time.Second})
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Equal(t, 2*time.Second, s.Duration(KeyAcceptBackoffMax, 0))
}

func TestStore_SeedAndSnapshot(t *testing.T) {
	s := NewStore()
	called := false
	s.OnReload(func(map[string]any) { called = true })
	s.Seed(DefaultConfig())
	assert.False(t, called)

	snap := s.Snapshot()
	require.Contains(t, snap, KeyDialTimeout)
	assert.Equal(t, 5*time.Second, snap[KeyDialTimeout])

	snap[KeyDialTimeout] = time.Hour
	assert.Equal(t, 5*time.Second, s.Duration(KeyDialTimeout, 0))
}

func TestStore_DurationFallsBack(t *testing.T) {
	s := NewStore()
	assert.Equal(t, time.Minute, s.Duration("missing", time.Minute))
	s.Set(map[string]any{"weird": "1s"})
	assert.Equal(t, time.Minute, s.Duration("weird", time.Minute))
}
