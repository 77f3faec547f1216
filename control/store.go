// control/store.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe store for values that may change while the framework runs.

package control

import (
	"sync"
	"time"
)

// Keys understood by the facade.
const (
	KeyAcceptBackoffMax = "accept.backoff_max" // time.Duration
	KeyDialTimeout      = "connect.timeout"    // time.Duration
)

// Store is a dynamic key/value map with snapshot and listener support.
type Store struct {
	mu        sync.RWMutex
	values    map[string]any
	listeners []func(changed map[string]any)
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{values: make(map[string]any)}
}

// Snapshot returns a copy of all values.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Duration returns key as a duration, or def when it is missing or of
// another type.
func (s *Store) Duration(key string, def time.Duration) time.Duration {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	if d, ok := v.(time.Duration); ok {
		return d
	}
	return def
}

// Set merges values and notifies listeners with the merged keys. Listeners
// run synchronously, in registration order, after the lock is released.
func (s *Store) Set(values map[string]any) {
	changed := make(map[string]any, len(values))
	s.mu.Lock()
	for k, v := range values {
		s.values[k] = v
		changed[k] = v
	}
	listeners := append([]func(map[string]any){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(changed)
	}
}

// OnReload registers fn to be called after every Set.
func (s *Store) OnReload(fn func(changed map[string]any)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Seed fills s from cfg without notifying listeners.
func (s *Store) Seed(cfg *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[KeyAcceptBackoffMax] = cfg.AcceptBackoffMax
	s.values[KeyDialTimeout] = cfg.DialTimeout
}
