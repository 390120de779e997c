package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps window counters in a mutex-guarded map. Counters are
// process-local and NOT shared across service instances; deployments running
// multiple processes should use the Redis store instead.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]Window
}

// NewMemoryStore constructs an empty in-process counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]Window)}
}

// Get returns the window for key, ok=false when absent.
func (s *MemoryStore) Get(_ context.Context, key string) (Window, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	win, ok := s.windows[key]
	return win, ok, nil
}

// Set stores the window for key. The TTL is ignored; stale entries are
// superseded by the limiter's window-reset check.
func (s *MemoryStore) Set(_ context.Context, key string, window Window, _ time.Duration) error {
	s.mu.Lock()
	s.windows[key] = window
	s.mu.Unlock()
	return nil
}

// Delete removes the window for key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.windows, key)
	s.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
