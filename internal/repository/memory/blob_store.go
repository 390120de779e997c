// Package memory provides the in-process blob store used in development and
// tests. It is scoped to a single process and is not safe across multiple
// concurrently running instances of the service.
package memory

import (
	"context"
	"sync"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
)

// BlobStore keeps blobs in a mutex-guarded map.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewBlobStore constructs an empty in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string][]byte)}
}

// Get returns the blob for key, ok=false when absent.
func (s *BlobStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Put stores a copy of the blob under key.
func (s *BlobStore) Put(_ context.Context, key string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	s.blobs[key] = stored
	s.mu.Unlock()
	return nil
}

var _ port.BlobStore = (*BlobStore)(nil)
