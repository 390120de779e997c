package port

import "context"

// BlobStore abstracts the external key-value persistence capability. Each
// logical collection is stored as a single blob under a fixed key; the store
// offers no transactions and no multi-key atomicity.
type BlobStore interface {
	// Get returns the blob for key. A missing key yields ok=false and no error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Put(ctx context.Context, key string, data []byte) error
}
