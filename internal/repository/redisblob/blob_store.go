// Package redisblob implements the blob store capability on Redis string
// values. Each collection blob lives under a prefixed key with no TTL.
package redisblob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
)

const defaultPrefix = "accounts"

// BlobStore persists collection blobs as Redis strings.
type BlobStore struct {
	client *redis.Client
	prefix string
}

// NewBlobStore constructs a blob store using the provided Redis client and
// key prefix.
func NewBlobStore(client *redis.Client, keyPrefix string) *BlobStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &BlobStore{client: client, prefix: prefix}
}

// Get returns the blob for key, ok=false when the key does not exist.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Put stores the blob without expiry.
func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

var _ port.BlobStore = (*BlobStore)(nil)
