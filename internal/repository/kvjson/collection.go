// Package kvjson persists the account collections as whole-collection JSON
// blobs under fixed keys in an external blob store. Every read or write
// touches the entire collection; concurrent writers race on read-modify-write
// and the later write wins. This mirrors the deployment's KV capability and
// is an accepted limitation, not a guarantee.
package kvjson

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
)

const (
	usersKey    = "users"
	sessionsKey = "sessions"
	attemptsKey = "login_attempts"
)

func readCollection[T any](ctx context.Context, store port.BlobStore, key string) ([]T, error) {
	data, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return items, nil
}

func writeCollection[T any](ctx context.Context, store port.BlobStore, key string, items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
