package redisblob

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/ratelimit"
)

const (
	defaultCounterPrefix = "accounts:rate-limit"

	fieldCount = "count"
	fieldLast  = "last"
)

// CounterStore persists fixed-window rate-limit counters in Redis hashes so
// limits hold across service instances.
type CounterStore struct {
	client *redis.Client
	prefix string
}

// NewCounterStore constructs a counter store with the provided Redis client
// and key prefix.
func NewCounterStore(client *redis.Client, keyPrefix string) *CounterStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultCounterPrefix
	}
	return &CounterStore{client: client, prefix: prefix}
}

// Get returns the window for key, ok=false when absent or malformed.
func (s *CounterStore) Get(ctx context.Context, key string) (ratelimit.Window, bool, error) {
	values, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return ratelimit.Window{}, false, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(values) == 0 {
		return ratelimit.Window{}, false, nil
	}

	count, err := strconv.Atoi(values[fieldCount])
	if err != nil {
		return ratelimit.Window{}, false, nil
	}
	lastNano, err := strconv.ParseInt(values[fieldLast], 10, 64)
	if err != nil {
		return ratelimit.Window{}, false, nil
	}

	return ratelimit.Window{Count: count, Last: time.Unix(0, lastNano)}, true, nil
}

// Set stores the window and applies the TTL so abandoned counters expire.
func (s *CounterStore) Set(ctx context.Context, key string, window ratelimit.Window, ttl time.Duration) error {
	k := s.key(key)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, k, map[string]any{
		fieldCount: strconv.Itoa(window.Count),
		fieldLast:  strconv.FormatInt(window.Last.UnixNano(), 10),
	})
	if ttl > 0 {
		pipe.Expire(ctx, k, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis store counter: %w", err)
	}
	return nil
}

// Delete removes the counter for key.
func (s *CounterStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete counter: %w", err)
	}
	return nil
}

func (s *CounterStore) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

var _ ratelimit.Store = (*CounterStore)(nil)
