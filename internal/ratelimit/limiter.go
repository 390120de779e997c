// Package ratelimit implements fixed-window request limiting with a
// pluggable counter store. The window resets wholesale when an attempt
// arrives after the window has elapsed since the last counted attempt.
package ratelimit

import (
	"context"
	"time"
)

// Window captures the counter state for one identifier.
type Window struct {
	Count int
	Last  time.Time
}

// Store persists per-identifier window counters. Implementations are not
// required to be cluster-consistent; the in-memory store is process-local.
type Store interface {
	Get(ctx context.Context, key string) (Window, bool, error)
	Set(ctx context.Context, key string, window Window, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Limiter enforces up to Limit attempts per fixed window of Duration.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// New constructs a limiter over the provided store.
func New(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, now: time.Now}
}

// WithClock overrides the internal clock, used in tests.
func (l *Limiter) WithClock(clock func() time.Time) *Limiter {
	if clock != nil {
		l.now = clock
	}
	return l
}

// Allow counts an attempt against key and reports whether it is within the
// limit. The attempt that exceeds the limit is rejected without extending
// the window. Store errors fail open: limiting is a protection layer, not a
// correctness dependency.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	now := l.now()

	win, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return true
	}

	if !ok || now.Sub(win.Last) > l.window {
		_ = l.store.Set(ctx, key, Window{Count: 1, Last: now}, l.ttl())
		return true
	}

	if win.Count >= l.limit {
		return false
	}

	win.Count++
	win.Last = now
	_ = l.store.Set(ctx, key, win, l.ttl())
	return true
}

// Clear removes the window for key, used after a successful redemption so a
// legitimate user is not penalized for earlier failures.
func (l *Limiter) Clear(ctx context.Context, key string) {
	_ = l.store.Delete(ctx, key)
}

// Window returns the configured window duration for retry-after messaging.
func (l *Limiter) Window() time.Duration {
	return l.window
}

func (l *Limiter) ttl() time.Duration {
	return 2 * l.window
}
