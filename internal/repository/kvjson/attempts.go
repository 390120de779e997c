package kvjson

import (
	"context"
	"time"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
)

// AttemptRepository stores the login-attempt ledger as a single JSON array
// under the "login_attempts" key, capped to the most recent entries.
type AttemptRepository struct {
	store port.BlobStore
	cap   int
}

// NewAttemptRepository constructs an attempt ledger over the provided blob store.
func NewAttemptRepository(store port.BlobStore) *AttemptRepository {
	return &AttemptRepository{store: store, cap: domain.MaxLoginAttempts}
}

// Append records the attempt, evicting the oldest entries beyond the cap.
func (r *AttemptRepository) Append(ctx context.Context, attempt domain.LoginAttempt) error {
	attempts, err := readCollection[domain.LoginAttempt](ctx, r.store, attemptsKey)
	if err != nil {
		return err
	}

	attempt.Email = domain.NormalizeEmail(attempt.Email)
	attempts = append(attempts, attempt)
	if len(attempts) > r.cap {
		attempts = attempts[len(attempts)-r.cap:]
	}
	return writeCollection(ctx, r.store, attemptsKey, attempts)
}

// DeleteOlderThan drops entries with a timestamp before the cutoff.
func (r *AttemptRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	attempts, err := readCollection[domain.LoginAttempt](ctx, r.store, attemptsKey)
	if err != nil {
		return 0, err
	}
	filtered := attempts[:0]
	for i := range attempts {
		if attempts[i].Timestamp.After(cutoff) {
			filtered = append(filtered, attempts[i])
		}
	}
	removed := len(attempts) - len(filtered)
	if removed == 0 {
		return 0, nil
	}
	if err := writeCollection(ctx, r.store, attemptsKey, filtered); err != nil {
		return 0, err
	}
	return removed, nil
}

// All returns the full ledger, oldest first.
func (r *AttemptRepository) All(ctx context.Context) ([]domain.LoginAttempt, error) {
	return readCollection[domain.LoginAttempt](ctx, r.store, attemptsKey)
}

var _ port.AttemptRepository = (*AttemptRepository)(nil)
