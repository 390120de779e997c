package port

import (
	"context"
	"time"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
)

// UserRepository exposes persistence behavior for the users collection.
// Every write re-serializes and persists the entire collection; concurrent
// read-modify-write races are last-write-wins.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user domain.User) error
	// Update applies fn to the matching record (by id or normalized email),
	// refreshes updatedAt, and persists. Nested objects passed through fn
	// replace wholesale; there is no deep merge.
	Update(ctx context.Context, identifier string, fn func(*domain.User)) (*domain.User, error)
	SoftDelete(ctx context.Context, id string) error
	PermanentDelete(ctx context.Context, id string) error
	All(ctx context.Context) ([]domain.User, error)
}

// SessionRepository exposes persistence behavior for the sessions collection.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	FindByToken(ctx context.Context, token string) (*domain.Session, error)
	Touch(ctx context.Context, token string, at time.Time) (*domain.Session, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	All(ctx context.Context) ([]domain.Session, error)
}

// AttemptRepository exposes persistence behavior for the login-attempt ledger.
type AttemptRepository interface {
	Append(ctx context.Context, attempt domain.LoginAttempt) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	All(ctx context.Context) ([]domain.LoginAttempt, error)
}
