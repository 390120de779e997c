package kvjson

import (
	"context"
	"time"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository"
)

// UserRepository stores users as a single JSON array under the "users" key.
type UserRepository struct {
	store port.BlobStore
	now   func() time.Time
}

// NewUserRepository constructs a user repository over the provided blob store.
func NewUserRepository(store port.BlobStore) *UserRepository {
	return &UserRepository{store: store, now: time.Now}
}

// WithClock overrides the internal clock, used in tests.
func (r *UserRepository) WithClock(clock func() time.Time) *UserRepository {
	if clock != nil {
		r.now = clock
	}
	return r
}

// FindByEmail returns the non-deleted user with the given email,
// case-insensitively. Deleted records are invisible to lookups.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := readCollection[domain.User](ctx, r.store, usersKey)
	if err != nil {
		return nil, err
	}

	normalized := domain.NormalizeEmail(email)
	for i := range users {
		if domain.NormalizeEmail(users[i].Email) == normalized && users[i].Status != domain.UserStatusDeleted {
			u := users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// FindByID returns the non-deleted user with the given id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	users, err := readCollection[domain.User](ctx, r.store, usersKey)
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].ID == id && users[i].Status != domain.UserStatusDeleted {
			u := users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Create appends the user after checking email uniqueness among non-deleted
// records. A deleted user's email may be reused.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	users, err := readCollection[domain.User](ctx, r.store, usersKey)
	if err != nil {
		return err
	}

	normalized := domain.NormalizeEmail(user.Email)
	for i := range users {
		if domain.NormalizeEmail(users[i].Email) == normalized && users[i].Status != domain.UserStatusDeleted {
			return repository.ErrConflict
		}
	}

	users = append(users, user)
	return writeCollection(ctx, r.store, usersKey, users)
}

// Update applies fn to the record matching the identifier (id or normalized
// email), refreshes updatedAt, and persists the whole collection. Matching
// includes deleted records so status transitions remain possible.
func (r *UserRepository) Update(ctx context.Context, identifier string, fn func(*domain.User)) (*domain.User, error) {
	users, err := readCollection[domain.User](ctx, r.store, usersKey)
	if err != nil {
		return nil, err
	}

	normalized := domain.NormalizeEmail(identifier)
	idx := -1
	for i := range users {
		if users[i].ID == identifier || domain.NormalizeEmail(users[i].Email) == normalized {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, repository.ErrNotFound
	}

	fn(&users[idx])
	users[idx].UpdatedAt = r.now().UTC()

	if err := writeCollection(ctx, r.store, usersKey, users); err != nil {
		return nil, err
	}

	updated := users[idx]
	return &updated, nil
}

// SoftDelete marks the record deleted without erasing it.
func (r *UserRepository) SoftDelete(ctx context.Context, id string) error {
	now := r.now().UTC()
	_, err := r.Update(ctx, id, func(u *domain.User) {
		u.Status = domain.UserStatusDeleted
		u.DeletedAt = &now
	})
	return err
}

// PermanentDelete removes the record entirely.
func (r *UserRepository) PermanentDelete(ctx context.Context, id string) error {
	users, err := readCollection[domain.User](ctx, r.store, usersKey)
	if err != nil {
		return err
	}

	filtered := users[:0]
	for i := range users {
		if users[i].ID != id {
			filtered = append(filtered, users[i])
		}
	}
	if len(filtered) == len(users) {
		return repository.ErrNotFound
	}
	return writeCollection(ctx, r.store, usersKey, filtered)
}

// All returns every record in the collection, deleted ones included.
func (r *UserRepository) All(ctx context.Context) ([]domain.User, error) {
	return readCollection[domain.User](ctx, r.store, usersKey)
}

var _ port.UserRepository = (*UserRepository)(nil)
