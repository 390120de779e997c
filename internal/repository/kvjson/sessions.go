package kvjson

import (
	"context"
	"time"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository"
)

// SessionRepository stores sessions as a single JSON array under the
// "sessions" key. Token uniqueness is enforced by the issuing flow, not here.
type SessionRepository struct {
	store port.BlobStore
}

// NewSessionRepository constructs a session repository over the provided blob store.
func NewSessionRepository(store port.BlobStore) *SessionRepository {
	return &SessionRepository{store: store}
}

// Create appends the session record.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	sessions, err := readCollection[domain.Session](ctx, r.store, sessionsKey)
	if err != nil {
		return err
	}
	sessions = append(sessions, session)
	return writeCollection(ctx, r.store, sessionsKey, sessions)
}

// FindByToken returns the session with the matching token, expired or not.
// Expiry policy lives in the session manager.
func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	sessions, err := readCollection[domain.Session](ctx, r.store, sessionsKey)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].Token == token {
			s := sessions[i]
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

// Touch updates lastActivity on the matching session and persists.
func (r *SessionRepository) Touch(ctx context.Context, token string, at time.Time) (*domain.Session, error) {
	sessions, err := readCollection[domain.Session](ctx, r.store, sessionsKey)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].Token == token {
			sessions[i].LastActivity = at.UTC()
			if err := writeCollection(ctx, r.store, sessionsKey, sessions); err != nil {
				return nil, err
			}
			s := sessions[i]
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

// DeleteByToken removes the matching record. Removing an absent token is not
// an error; revocation is idempotent.
func (r *SessionRepository) DeleteByToken(ctx context.Context, token string) error {
	sessions, err := readCollection[domain.Session](ctx, r.store, sessionsKey)
	if err != nil {
		return err
	}
	filtered := sessions[:0]
	for i := range sessions {
		if sessions[i].Token != token {
			filtered = append(filtered, sessions[i])
		}
	}
	if len(filtered) == len(sessions) {
		return nil
	}
	return writeCollection(ctx, r.store, sessionsKey, filtered)
}

// DeleteByUser removes every session owned by the user and reports how many.
func (r *SessionRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	sessions, err := readCollection[domain.Session](ctx, r.store, sessionsKey)
	if err != nil {
		return 0, err
	}
	filtered := sessions[:0]
	for i := range sessions {
		if sessions[i].UserID != userID {
			filtered = append(filtered, sessions[i])
		}
	}
	removed := len(sessions) - len(filtered)
	if removed == 0 {
		return 0, nil
	}
	if err := writeCollection(ctx, r.store, sessionsKey, filtered); err != nil {
		return 0, err
	}
	return removed, nil
}

// DeleteExpired drops sessions past expiry; reads already treat them as
// absent, so this only bounds storage growth.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	sessions, err := readCollection[domain.Session](ctx, r.store, sessionsKey)
	if err != nil {
		return 0, err
	}
	filtered := sessions[:0]
	for i := range sessions {
		if !sessions[i].Expired(now) {
			filtered = append(filtered, sessions[i])
		}
	}
	removed := len(sessions) - len(filtered)
	if removed == 0 {
		return 0, nil
	}
	if err := writeCollection(ctx, r.store, sessionsKey, filtered); err != nil {
		return 0, err
	}
	return removed, nil
}

// All returns every session record.
func (r *SessionRepository) All(ctx context.Context) ([]domain.Session, error) {
	return readCollection[domain.Session](ctx, r.store, sessionsKey)
}

var _ port.SessionRepository = (*SessionRepository)(nil)
