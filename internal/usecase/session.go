package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/security"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository"
)

var (
	// ErrSessionInvalid indicates the token failed signature or claim checks.
	ErrSessionInvalid = errors.New("session token invalid")
	// ErrSessionExpired indicates the token or its server-side record is past expiry.
	ErrSessionExpired = errors.New("session expired")
	// ErrSessionNotFound indicates a well-formed token with no live server-side record.
	ErrSessionNotFound = errors.New("session not found")
)

// SessionService issues, validates, and revokes sessions. A session couples a
// signed stateless token with a revocable server-side record; validation
// requires both to be live.
type SessionService struct {
	sessions    port.SessionRepository
	users       port.UserRepository
	signer      *security.TokenSigner
	events      port.EventPublisher
	logger      *zap.Logger
	sessionTTL  time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

// NewSessionService constructs a session service.
func NewSessionService(
	sessions port.SessionRepository,
	users port.UserRepository,
	signer *security.TokenSigner,
	events port.EventPublisher,
	logger *zap.Logger,
	sessionTTL, rememberTTL time.Duration,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		users:       users,
		signer:      signer,
		events:      events,
		logger:      logger,
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
		now:         time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// TTL returns the session lifetime for the given remember-me choice.
func (s *SessionService) TTL(rememberMe bool) time.Duration {
	if rememberMe {
		return s.rememberTTL
	}
	return s.sessionTTL
}

// Create issues a signed token for the user and persists the matching
// session record.
func (s *SessionService) Create(ctx context.Context, user domain.User, ip, userAgent string, rememberMe bool) (*domain.Session, error) {
	ttl := s.TTL(rememberMe)

	token, err := s.signer.Issue(user, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	now := s.now().UTC()
	session := domain.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Token:        token,
		IPAddress:    ip,
		UserAgent:    userAgent,
		ExpiresAt:    now.Add(ttl),
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	return &session, nil
}

// Validate checks the signed token and its server-side record, refreshes the
// record's last-activity timestamp, and returns the owning user. An expired
// record is deleted on sight.
func (s *SessionService) Validate(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, security.ErrExpiredSessionToken) {
			// The server-side record expires with the token; drop it on sight.
			if delErr := s.sessions.DeleteByToken(ctx, token); delErr != nil {
				s.logger.Warn("failed to delete expired session", zap.Error(delErr))
			}
			return nil, nil, ErrSessionExpired
		}
		return nil, nil, ErrSessionInvalid
	}

	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("load session: %w", err)
	}

	now := s.now().UTC()
	if session.Expired(now) {
		if err := s.sessions.DeleteByToken(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, nil, ErrSessionExpired
	}

	session, err = s.sessions.Touch(ctx, token, now)
	if err != nil {
		return nil, nil, fmt.Errorf("touch session: %w", err)
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrSessionInvalid
		}
		return nil, nil, fmt.Errorf("load session user: %w", err)
	}

	if user.Status != domain.UserStatusActive {
		return nil, nil, ErrSessionInvalid
	}

	return user, session, nil
}

// Revoke deletes the session record for a token. Absent records are not an
// error; logout is idempotent.
func (s *SessionService) Revoke(ctx context.Context, token, reason string) error {
	session, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load session: %w", err)
	}

	if err := s.sessions.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.publishRevoked(ctx, *session, reason)
	return nil
}

// RevokeAllForUser drops every session record the user owns and returns the
// count. Used by password reset and account deletion.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID, reason string) (int, error) {
	count, err := s.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}

	if count > 0 {
		s.publishRevoked(ctx, domain.Session{UserID: userID}, reason)
	}

	return count, nil
}

func (s *SessionService) publishRevoked(ctx context.Context, session domain.Session, reason string) {
	if s.events == nil {
		return
	}

	event := domain.SessionRevokedEvent{
		EventID:   uuid.NewString(),
		SessionID: session.ID,
		UserID:    session.UserID,
		Reason:    reason,
		RevokedAt: s.now().UTC(),
	}

	if err := s.events.PublishSessionRevoked(ctx, event); err != nil {
		s.logger.Warn("failed to publish session revoked event", zap.Error(err))
	}
}
