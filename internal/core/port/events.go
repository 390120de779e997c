package port

import (
	"context"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
)

// EventPublisher publishes account domain events to the message bus.
// Publishing is best-effort from the flows' perspective.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishUserVerified(ctx context.Context, event domain.UserVerifiedEvent) error
	PublishLoginSucceeded(ctx context.Context, event domain.LoginSucceededEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
}
