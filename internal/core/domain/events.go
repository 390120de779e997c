package domain

import "time"

// UserRegisteredEvent represents the payload for accounts.user.registered messages.
type UserRegisteredEvent struct {
	EventID      string
	UserID       string
	Email        string
	RegisteredAt time.Time
	Method       string
	Metadata     map[string]any
}

// UserVerifiedEvent represents the payload for accounts.user.verified messages.
type UserVerifiedEvent struct {
	EventID    string
	UserID     string
	Email      string
	VerifiedAt time.Time
}

// LoginSucceededEvent represents the payload for accounts.user.login messages.
type LoginSucceededEvent struct {
	EventID    string
	UserID     string
	Email      string
	IPAddress  string
	LoginCount int
	LoggedInAt time.Time
}

// PasswordChangedEvent represents the payload for accounts.user.password.changed messages.
type PasswordChangedEvent struct {
	EventID         string
	UserID          string
	ChangedAt       time.Time
	SessionsRevoked int
	Metadata        map[string]any
}

// SessionRevokedEvent represents the payload for accounts.session.revoked messages.
type SessionRevokedEvent struct {
	EventID   string
	SessionID string
	UserID    string
	Reason    string
	RevokedAt time.Time
}
