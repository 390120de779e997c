package domain

import "time"

// Session pairs an issued signed token with a revocable server-side record.
// The token value is the lookup key; the issuing flow guarantees at most one
// record per token.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Token        string    `json:"token"`
	IPAddress    string    `json:"ipAddress,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// Expired reports whether the session is past its expiry at the given instant.
// Expired sessions are inert and must be treated as absent by lookups.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
