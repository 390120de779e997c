package domain

import "time"

// LoginAttempt is an append-only audit entry. The collection is a bounded
// ring capped at the most recent MaxLoginAttempts entries, not a full log.
type LoginAttempt struct {
	Email     string    `json:"email"`
	IPAddress string    `json:"ipAddress"`
	Success   bool      `json:"success"`
	UserAgent string    `json:"userAgent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MaxLoginAttempts bounds the persisted attempt ledger; oldest entries are
// evicted first.
const MaxLoginAttempts = 1000
