package domain

import (
	"strings"
	"time"
)

// UserRole enumerates the dashboard roles a user may hold.
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
)

// UserStatus enumerates possible account states.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusDeleted   UserStatus = "deleted"
)

// Profile carries the user's contact and display fields.
type Profile struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Country   string `json:"country,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
	Language  string `json:"language,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// Settings holds per-user notification and security toggles.
type Settings struct {
	EmailNotifications bool `json:"emailNotifications"`
	TwoFactorEnabled   bool `json:"twoFactorEnabled"`
	MarketingEmails    bool `json:"marketingEmails"`
	LoginAlerts        bool `json:"loginAlerts"`
}

// DefaultSettings returns the toggles applied to newly created accounts.
func DefaultSettings() Settings {
	return Settings{
		EmailNotifications: true,
		TwoFactorEnabled:   false,
		MarketingEmails:    false,
		LoginAlerts:        true,
	}
}

// OAuthProvider records a linked external identity, deduplicated by provider+id.
type OAuthProvider struct {
	Provider string `json:"provider"`
	ID       string `json:"id"`
}

// User mirrors the persisted representation in the users collection.
// The email is stored lower-cased; uniqueness holds only among records
// whose status is not deleted.
type User struct {
	ID                    string         `json:"id"`
	Email                 string         `json:"email"`
	PasswordHash          string         `json:"passwordHash"`
	Verified              bool           `json:"verified"`
	VerificationCode      *string        `json:"verificationCode,omitempty"`
	VerificationExpiresAt *time.Time     `json:"verificationExpiresAt,omitempty"`
	ResetCode             *string        `json:"resetCode,omitempty"`
	ResetExpiresAt        *time.Time     `json:"resetExpiresAt,omitempty"`
	Profile               Profile        `json:"profile"`
	Settings              Settings       `json:"settings"`
	Role                  UserRole       `json:"role"`
	Status                UserStatus     `json:"status"`
	LastLogin             *time.Time     `json:"lastLogin,omitempty"`
	LastLoginIP           string         `json:"lastLoginIp,omitempty"`
	LoginCount            int            `json:"loginCount"`
	FailedLoginAttempts   int            `json:"failedLoginAttempts"`
	LockedUntil           *time.Time     `json:"lockedUntil,omitempty"`
	Metadata              map[string]any `json:"metadata,omitempty"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
	DeletedAt             *time.Time     `json:"deletedAt,omitempty"`
}

// NormalizeEmail lower-cases and trims an email for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Locked reports whether the account lockout is still in force at the given instant.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// LinkedTo reports whether the given provider identity is already attached.
func (u *User) LinkedTo(provider, id string) bool {
	for _, p := range u.ProviderLinks() {
		if p.Provider == provider && p.ID == id {
			return true
		}
	}
	return false
}

// ProviderLinks decodes metadata.oauthProviders into typed links. The slice
// survives a JSON round trip as []any of maps, so both shapes are accepted.
func (u *User) ProviderLinks() []OAuthProvider {
	raw, ok := u.Metadata["oauthProviders"]
	if !ok {
		return nil
	}

	var links []OAuthProvider
	switch list := raw.(type) {
	case []OAuthProvider:
		return list
	case []any:
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			provider, _ := entry["provider"].(string)
			id, _ := entry["id"].(string)
			if provider != "" && id != "" {
				links = append(links, OAuthProvider{Provider: provider, ID: id})
			}
		}
	}
	return links
}

// AddProviderLink attaches a provider identity to metadata.oauthProviders,
// keeping the list deduplicated by provider+id.
func (u *User) AddProviderLink(provider, id string) {
	if u.LinkedTo(provider, id) {
		return
	}
	links := append(u.ProviderLinks(), OAuthProvider{Provider: provider, ID: id})
	if u.Metadata == nil {
		u.Metadata = map[string]any{}
	}
	u.Metadata["oauthProviders"] = links
}

// Sanitized returns a copy safe to hand to transport layers.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.VerificationCode = nil
	u.ResetCode = nil
	return u
}

// Statistics aggregates directory-wide counts for the admin dashboard.
type Statistics struct {
	TotalUsers     int            `json:"totalUsers"`
	VerifiedUsers  int            `json:"verifiedUsers"`
	ActiveUsers    int            `json:"activeUsers"`
	SuspendedUsers int            `json:"suspendedUsers"`
	DeletedUsers   int            `json:"deletedUsers"`
	ActiveSessions int            `json:"activeSessions"`
	UsersByRole    map[string]int `json:"usersByRole"`
}
