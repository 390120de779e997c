package handlers

import (
	"time"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
)

// APIResponse is the success envelope shared by every endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// APIError is the failure envelope. Errors carries field-keyed validation
// messages when the failure is a 400.
type APIError struct {
	Success    bool              `json:"success"`
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Errors     map[string]string `json:"errors,omitempty"`
}

func newAPIError(status int, message string) APIError {
	return APIError{StatusCode: status, Message: message}
}

// SignupRequest is the signup form payload.
type SignupRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	AcceptTerms     bool   `json:"acceptTerms"`
	MarketingEmails bool   `json:"marketingEmails"`
}

// VerifyRequest redeems an emailed verification code.
type VerifyRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// LoginRequest is the login form payload.
type LoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// RequestResetRequest starts the forgot-password flow.
type RequestResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetRequest redeems an emailed reset code.
type ResetRequest struct {
	Email           string `json:"email" binding:"required"`
	Code            string `json:"code" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// UserSummary is the sanitized user view returned to clients.
type UserSummary struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	Verified  bool              `json:"verified"`
	Role      domain.UserRole   `json:"role"`
	Status    domain.UserStatus `json:"status"`
	Profile   domain.Profile    `json:"profile"`
	Settings  domain.Settings   `json:"settings"`
	LastLogin *time.Time        `json:"lastLogin,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NewUserSummary strips credential material from a user record.
func NewUserSummary(user domain.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Email:     user.Email,
		Verified:  user.Verified,
		Role:      user.Role,
		Status:    user.Status,
		Profile:   user.Profile,
		Settings:  user.Settings,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
	}
}

// SessionSummary is the session metadata returned alongside a login.
type SessionSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LoginResponse is the data payload of a successful login.
type LoginResponse struct {
	User    UserSummary    `json:"user"`
	Session SessionSummary `json:"session"`
}
