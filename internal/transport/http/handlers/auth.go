package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/ratelimit"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/usecase"
)

// FlowLimiters bundles the per-flow fixed-window rate limiters.
type FlowLimiters struct {
	Signup       *ratelimit.Limiter
	Verify       *ratelimit.Limiter
	ResetRequest *ratelimit.Limiter
	ResetRedeem  *ratelimit.Limiter
}

// AuthHandler exposes the signup, verification, login, and password reset
// endpoints.
type AuthHandler struct {
	auth         *usecase.AuthService
	registration *usecase.RegistrationService
	reset        *usecase.PasswordResetService
	sessions     *usecase.SessionService
	limiters     FlowLimiters
	cookies      CookieWriter
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(
	auth *usecase.AuthService,
	registration *usecase.RegistrationService,
	reset *usecase.PasswordResetService,
	sessions *usecase.SessionService,
	limiters FlowLimiters,
	cookies CookieWriter,
) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		registration: registration,
		reset:        reset,
		sessions:     sessions,
		limiters:     limiters,
		cookies:      cookies,
	}
}

// RegisterRoutes binds the authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/signup", h.signup)
	r.POST("/verify", h.verify)
	r.POST("/login", h.login)
	r.POST("/logout", h.logout)
	r.POST("/request-reset", h.requestReset)
	r.POST("/reset", h.resetPassword)
}

func retryMessage(action string, window time.Duration) string {
	return fmt.Sprintf("Too many %s attempts. Please try again in %s.", action, window)
}

func (h *AuthHandler) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Validation failed", map[string]string{"body": err.Error()})
		return
	}

	if !h.limiters.Signup.Allow(c.Request.Context(), c.ClientIP()) {
		respondRateLimited(c, retryMessage("signup", h.limiters.Signup.Window()))
		return
	}

	result, err := h.registration.Signup(c.Request.Context(), usecase.SignupInput{
		Email:           req.Email,
		Password:        req.Password,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		AcceptTerms:     req.AcceptTerms,
		MarketingEmails: req.MarketingEmails,
		IPAddress:       c.ClientIP(),
	})
	if err != nil {
		respondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidEmail, Status: http.StatusBadRequest, Message: "Invalid email format"},
			{Err: usecase.ErrTermsNotAccepted, Status: http.StatusBadRequest, Message: "You must accept the terms and conditions"},
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "An account with this email already exists. Please sign in instead."},
		})
		return
	}

	message := "Account created successfully! Please check your email for the verification code."
	if result.Resent {
		message = "Verification code resent to your email address."
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data: gin.H{
			"email":                result.Email,
			"userId":               result.UserID,
			"resent":               result.Resent,
			"verificationRequired": result.VerificationRequired,
		},
	})
}

func (h *AuthHandler) verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Validation failed", map[string]string{"body": err.Error()})
		return
	}

	email := domain.NormalizeEmail(req.Email)
	if !h.limiters.Verify.Allow(c.Request.Context(), email) {
		respondRateLimited(c, retryMessage("verification", h.limiters.Verify.Window()))
		return
	}

	user, err := h.registration.Verify(c.Request.Context(), email, req.Code)
	if err != nil {
		respondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "No account found for this email"},
			{Err: usecase.ErrAlreadyVerified, Status: http.StatusBadRequest, Message: "This account is already verified. Please sign in."},
			{Err: usecase.ErrCodeMissing, Status: http.StatusBadRequest, Message: "No verification code on file. Please sign up again to receive a new code."},
			{Err: usecase.ErrCodeExpired, Status: http.StatusBadRequest, Message: "Verification code has expired. Please sign up again to receive a new code."},
			{Err: usecase.ErrCodeMismatch, Status: http.StatusBadRequest, Message: "Invalid verification code"},
		})
		return
	}

	h.limiters.Verify.Clear(c.Request.Context(), email)

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Email verified successfully! You can now sign in.",
		Data:    gin.H{"user": NewUserSummary(*user)},
	})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Validation failed", map[string]string{"body": err.Error()})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		respondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid email or password"},
			{Err: usecase.ErrAccountLocked, Status: http.StatusLocked, Message: "Account temporarily locked due to repeated failures. Please try again later."},
			{Err: usecase.ErrAccountInactive, Status: http.StatusForbidden, Message: "This account is not active"},
			{Err: usecase.ErrNotVerified, Status: http.StatusForbidden, Message: "Please verify your email before signing in"},
		})
		return
	}

	h.cookies.Set(c, result.Session.Token, h.sessions.TTL(req.RememberMe))

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Signed in successfully",
		Data: LoginResponse{
			User: NewUserSummary(result.User),
			Session: SessionSummary{
				ID:        result.Session.ID,
				CreatedAt: result.Session.CreatedAt,
				ExpiresAt: result.Session.ExpiresAt,
			},
		},
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	if token := h.cookies.Read(c); token != "" {
		h.auth.Logout(c.Request.Context(), token)
	}

	h.cookies.Clear(c)

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Signed out successfully",
	})
}

func (h *AuthHandler) requestReset(c *gin.Context) {
	var req RequestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Validation failed", map[string]string{"body": err.Error()})
		return
	}

	email := domain.NormalizeEmail(req.Email)
	key := email + ":" + c.ClientIP()
	if !h.limiters.ResetRequest.Allow(c.Request.Context(), key) {
		respondRateLimited(c, retryMessage("password reset", h.limiters.ResetRequest.Window()))
		return
	}

	if err := h.reset.RequestReset(c.Request.Context(), email); err != nil {
		// A delivery failure is the only surfaced error; the generic message
		// keeps the response indistinguishable for unknown accounts.
		respondWithMappedError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "If an account exists for this email, a reset code has been sent.",
	})
}

func (h *AuthHandler) resetPassword(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "Validation failed", map[string]string{"body": err.Error()})
		return
	}

	if req.Password != req.ConfirmPassword {
		respondValidationError(c, "Validation failed", map[string]string{
			"confirmPassword": "Passwords do not match",
		})
		return
	}

	email := domain.NormalizeEmail(req.Email)
	if !h.limiters.ResetRedeem.Allow(c.Request.Context(), email) {
		respondRateLimited(c, retryMessage("password reset", h.limiters.ResetRedeem.Window()))
		return
	}

	if err := h.reset.Reset(c.Request.Context(), email, req.Code, req.Password); err != nil {
		respondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "No account found for this email"},
			{Err: usecase.ErrCodeMissing, Status: http.StatusBadRequest, Message: "No reset code on file. Please request a new one."},
			{Err: usecase.ErrCodeExpired, Status: http.StatusBadRequest, Message: "Reset code has expired. Please request a new one."},
			{Err: usecase.ErrCodeMismatch, Status: http.StatusBadRequest, Message: "Invalid reset code"},
			{Err: usecase.ErrSamePassword, Status: http.StatusBadRequest, Message: "New password must be different from your current password"},
		})
		return
	}

	h.limiters.ResetRedeem.Clear(c.Request.Context(), email)

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Password reset successfully. Please sign in with your new password.",
	})
}
