package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/domain"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/usecase"
)

// Context keys populated by RequireSession.
const (
	UserKey    = "auth_user"
	SessionKey = "auth_session"
)

type authError struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, authError{
		StatusCode: http.StatusUnauthorized,
		Message:    message,
	})
}

// RequireSession validates the session cookie and stores the authenticated
// user and session on the Gin context.
func RequireSession(sessions *usecase.SessionService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			abortUnauthorized(c, "Authentication required")
			return
		}

		user, session, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrSessionExpired):
				abortUnauthorized(c, "Session expired. Please sign in again.")
			case errors.Is(err, usecase.ErrSessionInvalid), errors.Is(err, usecase.ErrSessionNotFound):
				abortUnauthorized(c, "Invalid session. Please sign in again.")
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, authError{
					StatusCode: http.StatusInternalServerError,
					Message:    "Authentication failed",
				})
			}
			return
		}

		c.Set(UserKey, user)
		c.Set(SessionKey, session)

		c.Next()
	}
}

// RequireRole rejects authenticated users whose role does not match.
// Must run after RequireSession.
func RequireRole(role domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, authError{
				StatusCode: http.StatusForbidden,
				Message:    "Insufficient permissions",
			})
			return
		}

		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by RequireSession.
func CurrentUser(c *gin.Context) *domain.User {
	value, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	user, _ := value.(*domain.User)
	return user
}

// CurrentSession returns the session stored by RequireSession.
func CurrentSession(c *gin.Context) *domain.Session {
	value, ok := c.Get(SessionKey)
	if !ok {
		return nil
	}
	session, _ := value.(*domain.Session)
	return session
}
