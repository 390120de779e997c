package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/logger"
)

const (
	requestIDHeader = "X-Request-ID"

	// Inbound ids longer than this are replaced rather than echoed; the
	// header is caller-controlled and ends up on every log line.
	maxRequestIDLength = 64
)

// RequestID propagates the caller's correlation id, or mints one, and makes
// it available to the access log via the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := sanitizeRequestID(c.GetHeader(requestIDHeader))
		if reqID == "" {
			reqID = uuid.NewString()
		}

		c.Writer.Header().Set(requestIDHeader, reqID)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, reqID))

		c.Next()
	}
}

func sanitizeRequestID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > maxRequestIDLength {
		return ""
	}
	for _, r := range id {
		if !isRequestIDRune(r) {
			return ""
		}
	}
	return id
}

func isRequestIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.':
		return true
	}
	return false
}
