package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// respondWithMappedError resolves the error against the case table, handling
// password policy violations as field-keyed 400s, and falls back to a generic
// 500 that never leaks internals.
func respondWithMappedError(c *gin.Context, err error, cases []ErrorCase) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	var policyErr *usecase.PasswordPolicyError
	if errors.As(err, &policyErr) {
		respondValidationError(c, "Password requirements not met", map[string]string{
			"password": strings.Join(policyErr.Violations, "; "),
		})
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, newAPIError(cs.Status, cs.Message))
			return
		}
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError,
		newAPIError(http.StatusInternalServerError, "An unexpected error occurred. Please try again."))
}

func respondValidationError(c *gin.Context, message string, fields map[string]string) {
	resp := newAPIError(http.StatusBadRequest, message)
	resp.Errors = fields
	c.JSON(http.StatusBadRequest, resp)
}

func respondRateLimited(c *gin.Context, message string) {
	c.JSON(http.StatusTooManyRequests, newAPIError(http.StatusTooManyRequests, message))
}
