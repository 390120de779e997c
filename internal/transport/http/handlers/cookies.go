package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieWriter centralizes the session cookie attributes so the login,
// logout, and OAuth paths stay consistent.
type CookieWriter struct {
	Name   string
	Domain string
	Secure bool
}

// Set writes the session cookie with the given lifetime.
func (w CookieWriter) Set(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(w.Name, token, int(ttl.Seconds()), "/", w.Domain, w.Secure, true)
}

// Clear expires the session cookie.
func (w CookieWriter) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(w.Name, "", -1, "/", w.Domain, w.Secure, true)
}

// Read returns the session token from the cookie, empty when absent.
func (w CookieWriter) Read(c *gin.Context) string {
	token, err := c.Cookie(w.Name)
	if err != nil {
		return ""
	}
	return token
}
