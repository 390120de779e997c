package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/usecase"
)

const oauthStateCookie = "urlsclickearn_oauth_state"

// OAuthHandler exposes the provider redirect and callback endpoints.
type OAuthHandler struct {
	oauth    *usecase.OAuthService
	sessions *usecase.SessionService
	cookies  CookieWriter
}

// NewOAuthHandler constructs OAuthHandler.
func NewOAuthHandler(oauth *usecase.OAuthService, sessions *usecase.SessionService, cookies CookieWriter) *OAuthHandler {
	return &OAuthHandler{oauth: oauth, sessions: sessions, cookies: cookies}
}

// RegisterRoutes binds the OAuth routes.
func (h *OAuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/oauth/callback", h.callback)
	r.GET("/oauth/:provider", h.redirect)
}

func (h *OAuthHandler) redirect(c *gin.Context) {
	provider := c.Param("provider")

	state := uuid.NewString()
	url, err := h.oauth.AuthURL(provider, state)
	if err != nil {
		c.JSON(http.StatusBadRequest, newAPIError(http.StatusBadRequest, "Unsupported or unconfigured provider"))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, int((10 * time.Minute).Seconds()), "/", h.cookies.Domain, h.cookies.Secure, true)

	c.Redirect(http.StatusFound, url)
}

func (h *OAuthHandler) callback(c *gin.Context) {
	provider := c.Query("provider")
	code := c.Query("code")
	state := c.Query("state")

	if provider == "" || code == "" {
		c.JSON(http.StatusBadRequest, newAPIError(http.StatusBadRequest, "Missing provider or code"))
		return
	}

	expectedState, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != expectedState {
		c.JSON(http.StatusBadRequest, newAPIError(http.StatusBadRequest, "Invalid or missing OAuth state"))
		return
	}

	// The state cookie is single-use.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)

	result, err := h.oauth.HandleCallback(c.Request.Context(), provider, code, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUnsupportedProvider, Status: http.StatusBadRequest, Message: "Unsupported or unconfigured provider"},
			{Err: usecase.ErrProviderEmail, Status: http.StatusBadRequest, Message: "The provider did not return a verified email address"},
		})
		return
	}

	h.cookies.Set(c, result.Session.Token, h.sessions.TTL(false))

	c.Redirect(http.StatusFound, "/dashboard")
}
