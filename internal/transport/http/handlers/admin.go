package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/usecase"
)

// AdminHandler exposes the aggregate statistics endpoint.
type AdminHandler struct {
	users *usecase.UserService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(users *usecase.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

// RegisterRoutes binds the admin routes. The caller supplies the auth chain.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats", h.stats)
}

func (h *AdminHandler) stats(c *gin.Context) {
	stats, err := h.users.Statistics(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    stats,
	})
}
