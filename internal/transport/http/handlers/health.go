package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
)

// HealthHandler exposes liveness and readiness probes.
type HealthHandler struct {
	store   port.BlobStore
	appName string
	env     string
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(store port.BlobStore, appName, env string) *HealthHandler {
	return &HealthHandler{store: store, appName: appName, env: env}
}

// RegisterRoutes binds the probe routes on the root router.
func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.liveness)
	r.GET("/readyz", h.readiness)
}

func (h *HealthHandler) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.appName,
		"env":     h.env,
	})
}

// readiness probes the blob store with a short deadline. A missing probe key
// is fine; only transport errors mark the service unready.
func (h *HealthHandler) readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if _, _, err := h.store.Get(ctx, "healthcheck"); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "storage unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
