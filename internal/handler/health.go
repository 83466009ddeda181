package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler implements the health check endpoint
type HealthHandler struct {
	store   Pinger
	driver  string
	version string
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(store Pinger, driver, version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		driver:  driver,
		version: version,
		logger:  logger,
	}
}

// GetHealth checks database connectivity
func (h *HealthHandler) GetHealth(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.Error("health check failed: database unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "connected",
		"driver":   h.driver,
		"service":  "medadherence",
		"version":  h.version,
	})
}
