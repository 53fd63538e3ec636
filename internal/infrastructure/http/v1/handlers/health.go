package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"autobill/internal/infrastructure/storage/postgres"
)

// Version is reported by /health/info.
const Version = "0.1.0"

// Pinger reports database reachability and pool usage.
// *postgres.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
	Stats() postgres.PoolStats
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	pool Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(pool Pinger) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// Live handles the liveness check (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles the readiness check (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.pool.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":      "autobill",
		"version":  Version,
		"database": h.pool.Stats(),
	})
}
