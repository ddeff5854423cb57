package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers serves liveness and readiness probes
type HealthHandlers struct {
	checks map[string]Pinger
}

// NewHealthHandlers creates health handlers over named backend checks
func NewHealthHandlers(checks map[string]Pinger) *HealthHandlers {
	return &HealthHandlers{checks: checks}
}

// Health handles GET /health
func (h *HealthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Ready handles GET /ready
func (h *HealthHandlers) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := gin.H{}
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	c.JSON(status, gin.H{"ok": status == http.StatusOK, "checks": results})
}
