package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ReadinessCheck is one dependency the API needs before taking traffic.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	backend string
	checks  []ReadinessCheck
	timeout time.Duration
}

// create a new instance of the health handler
func NewHealthHandler(backend string, checks ...ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		backend: backend,
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

func (h *HealthHandler) Live(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Ready(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	failed := map[string]string{}
	for _, check := range h.checks {
		if err := check.Ping(cctx); err != nil {
			failed[check.Name] = "unavailable"
		}
	}

	if len(failed) > 0 {
		RespondError(ctx, http.StatusServiceUnavailable, "service_unavailable", "Not ready", gin.H{
			"backend": h.backend,
			"checks":  failed,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "backend": h.backend})
}
