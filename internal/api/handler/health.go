package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	svc TrendService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(svc TrendService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// Health reports subsystem availability. It answers 503 when runs cannot be stored.
func (h *HealthHandler) Health(c *gin.Context) {
	report := h.svc.Health(c.Request.Context())

	code := http.StatusOK
	if !report.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, report)
}
