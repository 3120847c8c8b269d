package handlers

import (
	"net/http"

	"example.com/backstage/services/buildline/internal/database"
	"example.com/backstage/services/buildline/internal/metrics"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves liveness and the in-process metrics snapshot
type HealthHandler struct {
	db      database.DB
	metrics *metrics.Metrics
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db database.DB, m *metrics.Metrics) *HealthHandler {
	return &HealthHandler{db: db, metrics: m}
}

// HandleHealth reports service health including database reachability
func (h *HealthHandler) HandleHealth(c *gin.Context) {
	status := "ok"
	code := http.StatusOK

	if _, err := h.db.DB(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": "buildline",
	})
}

// HandleMetrics dumps workflow counters
func (h *HealthHandler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
