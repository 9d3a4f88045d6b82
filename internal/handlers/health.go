package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"artprint-backend/internal/models"
	"artprint-backend/internal/observability"
)

// HealthHandler godoc
// @Summary     Health check
// @Description Returns the liveness status of the API
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status: "ok",
		Now:    time.Now().UTC().Format(time.RFC3339),
	})
}

type readinessChecker interface {
	Ready(ctx context.Context) error
}

type ReadyHandler struct {
	db     readinessChecker
	logger *zap.Logger
}

func NewReadyHandler(db readinessChecker, logger *zap.Logger) *ReadyHandler {
	return &ReadyHandler{db: db, logger: logger}
}

// Ready godoc
// @Summary     Readiness check
// @Description Pings the database and checks that migrations have run
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Failure     503 {object} models.ErrorResponse
// @Router      /ready [get]
func (h *ReadyHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ready(ctx); err != nil {
		observability.FromContext(c, h.logger).Warn("readiness check failed", zap.Error(err))
		errorJSON(c, http.StatusServiceUnavailable, "not_ready", "database is not ready")
		return
	}
	c.JSON(http.StatusOK, models.HealthResponse{
		Status: "ready",
		Now:    time.Now().UTC().Format(time.RFC3339),
	})
}
