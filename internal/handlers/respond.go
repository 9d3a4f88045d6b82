package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"artprint-backend/internal/apperr"
	"artprint-backend/internal/models"
	"artprint-backend/internal/observability"
)

// respondError renders err as an ErrorResponse. Internal causes are logged,
// never returned.
func respondError(c *gin.Context, fallback *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		observability.FromContext(c, fallback).Error("request failed",
			zap.String("code", apperr.CodeOf(err)), zap.Error(err))
	}
	c.JSON(status, models.ErrorResponse{
		OK:      false,
		Error:   apperr.CodeOf(err),
		Message: apperr.PublicMessage(err),
	})
}

func errorJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{OK: false, Error: code, Message: message})
}
