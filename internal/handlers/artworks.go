package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"artprint-backend/internal/models"
	"artprint-backend/internal/observability"
	"artprint-backend/internal/services"
)

const immutableCacheControl = "public, max-age=31536000, immutable"

type ArtworksHandler struct {
	artworks *services.ArtworkService
	logger   *zap.Logger
	now      func() time.Time
}

func NewArtworksHandler(artworks *services.ArtworkService, logger *zap.Logger) *ArtworksHandler {
	return &ArtworksHandler{artworks: artworks, logger: logger, now: time.Now}
}

// LatestSample godoc
// @Summary     Latest hourly sample
// @Tags        artworks
// @Produce     json
// @Success     200 {object} models.SampleResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /api/sample/latest [get]
func (h *ArtworksHandler) LatestSample(c *gin.Context) {
	art, err := h.artworks.LatestSample(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.SampleResponse{OK: true, Sample: models.NewArtworkResponse(art)})
}

// CreatePreview godoc
// @Summary     Render a preview artwork
// @Description Creates a new preview. The JSON body and its seed are optional.
// @Tags        artworks
// @Accept      json
// @Produce     json
// @Param       request body models.PreviewRequest false "Optional seed"
// @Success     200 {object} models.PreviewResponse
// @Router      /api/preview [post]
func (h *ArtworksHandler) CreatePreview(c *gin.Context) {
	var req models.PreviewRequest
	// Body is optional; anything unparsable means no seed.
	_ = c.ShouldBindJSON(&req)

	art, err := h.artworks.CreatePreview(c.Request.Context(), req.Seed)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.PreviewResponse{OK: true, Preview: models.NewArtworkResponse(art)})
}

// ServeArt godoc
// @Summary     Serve a stored artwork asset
// @Tags        artworks
// @Produce     image/svg+xml
// @Param       key path string true "Storage key"
// @Success     200
// @Failure     404 {object} models.ErrorResponse
// @Router      /art/{key} [get]
func (h *ArtworksHandler) ServeArt(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		errorJSON(c, http.StatusNotFound, "not_found", "asset not found")
		return
	}

	obj, err := h.artworks.Asset(c.Request.Context(), key)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sum := sha256.Sum256(obj.Data)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`
	c.Header("Cache-Control", immutableCacheControl)
	c.Header("ETag", etag)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, obj.Data)
}

// CronSample godoc
// @Summary     Generate the hourly sample
// @Description Idempotent within an hour; safe to call repeatedly.
// @Tags        internal
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.SampleResponse
// @Router      /api/internal/cron/sample [post]
func (h *ArtworksHandler) CronSample(c *gin.Context) {
	art, err := h.artworks.GenerateHourlySample(c.Request.Context(), h.now())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	observability.FromContext(c, h.logger).Info("hourly sample generated",
		zap.String("artwork_id", art.ID), zap.String("trigger", "http"))
	c.JSON(http.StatusOK, models.SampleResponse{OK: true, Sample: models.NewArtworkResponse(art)})
}
