package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artprint-backend/internal/config"
	"artprint-backend/internal/models"
)

func TestHealthHandler(t *testing.T) {
	e := setup(t, false)

	w := e.do("GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestReadyHandler(t *testing.T) {
	e := setup(t, false)

	w := e.do("GET", "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ready")
}

func TestSampleLifecycle(t *testing.T) {
	e := setup(t, false)

	w := e.do("GET", "/api/sample/latest", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no_sample_yet")

	w = e.admin("POST", "/api/internal/cron/sample", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[models.SampleResponse](t, w)

	w = e.admin("POST", "/api/internal/cron/sample", nil)
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[models.SampleResponse](t, w)
	assert.Equal(t, first.Sample.ArtworkID, second.Sample.ArtworkID)

	w = e.do("GET", "/api/sample/latest", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	latest := decode[models.SampleResponse](t, w)
	assert.True(t, latest.OK)
	assert.Equal(t, first.Sample.ArtworkID, latest.Sample.ArtworkID)
	assert.Equal(t, "/art/samples/"+latest.Sample.SnapshotID+".svg", latest.Sample.AssetPath)
	assert.Equal(t, 210, latest.Sample.WidthMM)
}

func TestCronRequiresAdmin(t *testing.T) {
	e := setup(t, false)
	assert.Equal(t, http.StatusUnauthorized, e.do("POST", "/api/internal/cron/sample", nil, nil).Code)

	disabled := setup(t, false, func(c *config.Config) { c.AdminToken = "" })
	w := disabled.do("POST", "/api/internal/cron/sample", nil, map[string]string{"Authorization": "Bearer x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPreviewAndServeArt(t *testing.T) {
	e := setup(t, false)

	w := e.do("POST", "/api/preview", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	preview := decode[models.PreviewResponse](t, w)
	assert.Equal(t, "preview", preview.Preview.Kind)

	w = e.do("POST", "/api/preview", []byte(`{"seed":"hello"}`), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, preview.Preview.ArtworkID, decode[models.PreviewResponse](t, w).Preview.ArtworkID)

	w = e.do("GET", preview.Preview.AssetPath, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=31536000, immutable", w.Header().Get("Cache-Control"))
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<svg")

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	w = e.do("GET", preview.Preview.AssetPath, nil, map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, w.Code)
}

func TestServeArtNotFound(t *testing.T) {
	e := setup(t, false)

	assert.Equal(t, http.StatusNotFound, e.do("GET", "/art/samples/missing.svg", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do("GET", "/art/../etc/passwd", nil, nil).Code)
}
