package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"artprint-backend/internal/apperr"
	"artprint-backend/internal/blob"
	"artprint-backend/internal/database"
	"artprint-backend/internal/models"
	"artprint-backend/internal/render"
)

// SnapshotBuilder produces the payload for a new snapshot. It is only called
// when no snapshot exists for the source key.
type SnapshotBuilder func() (json.RawMessage, error)

// Rendering is the output of a Renderer.
type Rendering struct {
	Data     []byte
	Mime     string
	WidthMM  int
	HeightMM int
}

// Renderer turns a snapshot into artwork bytes. It must be deterministic.
type Renderer func(snap *models.Snapshot, kind models.SnapshotKind) (Rendering, error)

type ArtworkService struct {
	db     *database.DatabaseClient
	blobs  blob.Store
	render Renderer
	logger *zap.Logger
	now    func() time.Time
}

func NewArtworkService(db *database.DatabaseClient, blobs blob.Store, logger *zap.Logger) *ArtworkService {
	return &ArtworkService{
		db:     db,
		blobs:  blobs,
		render: RenderSVG,
		logger: logger,
		now:    time.Now,
	}
}

func (s *ArtworkService) WithClock(now func() time.Time) *ArtworkService {
	s.now = now
	return s
}

func (s *ArtworkService) WithRenderer(r Renderer) *ArtworkService {
	s.render = r
	return s
}

// EnsureSnapshot returns the snapshot for sourceKey, creating it from build
// when absent. Concurrent callers with the same key all receive the single
// stored row.
func (s *ArtworkService) EnsureSnapshot(ctx context.Context, kind models.SnapshotKind, sourceKey string, build SnapshotBuilder) (*models.Snapshot, error) {
	existing, err := s.db.GetSnapshotBySourceKey(ctx, sourceKey)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, apperr.Internal("snapshot_lookup_failed", err)
	}

	data, err := build()
	if err != nil {
		return nil, apperr.Internal("snapshot_build_failed", err)
	}

	snap := &models.Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Kind:      kind,
		SourceKey: sourceKey,
		Data:      data,
	}
	created, err := s.db.InsertSnapshotIfAbsent(ctx, snap)
	if err != nil {
		return nil, apperr.Internal("snapshot_insert_failed", err)
	}
	if !created {
		s.logger.Debug("snapshot already present", zap.String("source_key", sourceKey))
	}

	winner, err := s.db.GetSnapshotBySourceKey(ctx, sourceKey)
	if err != nil {
		return nil, apperr.Internal("snapshot_lookup_failed", err)
	}
	return winner, nil
}

// EnsureArtwork returns the artwork of kind for snap, rendering and storing
// it when absent. A lost race re-renders harmlessly; only the registry row is
// deduplicated.
func (s *ArtworkService) EnsureArtwork(ctx context.Context, snap *models.Snapshot, kind models.SnapshotKind) (*models.Artwork, error) {
	existing, err := s.db.GetArtworkBySnapshot(ctx, snap.ID, kind)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, apperr.Internal("artwork_lookup_failed", err)
	}

	out, err := s.render(snap, kind)
	if err != nil {
		return nil, apperr.Internal("render_failed", err)
	}

	key := StorageKey(kind, snap.ID, out.Mime)
	if err := s.blobs.Put(ctx, key, out.Data, out.Mime); err != nil {
		return nil, apperr.Internal("blob_put_failed", err)
	}

	art := &models.Artwork{
		ID:         uuid.NewString(),
		CreatedAt:  s.now().UTC(),
		SnapshotID: snap.ID,
		Kind:       kind,
		StorageKey: key,
		Mime:       out.Mime,
		WidthMM:    out.WidthMM,
		HeightMM:   out.HeightMM,
	}
	if _, err := s.db.InsertArtworkIfAbsent(ctx, art); err != nil {
		return nil, apperr.Internal("artwork_insert_failed", err)
	}

	winner, err := s.db.GetArtworkBySnapshot(ctx, snap.ID, kind)
	if err != nil {
		return nil, apperr.Internal("artwork_lookup_failed", err)
	}
	return winner, nil
}

// GenerateHourlySample settles the sample for the UTC hour containing now and
// moves the latest_sample pointer to it. Repeated calls within the hour return
// the same artwork.
func (s *ArtworkService) GenerateHourlySample(ctx context.Context, now time.Time) (*models.Artwork, error) {
	bucket := render.HourKey(now)
	sourceKey := "sample:" + bucket

	snap, err := s.EnsureSnapshot(ctx, models.SnapshotKindSample, sourceKey, func() (json.RawMessage, error) {
		return json.Marshal(render.SampleMetrics(now))
	})
	if err != nil {
		return nil, err
	}

	art, err := s.EnsureArtwork(ctx, snap, models.SnapshotKindSample)
	if err != nil {
		return nil, err
	}

	moved, err := s.db.UpsertPointer(ctx, models.PointerLatestSample, art.ID, bucket)
	if err != nil {
		return nil, apperr.Internal("pointer_update_failed", err)
	}
	if !moved {
		s.logger.Info("latest sample pointer is newer, leaving it",
			zap.String("bucket", bucket), zap.String("artwork_id", art.ID))
	}
	return art, nil
}

// CreatePreview renders a one-off preview. Every call creates a new snapshot.
func (s *ArtworkService) CreatePreview(ctx context.Context, seed string) (*models.Artwork, error) {
	now := s.now()
	sourceKey := "preview:" + ulid.Make().String()
	if strings.TrimSpace(seed) == "" {
		seed = sourceKey
	}

	snap, err := s.EnsureSnapshot(ctx, models.SnapshotKindPreview, sourceKey, func() (json.RawMessage, error) {
		return json.Marshal(render.PreviewMetrics(seed, now))
	})
	if err != nil {
		return nil, err
	}
	return s.EnsureArtwork(ctx, snap, models.SnapshotKindPreview)
}

func (s *ArtworkService) LatestSample(ctx context.Context) (*models.Artwork, error) {
	p, err := s.db.GetPointer(ctx, models.PointerLatestSample)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("no_sample_yet", "no sample has been generated yet")
	}
	if err != nil {
		return nil, apperr.Internal("pointer_lookup_failed", err)
	}
	return s.GetArtwork(ctx, p.Value)
}

func (s *ArtworkService) GetArtwork(ctx context.Context, id string) (*models.Artwork, error) {
	art, err := s.db.GetArtwork(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("artwork_not_found", "artwork not found")
	}
	if err != nil {
		return nil, apperr.Internal("artwork_lookup_failed", err)
	}
	return art, nil
}

// Asset reads stored artwork bytes by storage key.
func (s *ArtworkService) Asset(ctx context.Context, key string) (*blob.Object, error) {
	obj, err := s.blobs.Get(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, apperr.NotFound("not_found", "asset not found")
	}
	if err != nil {
		return nil, apperr.Internal("blob_get_failed", err)
	}
	return obj, nil
}

// StorageKey is the deterministic blob key for a snapshot's artwork.
func StorageKey(kind models.SnapshotKind, snapshotID, mime string) string {
	return fmt.Sprintf("%ss/%s%s", kind, snapshotID, extensionFor(mime))
}

func extensionFor(mime string) string {
	if strings.HasPrefix(mime, render.MimeSVG) {
		return ".svg"
	}
	if m := mimetype.Lookup(mime); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".bin"
}

// RenderSVG is the default Renderer.
func RenderSVG(snap *models.Snapshot, kind models.SnapshotKind) (Rendering, error) {
	var m render.Metrics
	if err := json.Unmarshal(snap.Data, &m); err != nil {
		return Rendering{}, fmt.Errorf("failed to decode snapshot %s: %w", snap.ID, err)
	}
	return Rendering{
		Data:     render.SVG(m, render.Canvas{WidthMM: render.DefaultWidthMM, HeightMM: render.DefaultHeightMM, Kind: string(kind)}),
		Mime:     render.MimeSVG,
		WidthMM:  render.DefaultWidthMM,
		HeightMM: render.DefaultHeightMM,
	}, nil
}
