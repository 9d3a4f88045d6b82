package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"artprint-backend/internal/models"
)

const artworkColumns = "id, created_at, snapshot_id, kind, storage_key, mime, width_mm, height_mm"

func scanArtwork(row interface{ Scan(...any) error }) (*models.Artwork, error) {
	var a models.Artwork
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.SnapshotID, &a.Kind, &a.StorageKey,
		&a.Mime, &a.WidthMM, &a.HeightMM); err != nil {
		return nil, err
	}
	return &a, nil
}

func (d *DatabaseClient) GetArtwork(ctx context.Context, id string) (*models.Artwork, error) {
	row := d.db.QueryRowContext(ctx,
		"SELECT "+artworkColumns+" FROM artworks WHERE id = $1", id)
	a, err := scanArtwork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artwork: %w", err)
	}
	return a, nil
}

func (d *DatabaseClient) GetArtworkBySnapshot(ctx context.Context, snapshotID string, kind models.SnapshotKind) (*models.Artwork, error) {
	row := d.db.QueryRowContext(ctx,
		"SELECT "+artworkColumns+" FROM artworks WHERE snapshot_id = $1 AND kind = $2",
		snapshotID, string(kind))
	a, err := scanArtwork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artwork for snapshot: %w", err)
	}
	return a, nil
}

// InsertArtworkIfAbsent stores a unless an artwork for the same snapshot and
// kind exists, and reports whether this call created the row.
func (d *DatabaseClient) InsertArtworkIfAbsent(ctx context.Context, a *models.Artwork) (bool, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = d.now()
	}
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO artworks (id, created_at, snapshot_id, kind, storage_key, mime, width_mm, height_mm)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (snapshot_id, kind) DO NOTHING
	`, a.ID, a.CreatedAt.UTC(), a.SnapshotID, string(a.Kind), a.StorageKey, a.Mime, a.WidthMM, a.HeightMM)
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert artwork: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert artwork: %w", err)
	}
	return n == 1, nil
}

// UpsertPointer moves the named pointer to value unless the stored ordering
// key is newer. Equal keys overwrite, so replays of the same bucket are
// harmless. It reports whether the row changed.
func (d *DatabaseClient) UpsertPointer(ctx context.Context, name, value, orderingKey string) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO pointers (name, value, ordering_key, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE
		SET value = excluded.value, ordering_key = excluded.ordering_key, updated_at = excluded.updated_at
		WHERE excluded.ordering_key >= pointers.ordering_key
	`, name, value, orderingKey, d.now())
	if err != nil {
		return false, fmt.Errorf("failed to upsert pointer %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to upsert pointer %s: %w", name, err)
	}
	return n > 0, nil
}

func (d *DatabaseClient) GetPointer(ctx context.Context, name string) (*models.Pointer, error) {
	var p models.Pointer
	err := d.db.QueryRowContext(ctx,
		"SELECT name, value, ordering_key, updated_at FROM pointers WHERE name = $1", name,
	).Scan(&p.Key, &p.Value, &p.OrderingKey, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pointer %s: %w", name, err)
	}
	return &p, nil
}
