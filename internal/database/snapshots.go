package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"artprint-backend/internal/models"
)

const snapshotColumns = "id, created_at, kind, source_key, data"

func scanSnapshot(row interface{ Scan(...any) error }) (*models.Snapshot, error) {
	var s models.Snapshot
	var data string
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.Kind, &s.SourceKey, &data); err != nil {
		return nil, err
	}
	s.Data = []byte(data)
	return &s, nil
}

func (d *DatabaseClient) GetSnapshotBySourceKey(ctx context.Context, sourceKey string) (*models.Snapshot, error) {
	row := d.db.QueryRowContext(ctx,
		"SELECT "+snapshotColumns+" FROM snapshots WHERE source_key = $1", sourceKey)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", sourceKey, err)
	}
	return s, nil
}

func (d *DatabaseClient) GetSnapshot(ctx context.Context, id string) (*models.Snapshot, error) {
	row := d.db.QueryRowContext(ctx,
		"SELECT "+snapshotColumns+" FROM snapshots WHERE id = $1", id)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return s, nil
}

// InsertSnapshotIfAbsent stores s unless a snapshot with the same source key
// exists. It reports whether this call created the row; callers read back the
// winner either way.
func (d *DatabaseClient) InsertSnapshotIfAbsent(ctx context.Context, s *models.Snapshot) (bool, error) {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = d.now()
	}
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, created_at, kind, source_key, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_key) DO NOTHING
	`, s.ID, s.CreatedAt.UTC(), string(s.Kind), s.SourceKey, string(s.Data))
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return n == 1, nil
}
