package models

import (
	"encoding/json"
	"time"
)

type SnapshotKind string

const (
	SnapshotKindSample  SnapshotKind = "sample"
	SnapshotKindPreview SnapshotKind = "preview"
)

// PointerLatestSample names the pointer row tracking the newest hourly sample.
const PointerLatestSample = "latest_sample"

type Snapshot struct {
	ID        string
	CreatedAt time.Time
	Kind      SnapshotKind
	SourceKey string
	Data      json.RawMessage
}

type Artwork struct {
	ID         string
	CreatedAt  time.Time
	SnapshotID string
	Kind       SnapshotKind
	StorageKey string
	Mime       string
	WidthMM    int
	HeightMM   int
}

type Pointer struct {
	Key         string
	Value       string
	OrderingKey string
	UpdatedAt   time.Time
}
