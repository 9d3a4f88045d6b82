package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// Open opens and pings a database for the configured driver ("postgres" or
// "sqlite").
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

type DatabaseClient struct {
	db  *sql.DB
	now func() time.Time
}

func NewDatabaseClient(db *sql.DB) *DatabaseClient {
	return &DatabaseClient{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source. Used by tests.
func (d *DatabaseClient) WithClock(now func() time.Time) *DatabaseClient {
	d.now = func() time.Time { return now().UTC() }
	return d
}

// Ready reports whether the database answers and the schema is migrated.
func (d *DatabaseClient) Ready(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		return fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	if n == 0 {
		return errors.New("no migrations applied")
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

// isUniqueViolation reports a PostgreSQL unique_violation. Insert-if-absent
// statements use ON CONFLICT DO NOTHING, so this only fires on conflicts with
// a constraint the statement did not name.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
