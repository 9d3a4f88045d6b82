package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"artprint-backend/internal/database"
)

// SetupTestDB opens a fresh SQLite database in a temp dir with the full
// schema applied. The database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).Run(context.Background()), "migrate test database")
	return db
}

// SetupDatabaseClient returns a DatabaseClient over a fresh test database.
func SetupDatabaseClient(t *testing.T) *database.DatabaseClient {
	t.Helper()
	return database.NewDatabaseClient(SetupTestDB(t))
}
