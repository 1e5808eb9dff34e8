// Package testutil provides database fixtures for tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.cscs.ch/openchami/chamicore-sandwich/internal/dbutil"
)

// NewTestSQLite returns a migrated SQLite database in a temporary directory.
// The database is closed when the test finishes.
func NewTestSQLite(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "sandwich.db")

	_, err := dbutil.RunMigrations(ctx, dbutil.DriverSQLite, dsn)
	require.NoError(t, err)

	db, err := dbutil.Connect(ctx, dbutil.PoolConfig{Driver: dbutil.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}
