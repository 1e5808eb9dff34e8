//go:build integration

package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"git.cscs.ch/openchami/chamicore-sandwich/internal/dbutil"
)

// NewTestPostgres starts a PostgreSQL container, applies migrations and
// returns a connected pool. The container is removed when the test finishes.
func NewTestPostgres(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("sandwich"),
		tcpostgres.WithUsername("sandwich"),
		tcpostgres.WithPassword("sandwich"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	_, err = dbutil.RunMigrations(ctx, dbutil.DriverPostgres, dsn)
	require.NoError(t, err)

	db, err := dbutil.Connect(ctx, dbutil.PoolConfig{Driver: dbutil.DriverPostgres, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}
