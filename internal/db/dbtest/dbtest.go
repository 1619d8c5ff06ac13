// Package dbtest opens the integration database for repository tests.
// Tests are skipped unless TEST_DATABASE_URL is set. Packages share one
// database, so run them with -p 1.
package dbtest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}

// Pool returns a pool against a freshly truncated schema.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set; skipping integration test")
	}

	migrateOnce.Do(func() {
		migrateURL := dsn
		for _, prefix := range []string{"postgresql://", "postgres://"} {
			if strings.HasPrefix(migrateURL, prefix) {
				migrateURL = "pgx5://" + strings.TrimPrefix(migrateURL, prefix)
				break
			}
		}
		m, err := migrate.New("file://"+migrationsDir(), migrateURL)
		if err != nil {
			migrateErr = err
			return
		}
		defer m.Close()
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			migrateErr = err
		}
	})
	require.NoError(t, migrateErr, "failed to migrate test database")

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "failed to connect to test database")

	truncate := func() {
		_, err := pool.Exec(ctx, "TRUNCATE TABLE orders, product_variations, products, site_settings")
		require.NoError(t, err, "failed to truncate tables")
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		pool.Close()
	})

	return pool
}
