package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ecommerce-price-tracker/internal/domain"
)

// setupTestDB starts a PostgreSQL container with the schema applied.
// The container and pool are released when the test ends.
func setupTestDB(t *testing.T) *Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("prices"),
		postgres.WithUsername("tracker"),
		postgres.WithPassword("tracker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")
	t.Cleanup(pool.Close)

	applySchema(t, ctx, pool)
	return pool
}

// applySchema executes the migration files directly; the migrations package
// cannot be imported here because it depends on this one.
func applySchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	files, err := filepath.Glob(filepath.Join(schemaDir(t), "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "no postgres migrations found")
	sort.Strings(files)

	for _, file := range files {
		sql, err := os.ReadFile(file)
		require.NoError(t, err, "failed to read migration %s", file)

		_, err = pool.Exec(ctx, string(sql))
		require.NoError(t, err, "failed to apply migration %s", filepath.Base(file))
	}
}

// schemaDir locates the postgres migrations relative to this source file.
func schemaDir(t *testing.T) string {
	t.Helper()

	_, self, _, ok := runtime.Caller(0)
	require.True(t, ok, "cannot resolve test file location")
	return filepath.Join(filepath.Dir(self), "..", "migrations", "postgres")
}

// seedProduct inserts a product for snapshot tests.
func seedProduct(t *testing.T, ctx context.Context, pool *Pool, externalID int64, basePrice float64) *domain.Product {
	t.Helper()

	p := &domain.Product{ExternalID: externalID, Title: "item", BasePrice: basePrice, Rating: 4}
	require.NoError(t, NewProductStore(pool).Insert(ctx, p))
	return p
}

func ptr[T any](v T) *T {
	return &v
}
