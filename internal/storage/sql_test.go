package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestSQLite(t *testing.T) *SQLStore {
	store, err := NewSQLStore(DriverSQLite, filepath.Join(t.TempDir(), "storefront.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.RunMigrations())
	return store
}

func setupTestPostgres(t *testing.T) (*SQLStore, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewSQLStore(DriverPostgres, dsn)
	require.NoError(t, err)
	require.NoError(t, store.RunMigrations())

	cleanup := func() {
		store.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return store, cleanup
}

// sqlCases run against every SQL dialect. Each case uses its own keys so a
// shared database is fine.
var sqlCases = []struct {
	name string
	run  func(t *testing.T, store *SQLStore)
}{
	{
		name: "migrations twice",
		run: func(t *testing.T, store *SQLStore) {
			assert.NoError(t, store.RunMigrations(), "second run has no change and must not fail")
		},
	},
	{
		name: "get not found",
		run: func(t *testing.T, store *SQLStore) {
			data, err := store.Get(context.Background(), "cart:none")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Nil(t, data)
		},
	},
	{
		name: "set get overwrite",
		run: func(t *testing.T, store *SQLStore) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "cart:p1", []byte(`[{"productId":"1","quantity":1}]`)))
			require.NoError(t, store.Set(ctx, "cart:p1", []byte(`[{"productId":"1","quantity":4}]`)))

			data, err := store.Get(ctx, "cart:p1")
			require.NoError(t, err)
			assert.JSONEq(t, `[{"productId":"1","quantity":4}]`, string(data))
		},
	},
	{
		name: "keeps unicode",
		run: func(t *testing.T, store *SQLStore) {
			ctx := context.Background()

			payload := `[{"productId":"1","price":"₹40 / 10 उपले","quantity":2}]`
			require.NoError(t, store.Set(ctx, "cart:p2", []byte(payload)))

			data, err := store.Get(ctx, "cart:p2")
			require.NoError(t, err)
			assert.Equal(t, payload, string(data))
		},
	},
	{
		name: "delete",
		run: func(t *testing.T, store *SQLStore) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "wishlist:p1", []byte(`["1"]`)))
			require.NoError(t, store.Delete(ctx, "wishlist:p1"))
			require.NoError(t, store.Delete(ctx, "wishlist:p1"), "deleting a missing key is not an error")

			_, err := store.Get(ctx, "wishlist:p1")
			assert.ErrorIs(t, err, ErrNotFound)
		},
	},
	{
		name: "json helpers",
		run: func(t *testing.T, store *SQLStore) {
			ctx := context.Background()

			require.NoError(t, SaveJSON(ctx, store, "order:o1", map[string]float64{"total": 630}))
			var got map[string]float64
			require.NoError(t, LoadJSON(ctx, store, "order:o1", &got))
			assert.Equal(t, 630.0, got["total"])
		},
	},
}

func TestSQLStore_SQLite(t *testing.T) {
	for _, tc := range sqlCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.run(t, setupTestSQLite(t))
		})
	}
}

func TestSQLStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Postgres container test in short mode")
	}

	store, cleanup := setupTestPostgres(t)
	defer cleanup()

	for _, tc := range sqlCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.run(t, store)
		})
	}
}

func TestSQLStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	first, err := NewSQLStore(DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, first.RunMigrations())
	require.NoError(t, first.Set(ctx, "cart:p3", []byte(`[]`)))
	require.NoError(t, first.Close())

	second, err := NewSQLStore(DriverSQLite, path)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.RunMigrations())

	data, err := second.Get(ctx, "cart:p3")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestNewSQLStore_UnsupportedDriver(t *testing.T) {
	_, err := NewSQLStore("mysql", "whatever")
	assert.ErrorContains(t, err, "unsupported sql driver")
}
