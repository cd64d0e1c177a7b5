package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestMongo(t *testing.T) (*MongoStore, func()) {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	store := NewMongoStore(db)
	require.NoError(t, store.CreateIndexes(ctx))

	cleanup := func() {
		store.Close()
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return store, cleanup
}

func TestMongoStore_RoundTrip(t *testing.T) {
	store, cleanup := setupTestMongo(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Get(ctx, "cart:user123")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "cart:user123", []byte(`[{"productId":"1","quantity":3}]`)))
	require.NoError(t, store.Set(ctx, "cart:user123", []byte(`[{"productId":"1","quantity":5}]`)))

	data, err := store.Get(ctx, "cart:user123")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"1","quantity":5}]`, string(data))

	require.NoError(t, store.Delete(ctx, "cart:user123"))
	_, err = store.Get(ctx, "cart:user123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoStore_CreateIndexesIdempotent(t *testing.T) {
	store, cleanup := setupTestMongo(t)
	defer cleanup()

	assert.NoError(t, store.CreateIndexes(context.Background()))
}
