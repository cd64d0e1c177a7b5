package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "cart:p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	value := []byte(`["1"]`)
	require.NoError(t, s.Set(ctx, "wishlist:p1", value))
	value[2] = '9'

	got, err := s.Get(ctx, "wishlist:p1")
	require.NoError(t, err)
	assert.Equal(t, `["1"]`, string(got))

	got[2] = '7'
	again, err := s.Get(ctx, "wishlist:p1")
	require.NoError(t, err)
	assert.Equal(t, `["1"]`, string(again))
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "cart:p1", []byte(`[]`)))
	require.NoError(t, s.Delete(ctx, "cart:p1"))
	require.NoError(t, s.Delete(ctx, "cart:p1"))

	_, err := s.Get(ctx, "cart:p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("cart:p%d", i%5)
			_ = s.Set(ctx, key, []byte(fmt.Sprintf("[%d]", i)))
			_, _ = s.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		_, err := s.Get(ctx, fmt.Sprintf("cart:p%d", i))
		assert.NoError(t, err)
	}
}
