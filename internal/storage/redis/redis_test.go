package redis

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xNORAGAMIx/udhaari/internal/storage"
)

// Runs only against a live server: REDIS_ADDR=localhost:6379 go test ./...
func TestStoreAgainstRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	s, err := New(ctx, Options{Addr: addr, DB: 15})
	require.NoError(t, err)
	defer s.Close()

	key := "test:" + t.Name()
	defer s.Delete(ctx, key)

	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, key, []byte("sealed-bytes")))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "sealed-bytes", string(got))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNewFailsWithoutServer(t *testing.T) {
	_, err := New(context.Background(), Options{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
