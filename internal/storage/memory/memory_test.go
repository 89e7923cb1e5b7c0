package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xNORAGAMIx/udhaari/internal/storage"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "auth")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	value := []byte("token")
	require.NoError(t, s.Put(ctx, "auth", value))
	value[0] = 'X' // caller mutation must not leak in

	got, err := s.Get(ctx, "auth")
	require.NoError(t, err)
	assert.Equal(t, "token", string(got))

	require.NoError(t, s.Delete(ctx, "auth"))
	_, err = s.Get(ctx, "auth")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, "groups", []byte("[]")))
	require.NoError(t, s.Close())
	_, err = s.Get(ctx, "groups")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
