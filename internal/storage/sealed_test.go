package storage_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xNORAGAMIx/udhaari/internal/storage"
	"github.com/xNORAGAMIx/udhaari/internal/storage/memory"
)

var secret = bytes.Repeat([]byte{0x42}, 32)

func TestSealedRoundTrip(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	s, err := storage.NewSealed(inner, secret)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "auth", []byte(`{"token":"abc"}`)))

	raw, err := inner.Get(ctx, "auth")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "abc", "value must not be stored in clear")

	got, err := s.Get(ctx, "auth")
	require.NoError(t, err)
	assert.Equal(t, `{"token":"abc"}`, string(got))

	require.NoError(t, s.Delete(ctx, "auth"))
	_, err = s.Get(ctx, "auth")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSealedRejectsWrongKeyAndSwappedValues(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	s, err := storage.NewSealed(inner, secret)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "auth", []byte("payload")))

	other, err := storage.NewSealed(inner, bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)
	_, err = other.Get(ctx, "auth")
	assert.ErrorIs(t, err, storage.ErrSealBroken)

	raw, err := inner.Get(ctx, "auth")
	require.NoError(t, err)
	require.NoError(t, inner.Put(ctx, "groups", raw))
	_, err = s.Get(ctx, "groups")
	assert.ErrorIs(t, err, storage.ErrSealBroken)

	require.NoError(t, inner.Put(ctx, "short", []byte("x")))
	_, err = s.Get(ctx, "short")
	assert.ErrorIs(t, err, storage.ErrSealBroken)
}

func TestNewSealedRejectsShortSecret(t *testing.T) {
	_, err := storage.NewSealed(memory.New(), []byte("short"))
	assert.Error(t, err)
}

func TestLoadOrCreateSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "state.key")

	first, err := storage.LoadOrCreateSecret(path)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := storage.LoadOrCreateSecret(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseSecret(t *testing.T) {
	_, err := storage.ParseSecret("not-hex")
	assert.Error(t, err)
	_, err = storage.ParseSecret("abcd")
	assert.Error(t, err)
	got, err := storage.ParseSecret("00112233445566778899aabbccddeeff\n")
	require.NoError(t, err)
	assert.Len(t, got, 16)
}
