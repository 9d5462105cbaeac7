package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUploadStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalUploadStore(dir)
	require.NoError(t, err)
	ctx := t.Context()

	key, err := store.Save(ctx, "Products Export.CSV", strings.NewReader("Handle,Title\nshirt,Shirt\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".csv"))
	assert.FileExists(t, filepath.Join(dir, key))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "Handle,Title\nshirt,Shirt\n", string(data))

	require.NoError(t, store.Delete(ctx, key))
	assert.NoFileExists(t, filepath.Join(dir, key))
	require.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")

	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalUploadStore_RejectsForeignKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalUploadStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o600))

	for _, key := range []string{"", ".", "..", "../secret.txt", "a/b.csv", `a\b.csv`} {
		_, err := store.Open(t.Context(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		assert.ErrorIs(t, store.Delete(t.Context(), key), ErrInvalidKey, key)
	}
	assert.FileExists(t, filepath.Join(dir, "secret.txt"))
}

func TestLocalUploadStore_SaveHonoursCancellation(t *testing.T) {
	store, err := NewLocalUploadStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = store.Save(ctx, "a.csv", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
