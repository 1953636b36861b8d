package storage

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	payload := []byte("\x89PNG\r\n\x1a\nrest")
	require.NoError(t, store.Put(ctx, "Ab3dE9kQ.png", bytes.NewReader(payload), int64(len(payload)), "image/png"))

	rc, size, err := store.Open(ctx, "Ab3dE9kQ.png")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, payload, got)
	assert.Equal(t, int64(len(payload)), size)

	require.NoError(t, store.Delete(ctx, "Ab3dE9kQ.png"))
	_, _, err = store.Open(ctx, "Ab3dE9kQ.png")
	assert.ErrorIs(t, err, ErrBlobNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "Ab3dE9kQ.png"), ErrBlobNotFound)
}

func TestLocalStoreRefusesOverwrite(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "dup.gif", bytes.NewReader([]byte("one")), 3, "image/gif"))
	err = store.Put(ctx, "dup.gif", bytes.NewReader([]byte("two")), 3, "image/gif")
	assert.ErrorIs(t, err, ErrBlobExists)

	rc, _, err := store.Open(ctx, "dup.gif")
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "one", string(got))
}

func TestLocalStoreShortWriteRemovesFile(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	err = store.Put(ctx, "short.png", bytes.NewReader([]byte("abc")), 10, "image/png")
	require.Error(t, err)

	_, _, err = store.Open(ctx, "short.png")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "a/b.png", `a\b.png`, ".."} {
		err := store.Put(ctx, key, bytes.NewReader(nil), 0, "image/png")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
