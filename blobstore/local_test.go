package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	name := "filters/users.bloom"
	data := []byte("hello world, this is a test blob")

	w, err := store.Create(ctx, name)
	require.NoError(t, err)
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(tmpDir, "filters", "users.bloom"))
	require.NoError(t, err)

	blob, err := store.Open(ctx, name)
	require.NoError(t, err)
	defer blob.Close()
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf[:n]))

	rc, err := blob.ReadRange(ctx, 0, 5)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(got))

	all, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, data, all)

	names, err := store.List(ctx, "filters/")
	require.NoError(t, err)
	assert.Equal(t, []string{"filters/users.bloom"}, names)

	require.NoError(t, store.Delete(ctx, name))
	_, err = store.Open(ctx, name)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting twice is fine.
	require.NoError(t, store.Delete(ctx, name))
}

func TestLocalStore_AbortLeavesNoTrace(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.bloom", []byte("original")))

	w, err := store.Create(ctx, "a.bloom")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())
	assert.Error(t, w.Close())

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	b, err := store.Open(ctx, "a.bloom")
	require.NoError(t, err)
	defer b.Close()
	got, err := ReadAll(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
}

func TestLocalStore_ListSkipsInFlightWrites(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "b.bloom", []byte("b")))
	require.NoError(t, store.Put(ctx, "a.bloom", []byte("a")))

	w, err := store.Create(ctx, "c.bloom")
	require.NoError(t, err)
	defer func() { _ = w.Abort() }()

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.bloom", "b.bloom"}, names)
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_RejectsEscapingNames(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	store := NewLocalStore(filepath.Join(parent, "root"))

	for _, name := range []string{"../escaped.bloom", "a/../../escaped.bloom", "/etc/escaped.bloom", ""} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, store.Put(ctx, name, []byte("x")), ErrInvalidName)
			_, err := store.Create(ctx, name)
			assert.ErrorIs(t, err, ErrInvalidName)
			_, err = store.Open(ctx, name)
			assert.ErrorIs(t, err, ErrInvalidName)
			assert.ErrorIs(t, store.Delete(ctx, name), ErrInvalidName)
		})
	}

	_, err := os.Stat(filepath.Join(parent, "escaped.bloom"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, store.Put(ctx, "a/../inside.bloom", []byte("x")))
	_, err = os.Stat(filepath.Join(parent, "root", "inside.bloom"))
	assert.NoError(t, err)
}

func TestLocalStore_EmptyBlob(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "empty", nil))
	b, err := store.Open(ctx, "empty")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, int64(0), b.Size())

	got, err := ReadAll(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, got)
}
