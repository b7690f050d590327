package fs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	dir := t.TempDir()
	lfs := LocalFS{}

	f, err := lfs.CreateTemp(dir, "filter.bloom.tmp-*")
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	require.NoError(t, f.Close())

	target := filepath.Join(dir, "filter.bloom")
	require.NoError(t, lfs.Rename(f.Name(), target))
	SyncDir(dir)

	r, err := lfs.Open(target)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "hello", string(data))

	require.NoError(t, lfs.Remove(target))
	_, err = lfs.Stat(target)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_ShortWrite(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.SetDefault(Fault{FailAfterBytes: 5})

	f, err := ffs.CreateTemp(dir, "short-*")
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("hel"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = f.Write([]byte("lo world"))
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 2, n)

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
}

func TestFaultyFS_Rules(t *testing.T) {
	dir := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("broken", Fault{FailOnOpen: true, FailAfterBytes: -1})
	ffs.AddRule("nosync", Fault{FailOnSync: true, FailAfterBytes: -1})

	_, err := ffs.CreateTemp(dir, "broken-*")
	assert.ErrorIs(t, err, ErrInjected)

	f, err := ffs.CreateTemp(dir, "nosync-*")
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), ErrInjected)
	assert.NoError(t, f.Close())

	ok, err := ffs.CreateTemp(dir, "fine-*")
	require.NoError(t, err)
	assert.NoError(t, ok.Sync())
	assert.NoError(t, ok.Close())
}
