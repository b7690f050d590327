package bloomdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/bloomdb/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.bloom")
	keys := []string{"un", "deux", "trois", "quatre"}

	f, err := New(10_000, 4, 99)
	require.NoError(t, err)
	defer f.Close()
	for _, k := range keys {
		require.NoError(t, f.InsertString(k))
	}

	require.NoError(t, SaveFile(f, path))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, f.EncodedSize(), st.Size())

	g, err := LoadFile(path)
	require.NoError(t, err)
	defer g.Close()

	assert.Equal(t, f.BitCount(), g.BitCount())
	assert.Equal(t, f.ByteCount(), g.ByteCount())
	assert.Equal(t, f.NumHashes(), g.NumHashes())
	assert.Equal(t, f.Seed(), g.Seed())
	assert.Equal(t, f.Bytes(), g.Bytes())
	for _, k := range keys {
		assert.True(t, g.HasString(k))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be gone")
}

func TestSaveLoadSimple(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.bloom")

	f := Create(10_000, 5, 12345)
	require.NotNil(t, f)
	defer f.Close()
	require.True(t, f.AddString("hola"))
	require.True(t, f.AddString("mundo"))

	require.True(t, Save(f, path))

	g := Load(path)
	require.NotNil(t, g)
	defer g.Close()
	assert.True(t, g.HasString("hola"))
	assert.True(t, g.HasString("mundo"))
	assert.False(t, g.HasString("otro"))

	assert.False(t, Save(nil, path))
	assert.Nil(t, Load(filepath.Join(t.TempDir(), "missing.bloom")))
}

func TestSaveFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bloom")

	a := Create(64, 1, 0)
	defer a.Close()
	require.NoError(t, SaveFile(a, path))

	b := Create(128, 2, 1)
	defer b.Close()
	require.True(t, b.AddString("x"))
	require.NoError(t, SaveFile(b, path))

	g, err := LoadFile(path)
	require.NoError(t, err)
	defer g.Close()
	assert.Equal(t, uint64(128), g.BitCount())
	assert.True(t, g.HasString("x"))
}

func TestSaveFileInvalid(t *testing.T) {
	f := Create(64, 1, 0)
	defer f.Close()

	assert.ErrorIs(t, SaveFile(nil, "x.bloom"), ErrInvalidArgument)
	assert.ErrorIs(t, SaveFile(f, ""), ErrInvalidArgument)

	err := SaveFile(f, filepath.Join(t.TempDir(), "no", "such", "dir", "f.bloom"))
	assert.ErrorIs(t, err, ErrIO)
}

func TestSaveFileFaults(t *testing.T) {
	f := Create(80_000, 3, 1)
	defer f.Close()
	require.True(t, f.AddString("k"))

	for _, tc := range []struct {
		name  string
		fault fs.Fault
	}{
		{"OpenFails", fs.Fault{FailOnOpen: true, FailAfterBytes: -1}},
		{"ShortWriteInHeader", fs.Fault{FailAfterBytes: 10}},
		{"ShortWriteInBody", fs.Fault{FailAfterBytes: HeaderSize + 100}},
		{"SyncFails", fs.Fault{FailOnSync: true, FailAfterBytes: -1}},
		{"CloseFails", fs.Fault{FailOnClose: true, FailAfterBytes: -1}},
		{"RenameFails", fs.Fault{FailOnRename: true, FailAfterBytes: -1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "f.bloom")

			faulty := fs.NewFaultyFS(nil)
			faulty.AddRule("f.bloom", tc.fault)

			err := SaveFile(f, path, withFileSystem(faulty))
			require.ErrorIs(t, err, ErrIO)
			assert.ErrorIs(t, err, fs.ErrInjected)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "no partial or temp file may remain")
		})
	}
}

func TestSaveFileFaultKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.bloom")

	old := Create(64, 1, 0)
	defer old.Close()
	require.True(t, old.AddString("old"))
	require.NoError(t, SaveFile(old, path))

	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("f.bloom", fs.Fault{FailAfterBytes: HeaderSize})

	replacement := Create(64, 1, 0)
	defer replacement.Close()
	require.ErrorIs(t, SaveFile(replacement, path, withFileSystem(faulty)), ErrIO)

	g, err := LoadFile(path)
	require.NoError(t, err)
	defer g.Close()
	assert.True(t, g.HasString("old"))
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0o644))
		return p
	}
	raw := func(bitCount, byteCount uint64, numHashes int32, body []byte) []byte {
		r := encodeRaw(bitCount, byteCount, numHashes, 0, body)
		b := make([]byte, r.Len())
		_, _ = r.Read(b)
		return b
	}

	for _, tc := range []struct {
		name string
		path string
		want error
	}{
		{"EmptyPath", "", ErrInvalidArgument},
		{"Missing", filepath.Join(dir, "missing.bloom"), ErrIO},
		{"Directory", dir, ErrIO},
		{"Empty", write("empty", nil), ErrFormat},
		{"TruncatedHeader", write("hdr", make([]byte, 20)), ErrFormat},
		{"ZeroBitCount", write("zero", raw(0, 0, 1, nil)), ErrFormat},
		{"ByteCountMismatch", write("mismatch", raw(64, 9, 1, make([]byte, 9))), ErrFormat},
		{"TruncatedBody", write("body", raw(64, 8, 1, make([]byte, 4))), ErrFormat},
		{"HugeDeclaredBody", write("huge", raw(1<<62, 1<<59, 1, nil)), ErrFormat},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f, err := LoadFile(tc.path)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadFileChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.bloom")

	f := Create(512, 3, 3)
	defer f.Close()
	require.True(t, f.AddString("k"))

	require.NoError(t, SaveFile(f, path))
	_, err := LoadFile(path, WithChecksum())
	assert.ErrorIs(t, err, ErrFormat, "file without trailer")

	require.NoError(t, SaveFile(f, path, WithChecksum()))
	g, err := LoadFile(path, WithChecksum())
	require.NoError(t, err)
	defer g.Close()
	assert.True(t, g.HasString("k"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[HeaderSize] ^= 0x80
	require.NoError(t, os.WriteFile(path, data, 0o644))
	_, err = LoadFile(path, WithChecksum())
	assert.ErrorIs(t, err, ErrFormat)
}
