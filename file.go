package bloomdb

import (
	"bufio"
	"path/filepath"

	"github.com/hupe1980/bloomdb/internal/fs"
)

const writeBufferSize = 256 * 1024

// SaveFile writes f to path.
//
// The filter is written to a temp file in the same directory, synced and
// renamed over path, so readers never observe a partial file. Failures to
// create, write, sync or rename return ErrIO and leave path untouched.
func SaveFile(f *Filter, path string, optFns ...Option) error {
	const op = "save"
	if !f.valid() {
		return invalidArgument(op, "nil or closed filter")
	}
	if path == "" {
		return invalidArgument(op, "empty path")
	}
	opts := applyOptions(optFns)

	dir := filepath.Dir(path)
	tmp, err := opts.fs.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return ioError(op, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = opts.fs.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriterSize(tmp, writeBufferSize)
	if _, err := f.encode(op, buf, opts.checksum); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return ioError(op, err)
	}
	if err := tmp.Sync(); err != nil {
		return ioError(op, err)
	}

	committed = true
	if err := tmp.Close(); err != nil {
		_ = opts.fs.Remove(tmpName)
		return ioError(op, err)
	}
	if err := opts.fs.Rename(tmpName, path); err != nil {
		_ = opts.fs.Remove(tmpName)
		return ioError(op, err)
	}
	fs.SyncDir(dir)
	return nil
}

// LoadFile reads a filter from path.
//
// A missing or unreadable file returns ErrIO. A file shorter than its header
// declares returns ErrFormat before the bit buffer is allocated.
func LoadFile(path string, optFns ...Option) (*Filter, error) {
	const op = "load"
	if path == "" {
		return nil, invalidArgument(op, "empty path")
	}
	opts := applyOptions(optFns)

	file, err := opts.fs.Open(path)
	if err != nil {
		return nil, ioError(op, err)
	}
	defer func() { _ = file.Close() }()

	st, err := file.Stat()
	if err != nil {
		return nil, ioError(op, err)
	}

	h, err := readHeader(op, file)
	if err != nil {
		return nil, err
	}
	if want := h.encodedSize(opts.checksum); st.Size() < 0 || uint64(st.Size()) < want {
		return nil, formatError(op, "file is %d bytes, header declares %d", st.Size(), want)
	}
	return decodeBody(op, file, h, opts, true)
}

// Save is the simple form of SaveFile.
func Save(f *Filter, path string) bool {
	return SaveFile(f, path) == nil
}

// Load is the simple form of LoadFile. It returns nil on any failure.
func Load(path string) *Filter {
	f, err := LoadFile(path)
	if err != nil {
		return nil
	}
	return f
}
