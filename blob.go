package bloomdb

import (
	"bufio"
	"context"

	"github.com/hupe1980/bloomdb/blobstore"
	"github.com/hupe1980/bloomdb/resource"
)

// SaveBlob writes f to store under name in the same format as SaveFile.
// A failed write aborts the blob, so an existing blob of that name is kept.
// With WithResourceController, written bytes are charged to the IO limit.
func SaveBlob(ctx context.Context, store blobstore.BlobStore, name string, f *Filter, optFns ...Option) error {
	const op = "save blob"
	if !f.valid() {
		return invalidArgument(op, "nil or closed filter")
	}
	if store == nil || name == "" {
		return invalidArgument(op, "nil store or empty name")
	}
	opts := applyOptions(optFns)

	w, err := store.Create(ctx, name)
	if err != nil {
		return ioError(op, err)
	}

	buf := bufio.NewWriterSize(resource.NewRateLimitedWriter(ctx, w, opts.controller), writeBufferSize)
	if _, err := f.encode(op, buf, opts.checksum); err != nil {
		_ = w.Abort()
		return err
	}
	if err := buf.Flush(); err != nil {
		_ = w.Abort()
		return ioError(op, err)
	}
	if err := w.Close(); err != nil {
		return ioError(op, err)
	}
	return nil
}

// LoadBlob reads the filter stored under name. A missing blob returns an
// ErrIO error that also matches blobstore.ErrNotFound.
func LoadBlob(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Filter, error) {
	const op = "load blob"
	if store == nil || name == "" {
		return nil, invalidArgument(op, "nil store or empty name")
	}
	opts := applyOptions(optFns)

	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, ioError(op, err)
	}
	defer func() { _ = b.Close() }()

	r := resource.NewRateLimitedReader(ctx, blobstore.NewReader(ctx, b), opts.controller)
	h, err := readHeader(op, r)
	if err != nil {
		return nil, err
	}
	if want := h.encodedSize(opts.checksum); b.Size() < 0 || uint64(b.Size()) < want {
		return nil, formatError(op, "blob is %d bytes, header declares %d", b.Size(), want)
	}
	// Size may be declared by a wrapping store rather than measured.
	return decodeBody(op, r, h, opts, false)
}
