package blobstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the codec of a CompressedStore envelope.
type Compression uint8

const (
	// CompressionZSTD favors ratio; sparse filters shrink the most.
	CompressionZSTD Compression = 1
	// CompressionLZ4 favors speed.
	CompressionLZ4 Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionZSTD:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps "zstd" and "lz4" to their Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "zstd":
		return CompressionZSTD, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

const envelopeMagic = "BLZ1"

const (
	// envelopeHeaderSize is magic(4) + codec(1).
	envelopeHeaderSize = len(envelopeMagic) + 1
	// envelopeTrailerSize is the uncompressed size, uint64 little-endian.
	envelopeTrailerSize = 8
)

// maxDecoderWindow bounds the zstd window a blob may request, so a crafted
// frame header cannot make the decoder reserve a large history buffer.
const maxDecoderWindow = 32 << 20

var (
	// ErrNotCompressed is returned when a blob lacks the envelope header.
	ErrNotCompressed = errors.New("blobstore: blob is not a compressed envelope")
	// ErrCorruptEnvelope is returned when the stream decodes to fewer bytes
	// than the envelope declares.
	ErrCorruptEnvelope = errors.New("blobstore: compressed stream shorter than declared")
	// ErrUnknownCompression is returned for an unsupported codec id or name.
	ErrUnknownCompression = errors.New("blobstore: unknown compression")
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder(w io.Writer) (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		enc := v.(*zstd.Encoder)
		enc.Reset(w)
		return enc, nil
	}
	return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder(r io.Reader) (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		dec := v.(*zstd.Decoder)
		if err := dec.Reset(r); err != nil {
			return nil, err
		}
		return dec, nil
	}
	return zstd.NewReader(r,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxWindow(maxDecoderWindow),
	)
}

// CompressedStore wraps a BlobStore and stores every blob as
//
//	"BLZ1" | codec id (1 byte) | compressed stream | uncompressed size (uint64 LE)
//
// Reads decompress lazily and sequentially; rereading an earlier offset
// restarts the stream. Blobs written without the envelope are rejected with
// ErrNotCompressed.
type CompressedStore struct {
	inner       BlobStore
	compression Compression
}

// NewCompressedStore creates a CompressedStore writing with c.
func NewCompressedStore(inner BlobStore, c Compression) *CompressedStore {
	return &CompressedStore{inner: inner, compression: c}
}

// Open reads the envelope and returns a blob that decompresses on demand.
// Size reports the declared uncompressed size; a stream that ends early
// fails reads with ErrCorruptEnvelope.
func (s *CompressedStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	cb, err := openEnvelope(ctx, b)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("blobstore: open %s: %w", name, err)
	}
	return cb, nil
}

func openEnvelope(ctx context.Context, b Blob) (*compressedBlob, error) {
	if b.Size() < int64(envelopeHeaderSize+envelopeTrailerSize) {
		return nil, ErrNotCompressed
	}

	var hdr [envelopeHeaderSize]byte
	if err := readFullAt(ctx, b, hdr[:], 0); err != nil {
		return nil, err
	}
	if string(hdr[:len(envelopeMagic)]) != envelopeMagic {
		return nil, ErrNotCompressed
	}
	c := Compression(hdr[len(envelopeMagic)])
	if c != CompressionZSTD && c != CompressionLZ4 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, c)
	}

	var trailer [envelopeTrailerSize]byte
	if err := readFullAt(ctx, b, trailer[:], b.Size()-envelopeTrailerSize); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint64(trailer[:])
	if size > math.MaxInt64 {
		return nil, fmt.Errorf("%w: declared size %d", ErrNotCompressed, size)
	}

	return &compressedBlob{inner: b, compression: c, size: int64(size)}, nil
}

func readFullAt(ctx context.Context, b Blob, p []byte, off int64) error {
	n, err := b.ReadAt(ctx, p, off)
	if n == len(p) && err == io.EOF {
		err = nil
	}
	return err
}

// Create starts a compressed streaming write.
func (s *CompressedStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	w, err := s.inner.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte{envelopeMagic[0], envelopeMagic[1], envelopeMagic[2], envelopeMagic[3], byte(s.compression)}); err != nil {
		_ = w.Abort()
		return nil, err
	}

	cw := &compressedWritableBlob{inner: w}
	switch s.compression {
	case CompressionZSTD:
		enc, err := getZstdEncoder(w)
		if err != nil {
			_ = w.Abort()
			return nil, err
		}
		cw.enc = enc
		cw.release = func() { zstdEncoderPool.Put(enc) }
	case CompressionLZ4:
		cw.enc = lz4.NewWriter(w)
	default:
		_ = w.Abort()
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, s.compression)
	}
	return cw, nil
}

// Put compresses and writes data.
func (s *CompressedStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Abort()
		return err
	}
	return w.Close()
}

// Delete removes a blob.
func (s *CompressedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

// List lists blobs of the inner store.
func (s *CompressedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// compressedBlob decodes its stream forward as it is read. Only the decoder
// window is held in memory, never the whole payload.
type compressedBlob struct {
	inner       Blob
	compression Compression
	size        int64

	mu   sync.Mutex
	ctx  context.Context
	dec  io.Reader
	zdec *zstd.Decoder
	pos  int64
}

// ReadAt reads from the stream. ctx backs the inner reads issued by this
// call.
func (b *compressedBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if off < 0 {
		return 0, errors.New("blobstore: negative offset")
	}
	if off >= b.size {
		return 0, io.EOF
	}
	b.ctx = ctx

	if b.dec == nil || off < b.pos {
		if err := b.restart(); err != nil {
			return 0, err
		}
	}
	if off > b.pos {
		n, err := io.CopyN(io.Discard, b.dec, off-b.pos)
		b.pos += n
		if err != nil {
			return 0, shortStream(err)
		}
	}

	want := p
	if rem := b.size - off; int64(len(want)) > rem {
		want = want[:rem]
	}
	n, err := io.ReadFull(b.dec, want)
	b.pos += int64(n)
	if err != nil {
		return n, shortStream(err)
	}
	if len(want) < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func shortStream(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrCorruptEnvelope, io.ErrUnexpectedEOF)
	}
	return err
}

func (b *compressedBlob) restart() error {
	b.releaseDecoder()

	stream := io.NewSectionReader(innerReaderAt{b}, int64(envelopeHeaderSize),
		b.inner.Size()-int64(envelopeHeaderSize+envelopeTrailerSize))
	switch b.compression {
	case CompressionZSTD:
		dec, err := getZstdDecoder(stream)
		if err != nil {
			return err
		}
		b.zdec = dec
		b.dec = dec
	case CompressionLZ4:
		b.dec = lz4.NewReader(stream)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCompression, b.compression)
	}
	b.pos = 0
	return nil
}

func (b *compressedBlob) releaseDecoder() {
	if b.zdec != nil {
		_ = b.zdec.Reset(nil)
		zstdDecoderPool.Put(b.zdec)
		b.zdec = nil
	}
	b.dec = nil
}

// innerReaderAt reads the inner blob with the context of the current ReadAt.
type innerReaderAt struct {
	b *compressedBlob
}

func (r innerReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return r.b.inner.ReadAt(r.b.ctx, p, off)
}

func (b *compressedBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return io.NopCloser(io.NewSectionReader(ctxReaderAt{ctx: ctx, b: b}, off, length)), nil
}

func (b *compressedBlob) Size() int64 {
	return b.size
}

func (b *compressedBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseDecoder()
	return b.inner.Close()
}

type compressedWritableBlob struct {
	inner    WritableBlob
	enc      io.WriteCloser
	release  func()
	written  uint64
	finished bool
}

func (w *compressedWritableBlob) Write(p []byte) (int, error) {
	if w.finished {
		return 0, errBlobFinished
	}
	n, err := w.enc.Write(p)
	w.written += uint64(n)
	return n, err
}

// Sync flushes the inner blob; compressed frames are only complete on Close.
func (w *compressedWritableBlob) Sync() error {
	return w.inner.Sync()
}

func (w *compressedWritableBlob) Close() error {
	if w.finished {
		return errBlobFinished
	}
	w.finished = true
	if err := w.enc.Close(); err != nil {
		_ = w.inner.Abort()
		return err
	}
	w.put()

	var trailer [envelopeTrailerSize]byte
	binary.LittleEndian.PutUint64(trailer[:], w.written)
	if _, err := w.inner.Write(trailer[:]); err != nil {
		_ = w.inner.Abort()
		return err
	}
	return w.inner.Close()
}

// Abort closes the encoder so its buffers return to the pool, then discards
// the inner blob.
func (w *compressedWritableBlob) Abort() error {
	if w.finished {
		return errBlobFinished
	}
	w.finished = true
	if err := w.enc.Close(); err == nil {
		w.put()
	}
	return w.inner.Abort()
}

func (w *compressedWritableBlob) put() {
	if w.release != nil {
		w.release()
		w.release = nil
	}
}
