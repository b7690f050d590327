package bloomdb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/bloomdb/internal/bitarray"
	"github.com/hupe1980/bloomdb/internal/hash"
)

// Serialized layout, all integers little-endian:
//
//	offset  size       field
//	0       8          bitCount   uint64
//	8       8          byteCount  uint64
//	16      4          numHashes  int32
//	20      8          seed       uint64
//	28      byteCount  bit buffer
//	...     4          CRC32C of everything before it (WithChecksum only)
//
// There is no magic number or version; integrity rests on
// byteCount == ceil(bitCount/8) unless the checksum trailer is used.
const (
	HeaderSize  = 28
	TrailerSize = 4
)

type header struct {
	bitCount  uint64
	byteCount uint64
	numHashes int32
	seed      uint64
}

func (h header) marshal() [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], h.bitCount)
	binary.LittleEndian.PutUint64(buf[8:16], h.byteCount)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(h.numHashes))
	binary.LittleEndian.PutUint64(buf[20:28], h.seed)
	return buf
}

func unmarshalHeader(buf []byte) header {
	return header{
		bitCount:  binary.LittleEndian.Uint64(buf[0:8]),
		byteCount: binary.LittleEndian.Uint64(buf[8:16]),
		numHashes: int32(binary.LittleEndian.Uint32(buf[16:20])),
		seed:      binary.LittleEndian.Uint64(buf[20:28]),
	}
}

func (h header) validate(op string) error {
	if h.bitCount == 0 {
		return formatError(op, "bit count is zero")
	}
	if h.numHashes <= 0 {
		return formatError(op, "hash count %d is not positive", h.numHashes)
	}
	if want := bitarray.BytesFor(h.bitCount); h.byteCount != want {
		return formatError(op, "byte count %d does not match %d bits (want %d)", h.byteCount, h.bitCount, want)
	}
	return nil
}

// encodedSize returns the number of bytes Encode writes for h.
func (h header) encodedSize(checksum bool) uint64 {
	n := HeaderSize + h.byteCount
	if checksum {
		n += TrailerSize
	}
	return n
}

func (f *Filter) header() header {
	return header{
		bitCount:  f.bitCount,
		byteCount: f.byteCount,
		numHashes: int32(f.numHashes),
		seed:      f.seed,
	}
}

// EncodedSize returns the number of bytes the filter serializes to, or 0 for
// a nil or closed filter.
func (f *Filter) EncodedSize(optFns ...Option) int64 {
	if !f.valid() {
		return 0
	}
	return int64(f.header().encodedSize(applyOptions(optFns).checksum))
}

// WriteTo implements io.WriterTo. It writes the filter without a checksum
// trailer.
func (f *Filter) WriteTo(w io.Writer) (int64, error) {
	if !f.valid() {
		return 0, invalidArgument("write", "nil or closed filter")
	}
	return f.encode("write", w, false)
}

// Encode writes f to w.
func Encode(w io.Writer, f *Filter, optFns ...Option) error {
	if !f.valid() {
		return invalidArgument("encode", "nil or closed filter")
	}
	_, err := f.encode("encode", w, applyOptions(optFns).checksum)
	return err
}

func (f *Filter) encode(op string, w io.Writer, checksum bool) (int64, error) {
	hdr := f.header().marshal()

	var written int64
	write := func(p []byte) error {
		n, err := w.Write(p)
		written += int64(n)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return ioError(op, err)
		}
		return nil
	}

	if err := write(hdr[:]); err != nil {
		return written, err
	}
	if err := write(f.bits); err != nil {
		return written, err
	}
	if checksum {
		crc := hash.NewCRC32C()
		_, _ = crc.Write(hdr[:])
		_, _ = crc.Write(f.bits)
		var trailer [TrailerSize]byte
		binary.LittleEndian.PutUint32(trailer[:], crc.Sum32())
		if err := write(trailer[:]); err != nil {
			return written, err
		}
	}
	return written, nil
}

// Decode reads a filter from r. Bytes after the body (or after the trailer
// with WithChecksum) are not consumed.
func Decode(r io.Reader, optFns ...Option) (*Filter, error) {
	const op = "decode"
	opts := applyOptions(optFns)

	h, err := readHeader(op, r)
	if err != nil {
		return nil, err
	}
	return decodeBody(op, r, h, opts, false)
}

func readHeader(op string, r io.Reader) (header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if isTruncated(err) {
			return header{}, formatError(op, "truncated header")
		}
		return header{}, ioError(op, err)
	}
	h := unmarshalHeader(buf[:])
	if err := h.validate(op); err != nil {
		return header{}, err
	}
	return h, nil
}

// decodeChunkSize bounds each allocation step while reading a body whose
// length is only declared by the header.
const decodeChunkSize = 1 << 20

// decodeBody reads the body declared by h. With sized set, the caller has
// already checked the source holds the whole body and the buffer is
// allocated up front; otherwise it grows in decodeChunkSize steps so a short
// stream fails before a large allocation.
func decodeBody(op string, r io.Reader, h header, opts options, sized bool) (*Filter, error) {
	var (
		f   *Filter
		err error
	)
	if sized {
		f, err = newFilter(op, h.bitCount, int(h.numHashes), h.seed, opts)
		if err != nil {
			return nil, err
		}
		_, err = io.ReadFull(r, f.bits)
	} else {
		f, err = readChunked(op, r, h, opts)
		if err != nil && f == nil {
			return nil, err
		}
	}
	if err != nil {
		_ = f.Close()
		if isTruncated(err) {
			return nil, formatError(op, "truncated body: want %d bytes: %w", h.byteCount, err)
		}
		return nil, ioError(op, err)
	}

	if opts.checksum {
		if err := verifyTrailer(op, r, h, f.bits); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

// readChunked reserves the body's memory and reads it in bounded steps. A
// read error is returned together with the partially filled filter so the
// caller can release it.
func readChunked(op string, r io.Reader, h header, opts options) (*Filter, error) {
	n, err := reserve(op, h.byteCount, opts.controller)
	if err != nil {
		return nil, err
	}
	f := &Filter{
		bitCount:  h.bitCount,
		byteCount: h.byteCount,
		numHashes: int(h.numHashes),
		seed:      h.seed,
		bits:      make([]byte, 0, min(n, decodeChunkSize)),
		rc:        opts.controller,
	}
	for len(f.bits) < n {
		chunk := min(n-len(f.bits), decodeChunkSize)
		f.bits = slices.Grow(f.bits, chunk)
		m, err := io.ReadFull(r, f.bits[len(f.bits):len(f.bits)+chunk])
		f.bits = f.bits[:len(f.bits)+m]
		if err != nil {
			return f, err
		}
	}
	return f, nil
}

var errChecksumMismatch = errors.New("checksum mismatch")

func verifyTrailer(op string, r io.Reader, h header, body []byte) error {
	var trailer [TrailerSize]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		if isTruncated(err) {
			return formatError(op, "missing checksum trailer")
		}
		return ioError(op, err)
	}

	hdr := h.marshal()
	crc := hash.NewCRC32C()
	_, _ = crc.Write(hdr[:])
	_, _ = crc.Write(body)

	want := binary.LittleEndian.Uint32(trailer[:])
	if got := crc.Sum32(); got != want {
		return newError(op, KindFormat, fmt.Errorf("%w: stored %08x, computed %08x", errChecksumMismatch, want, got))
	}
	return nil
}

func isTruncated(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
