package bloomdb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/hupe1980/bloomdb/internal/hash"
	"github.com/hupe1980/bloomdb/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeRaw builds a serialized filter without validation.
func encodeRaw(bitCount, byteCount uint64, numHashes int32, seed uint64, body []byte) *bytes.Reader {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, bitCount)
	_ = binary.Write(&buf, binary.LittleEndian, byteCount)
	_ = binary.Write(&buf, binary.LittleEndian, numHashes)
	_ = binary.Write(&buf, binary.LittleEndian, seed)
	buf.Write(body)
	return bytes.NewReader(buf.Bytes())
}

func TestEncodeLayout(t *testing.T) {
	f, err := New(64, 3, 7)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.InsertString("hola"))

	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(HeaderSize+8), n)
	assert.Equal(t, n, f.EncodedSize())

	want := []byte{
		64, 0, 0, 0, 0, 0, 0, 0, // bitCount
		8, 0, 0, 0, 0, 0, 0, 0, // byteCount
		3, 0, 0, 0, // numHashes
		7, 0, 0, 0, 0, 0, 0, 0, // seed
		0x44, 0, 0, 0x10, 0, 0, 0, 0, // bits 2, 6, 28
	}
	assert.Equal(t, want, buf.Bytes())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	keys := []string{"alpha", "beta", "gamma", "delta"}

	f, err := New(4096, 6, 0xdeadbeef)
	require.NoError(t, err)
	defer f.Close()
	for _, k := range keys {
		require.NoError(t, f.InsertString(k))
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f))

	g, err := Decode(&buf)
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
	for _, k := range absentEmails {
		assert.Equal(t, f.HasString(k), g.HasString(k))
	}
}

func TestDecodeRejects(t *testing.T) {
	for _, tc := range []struct {
		name string
		r    io.Reader
	}{
		{"Empty", bytes.NewReader(nil)},
		{"TruncatedHeader", bytes.NewReader(make([]byte, HeaderSize-1))},
		{"ZeroBitCount", encodeRaw(0, 0, 3, 0, nil)},
		{"ZeroHashes", encodeRaw(16, 2, 0, 0, make([]byte, 2))},
		{"NegativeHashes", encodeRaw(16, 2, -1, 0, make([]byte, 2))},
		{"ByteCountTooLarge", encodeRaw(16, 3, 1, 0, make([]byte, 3))},
		{"ByteCountTooSmall", encodeRaw(17, 2, 1, 0, make([]byte, 2))},
		{"TruncatedBody", encodeRaw(64, 8, 1, 0, make([]byte, 7))},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f, err := Decode(tc.r)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, ErrFormat)
			assert.Equal(t, KindFormat, KindOf(err))
		})
	}
}

func TestDecodeTruncatedBodyReleasesMemory(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})

	_, err := Decode(encodeRaw(8000, 1000, 2, 0, make([]byte, 10)), WithResourceController(rc))
	require.ErrorIs(t, err, ErrFormat)
	assert.Zero(t, rc.MemoryUsage())
}

func TestDecodeHugeHeader(t *testing.T) {
	t.Run("BeyondLimit", func(t *testing.T) {
		var (
			f   *Filter
			err error
		)
		require.NotPanics(t, func() {
			f, err = Decode(encodeRaw(math.MaxUint64, 1<<61, 1, 0, nil))
		})
		assert.Nil(t, f)
		assert.ErrorIs(t, err, ErrAllocation)
	})

	t.Run("ShortStream", func(t *testing.T) {
		// A consistent 1 TiB header followed by a few bytes fails on the
		// first chunk instead of allocating the declared body.
		if uint64(math.MaxInt) < MaxByteCount {
			t.Skip("requires a 64-bit platform")
		}
		rc := resource.NewController(resource.Config{})
		f, err := Decode(encodeRaw(MaxByteCount*8, MaxByteCount, 3, 0, make([]byte, 100)), WithResourceController(rc))
		assert.Nil(t, f)
		assert.ErrorIs(t, err, ErrFormat)
		assert.Zero(t, rc.MemoryUsage())
	})

	t.Run("MultiChunkBody", func(t *testing.T) {
		body := make([]byte, decodeChunkSize+decodeChunkSize/2)
		body[0], body[len(body)-1] = 0x01, 0x80
		f, err := Decode(encodeRaw(uint64(len(body))*8, uint64(len(body)), 2, 0, body))
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, body, f.Bytes())
		assert.Equal(t, uint64(2), f.SetBits())
	})
}

func TestDecodeAllocationFailure(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 100})

	_, err := Decode(encodeRaw(8000, 1000, 2, 0, make([]byte, 1000)), WithResourceController(rc))
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	r := encodeRaw(8, 1, 1, 0, []byte{0x80, 0xaa, 0xbb})
	f, err := Decode(r)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []byte{0x80}, f.Bytes())
	assert.Equal(t, 2, r.Len())
}

type errReader struct {
	data []byte
	err  error
}

func (r *errReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestDecodeReadErrorIsIO(t *testing.T) {
	boom := errors.New("disk on fire")

	_, err := Decode(&errReader{err: boom})
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, boom)

	hdr, _ := io.ReadAll(encodeRaw(64, 8, 1, 0, nil))
	_, err = Decode(&errReader{data: hdr, err: boom})
	assert.ErrorIs(t, err, ErrIO)
}

type shortWriter struct {
	limit int
	buf   bytes.Buffer
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if room := w.limit - w.buf.Len(); len(p) > room {
		w.buf.Write(p[:room])
		return room, nil
	}
	return w.buf.Write(p)
}

func TestEncodeShortWriteIsIO(t *testing.T) {
	f, err := New(1024, 2, 0)
	require.NoError(t, err)
	defer f.Close()

	for _, limit := range []int{0, 10, HeaderSize, HeaderSize + 50} {
		err := Encode(&shortWriter{limit: limit}, f)
		assert.ErrorIs(t, err, ErrIO, "limit=%d", limit)
		assert.ErrorIs(t, err, io.ErrShortWrite)
	}

	n, err := f.WriteTo(&shortWriter{limit: 10})
	assert.ErrorIs(t, err, ErrIO)
	assert.Equal(t, int64(10), n)
}

func TestEncodeInvalidFilter(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Encode(&buf, nil), ErrInvalidArgument)

	var f *Filter
	_, err := f.WriteTo(&buf)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, buf.Len())
}

func TestChecksum(t *testing.T) {
	f, err := New(256, 3, 5)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.InsertString("checksummed"))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, f, WithChecksum()))
	data := buf.Bytes()
	require.Len(t, data, HeaderSize+32+TrailerSize)
	assert.Equal(t, int64(len(data)), f.EncodedSize(WithChecksum()))

	body := data[:len(data)-TrailerSize]
	assert.Equal(t, hash.CRC32C(body), binary.LittleEndian.Uint32(data[len(body):]))

	t.Run("RoundTrip", func(t *testing.T) {
		g, err := Decode(bytes.NewReader(data), WithChecksum())
		require.NoError(t, err)
		defer g.Close()
		assert.True(t, g.HasString("checksummed"))
	})

	t.Run("ReadableWithoutOption", func(t *testing.T) {
		g, err := Decode(bytes.NewReader(data))
		require.NoError(t, err)
		defer g.Close()
		assert.Equal(t, f.Bytes(), g.Bytes())
	})

	t.Run("BitFlip", func(t *testing.T) {
		corrupt := bytes.Clone(data)
		corrupt[HeaderSize+3] ^= 0x01
		_, err := Decode(bytes.NewReader(corrupt), WithChecksum())
		assert.ErrorIs(t, err, ErrFormat)
		assert.ErrorIs(t, err, errChecksumMismatch)

		// Without the trailer check the flip goes unnoticed.
		g, err := Decode(bytes.NewReader(corrupt))
		require.NoError(t, err)
		require.NoError(t, g.Close())
	})

	t.Run("MissingTrailer", func(t *testing.T) {
		_, err := Decode(bytes.NewReader(body), WithChecksum())
		assert.ErrorIs(t, err, ErrFormat)
	})
}
