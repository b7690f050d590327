package bitarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	buf := make([]byte, 4)

	Set(buf, 0)
	Set(buf, 9)
	Set(buf, 31)

	assert.Equal(t, []byte{0x01, 0x02, 0x00, 0x80}, buf)

	for i := uint64(0); i < 32; i++ {
		want := i == 0 || i == 9 || i == 31
		assert.Equal(t, want, Get(buf, i), "bit %d", i)
	}
}

func TestSetIsIdempotent(t *testing.T) {
	buf := make([]byte, 1)
	Set(buf, 3)
	Set(buf, 3)
	assert.Equal(t, byte(0x08), buf[0])
}

func TestGetOutOfRangePanics(t *testing.T) {
	buf := make([]byte, 1)
	assert.Panics(t, func() { Get(buf, 8) })
}

func TestCount(t *testing.T) {
	buf := make([]byte, 13)
	require.Equal(t, uint64(0), Count(buf))

	for _, b := range []uint64{0, 7, 63, 64, 100, 103} {
		Set(buf, b)
	}
	assert.Equal(t, uint64(6), Count(buf))
}

func TestBytesFor(t *testing.T) {
	tests := []struct {
		nbits uint64
		want  uint64
	}{
		{1, 1},
		{7, 1},
		{8, 1},
		{9, 2},
		{100000, 12500},
		{^uint64(0), 1 << 61},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, BytesFor(tc.nbits), "nbits=%d", tc.nbits)
	}
}

func BenchmarkSet(b *testing.B) {
	buf := make([]byte, 4096)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Set(buf, uint64(i)&32767)
	}
}
