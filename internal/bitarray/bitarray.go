package bitarray

import (
	"encoding/binary"
	"math/bits"
)

// BytesFor returns ceil(nbits/8) without overflowing for nbits near the
// top of the uint64 range.
func BytesFor(nbits uint64) uint64 {
	n := nbits >> 3
	if nbits&7 != 0 {
		n++
	}
	return n
}

// Set sets bit to 1.
func Set(buf []byte, bit uint64) {
	buf[bit>>3] |= 1 << (bit & 7)
}

// Get reports whether bit is 1.
func Get(buf []byte, bit uint64) bool {
	return buf[bit>>3]&(1<<(bit&7)) != 0
}

// Count returns the number of set bits in buf.
func Count(buf []byte) uint64 {
	var n int
	for len(buf) >= 8 {
		n += bits.OnesCount64(binary.LittleEndian.Uint64(buf))
		buf = buf[8:]
	}
	for _, b := range buf {
		n += bits.OnesCount8(b)
	}
	return uint64(n)
}
