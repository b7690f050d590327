// Package bitarray provides bit-level access to a byte buffer.
//
// Bit numbering is LSB0: bit i lives in byte i>>3 at position i&7, so bit 0
// is the least-significant bit of byte 0. This matches the layout persisted
// by bloomdb and the word layout of a little-endian uint64 bitset.
//
// The functions in this package perform no bounds checking of their own.
// Callers guarantee bit < 8*len(buf); an out-of-range index panics with the
// usual slice bounds error.
package bitarray
