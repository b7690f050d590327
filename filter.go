package bloomdb

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/hupe1980/bloomdb/internal/bitarray"
	"github.com/hupe1980/bloomdb/internal/conv"
	"github.com/hupe1980/bloomdb/internal/hash"
	"github.com/hupe1980/bloomdb/resource"
)

// Filter is a bloom filter over a fixed-size bit array.
//
// A Filter has exactly one owner and is not safe for concurrent use; callers
// sharing one across goroutines must synchronize Insert against MightContain
// themselves. A nil or closed Filter rejects every operation with
// ErrInvalidArgument.
type Filter struct {
	bitCount  uint64
	byteCount uint64
	numHashes int
	seed      uint64
	bits      []byte

	rc *resource.Controller
}

// New creates an empty filter of bitCount bits that sets numHashes bits per key.
//
// It fails with ErrInvalidArgument when bitCount is 0 or numHashes is not in
// [1, math.MaxInt32], and with ErrAllocation when the ceil(bitCount/8) byte
// buffer exceeds MaxByteCount or the resource controller's memory budget.
func New(bitCount uint64, numHashes int, seed uint64, optFns ...Option) (*Filter, error) {
	const op = "new"

	if bitCount == 0 {
		return nil, invalidArgument(op, "bit count must be positive")
	}
	if numHashes <= 0 {
		return nil, invalidArgument(op, fmt.Sprintf("hash count %d is not positive", numHashes))
	}
	if _, err := conv.IntToInt32(numHashes); err != nil {
		return nil, newError(op, KindInvalidArgument, err)
	}

	opts := applyOptions(optFns)
	return newFilter(op, bitCount, numHashes, seed, opts)
}

// MaxByteCount is the largest bit buffer a filter may own (1 TiB). Larger
// filters fail with ErrAllocation instead of reaching the allocator.
const MaxByteCount uint64 = 1 << 40

func newFilter(op string, bitCount uint64, numHashes int, seed uint64, opts options) (*Filter, error) {
	byteCount := bitarray.BytesFor(bitCount)
	n, err := reserve(op, byteCount, opts.controller)
	if err != nil {
		return nil, err
	}
	return &Filter{
		bitCount:  bitCount,
		byteCount: byteCount,
		numHashes: numHashes,
		seed:      seed,
		bits:      make([]byte, n),
		rc:        opts.controller,
	}, nil
}

// reserve checks byteCount against MaxByteCount and the address space and
// charges it to rc. The caller owns the reservation on success.
func reserve(op string, byteCount uint64, rc *resource.Controller) (int, error) {
	if byteCount > MaxByteCount {
		return 0, newError(op, KindAllocation, fmt.Errorf("%d bytes exceed the %d byte limit", byteCount, MaxByteCount))
	}
	n, err := conv.Uint64ToInt(byteCount)
	if err != nil {
		return 0, newError(op, KindAllocation, err)
	}
	if !rc.TryAcquireMemory(int64(n)) {
		return 0, newError(op, KindAllocation, resource.ErrMemoryLimitExceeded)
	}
	return n, nil
}

// Create is the simple form of New. It returns nil on any failure.
func Create(bitCount uint64, numHashes int, seed uint64, optFns ...Option) *Filter {
	f, err := New(bitCount, numHashes, seed, optFns...)
	if err != nil {
		return nil
	}
	return f
}

// Close releases the bit buffer and its memory reservation. It is safe to
// call on a nil or already closed filter.
func (f *Filter) Close() error {
	if f == nil || f.bits == nil {
		return nil
	}
	f.bits = nil
	f.rc.ReleaseMemory(int64(f.byteCount))
	f.rc = nil
	return nil
}

func (f *Filter) valid() bool {
	return f != nil && f.bits != nil
}

func (f *Filter) check(op string, key []byte) error {
	if !f.valid() {
		return invalidArgument(op, "nil or closed filter")
	}
	if len(key) == 0 {
		return invalidArgument(op, "empty key")
	}
	return nil
}

// index returns the bit addressed by hash slot i:
// (h1 + i*h2) mod bitCount with h2 reseeded per slot.
func (f *Filter) index(key []byte, h1 uint64, i int) uint64 {
	h2 := hash.Hash64(key, f.seed+uint64(i)+1)
	return (h1 + uint64(i)*h2) % f.bitCount
}

// Insert sets the numHashes bits derived from key. Inserting a key twice
// has no further effect.
func (f *Filter) Insert(key []byte) error {
	if err := f.check("insert", key); err != nil {
		return err
	}
	h1 := hash.Hash64(key, f.seed)
	for i := range f.numHashes {
		bitarray.Set(f.bits, f.index(key, h1, i))
	}
	return nil
}

// MightContain reports false if key was definitely never inserted, and true
// if it was inserted or collides with inserted keys.
func (f *Filter) MightContain(key []byte) (bool, error) {
	if err := f.check("might contain", key); err != nil {
		return false, err
	}
	h1 := hash.Hash64(key, f.seed)
	for i := range f.numHashes {
		if !bitarray.Get(f.bits, f.index(key, h1, i)) {
			return false, nil
		}
	}
	return true, nil
}

// Add is the simple form of Insert.
func (f *Filter) Add(key []byte) bool {
	return f.Insert(key) == nil
}

// Has is the simple form of MightContain. It cannot tell an error from a
// definite miss.
func (f *Filter) Has(key []byte) bool {
	ok, err := f.MightContain(key)
	return err == nil && ok
}

// InsertString inserts the bytes of s.
func (f *Filter) InsertString(s string) error {
	return f.Insert([]byte(s))
}

// MightContainString queries the bytes of s.
func (f *Filter) MightContainString(s string) (bool, error) {
	return f.MightContain([]byte(s))
}

// InsertUint64 inserts v encoded as 8 little-endian bytes.
func (f *Filter) InsertUint64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return f.Insert(buf[:])
}

// MightContainUint64 queries v encoded as 8 little-endian bytes.
func (f *Filter) MightContainUint64(v uint64) (bool, error) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return f.MightContain(buf[:])
}

// AddString is the simple form of InsertString.
func (f *Filter) AddString(s string) bool {
	return f.InsertString(s) == nil
}

// HasString is the simple form of MightContainString.
func (f *Filter) HasString(s string) bool {
	ok, err := f.MightContainString(s)
	return err == nil && ok
}

// AddUint64 is the simple form of InsertUint64.
func (f *Filter) AddUint64(v uint64) bool {
	return f.InsertUint64(v) == nil
}

// HasUint64 is the simple form of MightContainUint64.
func (f *Filter) HasUint64(v uint64) bool {
	ok, err := f.MightContainUint64(v)
	return err == nil && ok
}

// The accessors below return zero values for a nil or closed filter.

func (f *Filter) BitCount() uint64 {
	if !f.valid() {
		return 0
	}
	return f.bitCount
}

func (f *Filter) ByteCount() uint64 {
	if !f.valid() {
		return 0
	}
	return f.byteCount
}

func (f *Filter) NumHashes() int {
	if !f.valid() {
		return 0
	}
	return f.numHashes
}

func (f *Filter) Seed() uint64 {
	if !f.valid() {
		return 0
	}
	return f.seed
}

// Bytes returns a copy of the bit buffer.
func (f *Filter) Bytes() []byte {
	if !f.valid() {
		return nil
	}
	out := make([]byte, len(f.bits))
	copy(out, f.bits)
	return out
}

// SetBits returns the number of addressable bits set to 1. Padding bits in
// the last byte are not counted.
func (f *Filter) SetBits() uint64 {
	if !f.valid() {
		return 0
	}
	n := bitarray.Count(f.bits)
	if tail := f.bitCount & 7; tail != 0 {
		pad := f.bits[len(f.bits)-1] &^ (byte(1)<<tail - 1)
		n -= uint64(bits.OnesCount8(pad))
	}
	return n
}

// FillRatio returns SetBits / BitCount.
func (f *Filter) FillRatio() float64 {
	if !f.valid() {
		return 0
	}
	return float64(f.SetBits()) / float64(f.bitCount)
}

// EstimatedFalsePositiveRate returns FillRatio^numHashes, the probability a
// random absent key hits only set bits. It is an estimate for reporting.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	if !f.valid() {
		return 0
	}
	return math.Pow(f.FillRatio(), float64(f.numHashes))
}
