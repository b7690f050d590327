package testutil

import (
	"math"
	"math/rand"
	"strconv"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Key returns a random key of length bytes.
func (r *RNG) Key(length int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keyLocked(length)
}

func (r *RNG) keyLocked(length int) []byte {
	k := make([]byte, length)
	_, _ = r.rand.Read(k)
	return k
}

// Keys returns n random keys of length bytes each.
// Locks only once per call (preferred over calling Key in a loop).
func (r *RNG) Keys(n, length int) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = r.keyLocked(length)
	}
	return keys
}

// SequentialKeys returns prefix+"0" .. prefix+strconv.Itoa(n-1) as byte keys.
func SequentialKeys(prefix string, n int) [][]byte {
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = []byte(prefix + strconv.Itoa(i))
	}
	return keys
}

// ZipfIndexes returns count indexes in [0, n) with a Zipfian distribution:
// P(k) ∝ 1/(k+1)^s. s=1.0 gives standard Zipf, larger s concentrates
// queries on fewer hot keys.
func (r *RNG) ZipfIndexes(n, count int, s float64) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, count)
	if n <= 1 {
		return out
	}

	// Cumulative weights, then inverse transform per sample.
	cdf := make([]float64, n)
	var total float64
	for i := range n {
		total += 1.0 / math.Pow(float64(i+1), s)
		cdf[i] = total
	}
	for i := range out {
		u := r.rand.Float64() * total
		lo, hi := 0, n-1
		for lo < hi {
			mid := (lo + hi) / 2
			if cdf[mid] < u {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		out[i] = lo
	}
	return out
}

// FalsePositiveRate returns the fraction of absent keys for which contains
// reports true. Every key in absent must never have been inserted.
func FalsePositiveRate(contains func([]byte) bool, absent [][]byte) float64 {
	if len(absent) == 0 {
		return 0
	}
	var hits int
	for _, k := range absent {
		if contains(k) {
			hits++
		}
	}
	return float64(hits) / float64(len(absent))
}
