package hash

// mixMultiplier is the per-byte multiplier of Hash64.
const mixMultiplier = 0x5bd1e995

// Hash64 hashes data with the given seed. Zero-length data returns seed.
func Hash64(data []byte, seed uint64) uint64 {
	h := seed
	for _, b := range data {
		h ^= uint64(b)
		h *= mixMultiplier
		h ^= h >> 15
	}
	return h
}
