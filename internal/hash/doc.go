// Package hash provides the hashing primitives used by bloomdb.
//
// # Hash64
//
// Hash64 is a byte-at-a-time multiplicative mixing hash:
//
//	h = seed
//	for each byte b: h = (h ^ b) * 0x5bd1e995; h ^= h >> 15
//
// It is deterministic and seed-sensitive, which is all the double hashing
// scheme in bloomdb needs. It is NOT cryptographically secure and must not
// be used where keys may be chosen by an adversary to force collisions.
//
// # CRC32-Castagnoli (CRC32C)
//
// CRC32C protects the optional integrity trailer of persisted filters. Go's
// crc32 package uses hardware instructions (SSE4.2, ARM CRC) when available.
//
//	checksum := hash.CRC32C(data)
//
//	h := hash.NewCRC32C()
//	h.Write(header)
//	h.Write(body)
//	checksum := h.Sum32()
package hash
