// Package conv provides bounds-checked integer conversions for values that
// come from callers or from file headers (bit counts, byte counts, hash
// counts).
//
// For conversions that are provably safe by construction, use direct casts.
package conv
