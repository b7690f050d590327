// Package testutil provides testing utilities for bloomdb.
//
// This package is intended for use in tests and benchmarks only.
// It provides deterministic key generation and false positive rate measurement.
//
// # Key Generation
//
//	rng := testutil.NewRNG(seed)
//	keys := rng.Keys(10_000, 16)        // random 16-byte keys
//	names := testutil.SequentialKeys("user-", 100)
//
// # Skewed Workloads
//
//	idx := rng.ZipfIndexes(len(keys), 1_000, 1.2) // hot-key query pattern
//
// # False Positive Measurement
//
//	rate := testutil.FalsePositiveRate(f.Has, absentKeys)
package testutil
