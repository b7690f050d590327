// Package blobstore provides the storage abstraction bloomdb persists filters to.
//
// A filter is written once as a whole blob and read back as a whole, so the
// interface is small: open for reading, create a streaming writer, put,
// delete and list. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, mmap reads, temp-file + rename writes
//   - MemoryStore: in-process map, for tests and ephemeral catalogs
//   - CompressedStore: zstd or lz4 envelope around any other BlobStore
//   - s3.Store: Amazon S3 (aws-sdk-go-v2)
//   - minio.Store: MinIO and other S3-compatible services (minio-go)
//
// # Writers
//
// A WritableBlob becomes visible only when Close succeeds. Abort discards
// everything written so far, so a failed save never replaces an existing
// blob with a partial one.
package blobstore
