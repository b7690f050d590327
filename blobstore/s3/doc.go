// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("filters/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	catalog := bloomdb.NewCatalog(store)
//
// # Features
//
//   - Ranged GETs for ReadAt and ReadRange
//   - Streaming multipart uploads through the SDK upload manager
//   - CRC32C checksums on uploads
//   - Automatic pagination for listing
//   - Key prefix for sharing a bucket between catalogs
package s3
