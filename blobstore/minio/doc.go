// Package minio provides a blobstore.BlobStore backed by the MinIO client.
//
// It works with MinIO and other S3-compatible services (Ceph, Garage,
// SeaweedFS) without pulling in the AWS SDK config chain.
//
// # Basic Usage
//
//	store, err := minio.New("localhost:9000", "filters",
//	    minio.WithCredentials("minioadmin", "minioadmin"),
//	    minio.WithPrefix("prod/"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := store.EnsureBucket(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// A pre-built *minio.Client can be used with NewStore instead.
package minio
