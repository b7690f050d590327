package minio

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/hupe1980/bloomdb/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStore_Integration requires a running MinIO instance.
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	if accessKey == "" {
		accessKey = "minioadmin"
	}
	secretKey := os.Getenv("MINIO_SECRET_KEY")
	if secretKey == "" {
		secretKey = "minioadmin"
	}

	store, err := New(endpoint, "test-bloomdb",
		WithCredentials(accessKey, secretKey),
		WithPrefix("test-prefix/"),
	)
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	require.NoError(t, store.EnsureBucket(ctx))

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.bloom", data))

	b, err := store.Open(ctx, "test.bloom")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), b.Size())

	got, err := blobstore.ReadAll(ctx, b)
	require.NoError(t, err)
	require.Equal(t, data, got)

	rc, err := b.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(part))
	require.NoError(t, rc.Close())
	require.NoError(t, b.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.bloom")

	require.NoError(t, store.Delete(ctx, "test.bloom"))
	_, err = store.Open(ctx, "test.bloom")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	wb, err := store.Create(ctx, "stream.bloom")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	b, err = store.Open(ctx, "stream.bloom")
	require.NoError(t, err)
	assert.Equal(t, int64(13), b.Size())
	require.NoError(t, b.Close())

	wb, err = store.Create(ctx, "aborted.bloom")
	require.NoError(t, err)
	_, err = wb.Write([]byte("never"))
	require.NoError(t, err)
	require.NoError(t, wb.Abort())
	_, err = store.Open(ctx, "aborted.bloom")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_ = store.Delete(ctx, "stream.bloom")
}
