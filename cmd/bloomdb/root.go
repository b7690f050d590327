package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/bloomdb"
	"github.com/hupe1980/bloomdb/blobstore"
	"github.com/hupe1980/bloomdb/blobstore/minio"
	"github.com/hupe1980/bloomdb/blobstore/s3"
)

// app holds the global flags shared by every subcommand.
type app struct {
	bits     uint64
	hashes   int
	seed     uint64
	checksum bool
	jsonOut  bool
	logLevel string

	storeDir      string
	s3Bucket      string
	s3Prefix      string
	minioEndpoint string
	minioBucket   string
	minioSecure   bool
	compress      string

	logger *bloomdb.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "bloomdb",
		Short: "bloomdb manages persistent bloom filters",
		Long: `bloomdb creates, updates and queries bloom filters.

Filters are addressed by PATH. Without a store flag PATH is a local file.
With --store, --s3-bucket or --minio-endpoint PATH names a filter in that
object store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := parseLevel(a.logLevel)
			if err != nil {
				return err
			}
			a.logger = bloomdb.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.Uint64Var(&a.bits, "bits", 10000, "number of bits in a new filter")
	pf.IntVar(&a.hashes, "hashes", 5, "number of hash functions in a new filter")
	pf.Uint64Var(&a.seed, "seed", 12345, "hash seed of a new filter")
	pf.BoolVar(&a.checksum, "checksum", false, "append and verify a CRC32C trailer")
	pf.BoolVar(&a.jsonOut, "json", false, "print results as JSON")
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVar(&a.storeDir, "store", "", "local directory used as a filter store")
	pf.StringVar(&a.s3Bucket, "s3-bucket", "", "S3 bucket used as a filter store")
	pf.StringVar(&a.s3Prefix, "s3-prefix", "", "key prefix inside the S3 bucket")
	pf.StringVar(&a.minioEndpoint, "minio-endpoint", "", "MinIO endpoint used as a filter store")
	pf.StringVar(&a.minioBucket, "minio-bucket", "bloomdb", "MinIO bucket")
	pf.BoolVar(&a.minioSecure, "minio-secure", false, "use TLS for MinIO")
	pf.StringVar(&a.compress, "compress", "", "compress stored filters (zstd, lz4)")

	rootCmd.AddCommand(
		newDemoCmd(a),
		newCreateCmd(a),
		newAddCmd(a),
		newQueryCmd(a),
		newInfoCmd(a),
		newBenchCmd(a),
	)

	return rootCmd
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func (a *app) fileOptions() []bloomdb.Option {
	if a.checksum {
		return []bloomdb.Option{bloomdb.WithChecksum()}
	}
	return nil
}

func (a *app) storeCount() int {
	n := 0
	for _, v := range []string{a.storeDir, a.s3Bucket, a.minioEndpoint} {
		if v != "" {
			n++
		}
	}
	return n
}

// openStore returns the configured object store, or nil when filters live in
// plain files.
func (a *app) openStore(ctx context.Context) (blobstore.BlobStore, error) {
	if a.storeCount() > 1 {
		return nil, fmt.Errorf("--store, --s3-bucket and --minio-endpoint are mutually exclusive")
	}

	var store blobstore.BlobStore
	switch {
	case a.storeDir != "":
		store = blobstore.NewLocalStore(a.storeDir)
	case a.s3Bucket != "":
		s, err := s3.New(ctx, a.s3Bucket, s3.WithPrefix(a.s3Prefix))
		if err != nil {
			return nil, fmt.Errorf("failed to open S3 store: %w", err)
		}
		store = s
	case a.minioEndpoint != "":
		s, err := minio.New(a.minioEndpoint, a.minioBucket,
			minio.WithCredentials(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY")),
			minio.WithSecure(a.minioSecure),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open MinIO store: %w", err)
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket %q: %w", a.minioBucket, err)
		}
		store = s
	}

	if a.compress != "" {
		if store == nil {
			return nil, fmt.Errorf("--compress requires a store")
		}
		c, err := blobstore.ParseCompression(strings.ToLower(a.compress))
		if err != nil {
			return nil, err
		}
		store = blobstore.NewCompressedStore(store, c)
	}

	return store, nil
}

// target is where a filter named on the command line is persisted.
type target struct {
	name    string
	catalog *bloomdb.Catalog
	opts    []bloomdb.Option
}

func (a *app) target(ctx context.Context, name string) (*target, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	t := &target{name: name, opts: a.fileOptions()}
	if store != nil {
		catOpts := []bloomdb.CatalogOption{bloomdb.WithLogger(a.logger)}
		if a.checksum {
			catOpts = append(catOpts, bloomdb.WithCatalogChecksum())
		}
		t.catalog = bloomdb.NewCatalog(store, catOpts...)
	}
	return t, nil
}

func (t *target) load(ctx context.Context) (*bloomdb.Filter, error) {
	if t.catalog != nil {
		return t.catalog.Get(ctx, t.name)
	}
	return bloomdb.LoadFile(t.name, t.opts...)
}

func (t *target) save(ctx context.Context, f *bloomdb.Filter) error {
	if t.catalog != nil {
		return t.catalog.Put(ctx, t.name, f)
	}
	return bloomdb.SaveFile(f, t.name, t.opts...)
}
