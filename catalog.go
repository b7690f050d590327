package bloomdb

import (
	"context"
	"fmt"
	"io/fs"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/bloomdb/blobstore"
	"github.com/hupe1980/bloomdb/resource"
)

// FilterSuffix is appended to filter names to form blob names.
const FilterSuffix = ".bloom"

type catalogOptions struct {
	logger     *Logger
	metrics    MetricsCollector
	controller *resource.Controller
	checksum   bool
}

// CatalogOption configures a Catalog.
type CatalogOption func(*catalogOptions)

// WithLogger configures structured logging for catalog operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := bloomdb.NewJSONLogger(slog.LevelInfo)
//	cat := bloomdb.NewCatalog(store, bloomdb.WithLogger(logger))
func WithLogger(logger *Logger) CatalogOption {
	return func(o *catalogOptions) {
		o.logger = logger
	}
}

// WithMetricsCollector configures a metrics collector for catalog operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &bloomdb.BasicMetricsCollector{}
//	cat := bloomdb.NewCatalog(store, bloomdb.WithMetricsCollector(metrics))
//	// ... use cat ...
//	stats := metrics.GetStats()
//	fmt.Printf("Loads: %d, Avg latency: %dns\n", stats.LoadCount, stats.LoadAvgNanos)
func WithMetricsCollector(mc MetricsCollector) CatalogOption {
	return func(o *catalogOptions) {
		o.metrics = mc
	}
}

// WithCatalogController charges loaded filters against rc's memory budget,
// throttles blob IO through its rate limit and bounds LoadAll by its
// background worker slots.
func WithCatalogController(rc *resource.Controller) CatalogOption {
	return func(o *catalogOptions) {
		o.controller = rc
	}
}

// WithCatalogChecksum writes and requires the CRC32C trailer.
func WithCatalogChecksum() CatalogOption {
	return func(o *catalogOptions) {
		o.checksum = true
	}
}

// Catalog stores named filters in a BlobStore, one blob per filter.
// A Catalog is safe for concurrent use; the filters it returns are not.
type Catalog struct {
	store   blobstore.BlobStore
	logger  *Logger
	metrics MetricsCollector
	rc      *resource.Controller
	opts    []Option
}

// NewCatalog creates a Catalog over store.
func NewCatalog(store blobstore.BlobStore, optFns ...CatalogOption) *Catalog {
	o := catalogOptions{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metrics == nil {
		o.metrics = NoopMetricsCollector{}
	}

	opts := []Option{WithResourceController(o.controller)}
	if o.checksum {
		opts = append(opts, WithChecksum())
	}

	return &Catalog{
		store:   store,
		logger:  o.logger,
		metrics: o.metrics,
		rc:      o.controller,
		opts:    opts,
	}
}

func blobName(name string) string {
	return name + FilterSuffix
}

// checkName accepts slash-separated relative names without ".", ".." or
// empty segments, so a name always stays inside the store.
func checkName(op, name string) error {
	if !fs.ValidPath(name) || name == "." || strings.Contains(name, `\`) {
		return invalidArgument(op, fmt.Sprintf("invalid filter name %q", name))
	}
	return nil
}

// Put stores f under name, replacing any previous filter of that name.
func (c *Catalog) Put(ctx context.Context, name string, f *Filter) error {
	if err := checkName("put", name); err != nil {
		return err
	}

	start := time.Now()
	err := SaveBlob(ctx, c.store, blobName(name), f, c.opts...)
	size := f.EncodedSize(c.opts...)
	c.metrics.RecordSave(size, time.Since(start), err)
	c.logger.LogSave(ctx, name, size, err)
	return err
}

// Get loads the filter stored under name. The caller owns the result and
// must Close it.
func (c *Catalog) Get(ctx context.Context, name string) (*Filter, error) {
	if err := checkName("get", name); err != nil {
		return nil, err
	}

	start := time.Now()
	f, err := LoadBlob(ctx, c.store, blobName(name), c.opts...)
	c.metrics.RecordLoad(time.Since(start), err)
	c.logger.LogLoad(ctx, name, f, err)
	return f, err
}

// Delete removes the filter stored under name. Deleting a missing filter is
// not an error.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	if err := checkName("delete", name); err != nil {
		return err
	}

	start := time.Now()
	var err error
	if derr := c.store.Delete(ctx, blobName(name)); derr != nil {
		err = ioError("delete", derr)
	}
	c.metrics.RecordDelete(time.Since(start), err)
	c.logger.LogDelete(ctx, name, err)
	return err
}

// List returns the sorted names of all stored filters.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	blobs, err := c.store.List(ctx, "")
	if err != nil {
		return nil, ioError("list", err)
	}

	names := make([]string, 0, len(blobs))
	for _, b := range blobs {
		if name, ok := strings.CutSuffix(b, FilterSuffix); ok && name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// LoadAll loads the named filters concurrently, bounded by the controller's
// background worker slots (GOMAXPROCS without a controller). On any failure
// every filter already loaded is closed and the first error is returned.
func (c *Catalog) LoadAll(ctx context.Context, names []string) (map[string]*Filter, error) {
	names = slices.Compact(slices.Sorted(slices.Values(names)))

	var (
		mu     sync.Mutex
		loaded = make(map[string]*Filter, len(names))
	)

	workers := runtime.GOMAXPROCS(0)
	if c.rc != nil {
		workers = c.rc.MaxBackgroundWorkers()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, name := range names {
		g.Go(func() error {
			if err := c.rc.AcquireBackground(gctx); err != nil {
				return err
			}
			defer c.rc.ReleaseBackground()

			f, err := c.Get(gctx, name)
			if err != nil {
				return err
			}
			mu.Lock()
			loaded[name] = f
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	c.logger.LogLoadAll(ctx, len(names), err)
	if err != nil {
		for _, f := range loaded {
			_ = f.Close()
		}
		return nil, err
	}
	return loaded, nil
}
