// Package bloomdb provides a bloom filter with a compact binary file format.
//
// A Filter answers "has this key possibly been inserted?" with no false
// negatives and a false positive rate set by its bit count and hash count,
// both chosen by the caller.
//
// # Quick Start
//
//	f, err := bloomdb.New(100_000, 5, 42)
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	_ = f.InsertString("alice@example.com")
//	ok, _ := f.MightContainString("alice@example.com") // true
//
//	if err := bloomdb.SaveFile(f, "users.bloom"); err != nil {
//	    return err
//	}
//	g, err := bloomdb.LoadFile("users.bloom")
//
// # Simple and Explicit Forms
//
// Every operation has an explicit form returning an *Error whose Kind tells
// the cause (New, Insert, MightContain, SaveFile, LoadFile) and a simple form
// that collapses every failure to nil or false (Create, Add, Has, Save, Load).
// With the simple forms a miss and a failure look the same:
//
//	if !f.Has(key) { ... } // absent, or f is nil/closed, or key is empty
//
// Errors match their sentinel with errors.Is:
//
//	_, err := bloomdb.LoadFile(path)
//	switch {
//	case errors.Is(err, bloomdb.ErrIO):     // missing or unreadable
//	case errors.Is(err, bloomdb.ErrFormat): // truncated or inconsistent
//	}
//
// # File Format
//
// A fixed little-endian header (bitCount, byteCount, numHashes, seed) is
// followed by the raw bit buffer, bit i stored in byte i/8 at position i%8.
// WithChecksum adds a CRC32C trailer. See HeaderSize for the layout.
//
// # Catalogs
//
// A Catalog keeps named filters in a blobstore.BlobStore (local disk, memory,
// S3 or MinIO, optionally compressed) and loads many of them in parallel:
//
//	store := blobstore.NewLocalStore("./filters")
//	cat := bloomdb.NewCatalog(store, bloomdb.WithLogger(bloomdb.NewTextLogger(slog.LevelInfo)))
//	_ = cat.Put(ctx, "users", f)
//	filters, err := cat.LoadAll(ctx, []string{"users", "orders"})
//
// # Concurrency
//
// A Filter is not safe for concurrent use. Guard Insert against MightContain
// with a sync.RWMutex when sharing one between goroutines.
//
// The hash is a fast non-cryptographic mix; do not rely on it for inputs an
// attacker controls.
package bloomdb
