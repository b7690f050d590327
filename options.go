package bloomdb

import (
	"github.com/hupe1980/bloomdb/internal/fs"
	"github.com/hupe1980/bloomdb/resource"
)

type options struct {
	checksum   bool
	controller *resource.Controller
	fs         fs.FileSystem
}

// Option configures filter construction and persistence.
type Option func(*options)

// WithChecksum appends a CRC32C trailer on save and requires a matching one
// on load. Files written without the trailer do not load with this option,
// and files written with it carry four extra bytes readers without the
// option ignore.
func WithChecksum() Option {
	return func(o *options) {
		o.checksum = true
	}
}

// WithResourceController charges the bit buffer against rc's memory budget.
// New fails with ErrAllocation when the budget is exhausted; Close returns the
// bytes. Pass nil to disable accounting.
//
// Example:
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})
//	f, err := bloomdb.New(1<<20, 7, 0, bloomdb.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// withFileSystem swaps the file system used by SaveFile and LoadFile.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		fs: fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
