// Package fs provides the filesystem seam used by bloomdb's file persistence.
//
//   - [FileSystem]: open, create-temp, rename, remove and stat
//   - [LocalFS]: production implementation over package os
//   - [FaultyFS]: wrapper that injects open, write, sync and close failures
//
// Save paths write to a temp file in the target directory and rename it into
// place, so FileSystem must provide CreateTemp and Rename with os semantics.
//
// Filesystem calls here take no context.Context: local file operations are
// not interruptible at the syscall level. Remote storage goes through
// blobstore, which does take a context.
package fs
