// Package mmap maps files into memory read-only.
//
// It backs blobstore.LocalStore: a persisted filter is mapped once and
// decoded straight from the mapping, avoiding a read syscall per header
// field. Unix builds use golang.org/x/sys/unix; Windows builds use
// golang.org/x/sys/windows.
//
// A zero-length file yields an empty Mapping without calling into the OS,
// since mmap rejects zero-length mappings.
package mmap
