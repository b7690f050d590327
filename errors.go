package bloomdb

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure.
type ErrorKind int

const (
	KindOK ErrorKind = iota
	KindInvalidArgument
	KindAllocation
	KindIO
	KindFormat
	// KindInternal is reserved; no current code path produces it.
	KindInternal
)

// String returns the human-readable message for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindOK:
		return "Success"
	case KindInvalidArgument:
		return "Invalid argument"
	case KindAllocation:
		return "Memory allocation failed"
	case KindIO:
		return "File I/O error"
	case KindFormat:
		return "Invalid file format"
	case KindInternal:
		return "Internal error"
	default:
		return "Unknown error"
	}
}

var (
	// ErrInvalidArgument is returned for a nil or closed filter, an empty key,
	// a zero bit count, a non-positive hash count or an empty path.
	ErrInvalidArgument = errors.New(KindInvalidArgument.String())
	// ErrAllocation is returned when the bit buffer cannot be allocated.
	ErrAllocation = errors.New(KindAllocation.String())
	// ErrIO is returned when a file or blob cannot be opened, read or written.
	ErrIO = errors.New(KindIO.String())
	// ErrFormat is returned when serialized data fails validation.
	ErrFormat = errors.New(KindFormat.String())
	// ErrInternal is reserved.
	ErrInternal = errors.New(KindInternal.String())
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidArgument:
		return ErrInvalidArgument
	case KindAllocation:
		return ErrAllocation
	case KindIO:
		return ErrIO
	case KindFormat:
		return ErrFormat
	case KindInternal:
		return ErrInternal
	default:
		return nil
	}
}

// Error is the error type returned by the explicit API.
//
// errors.Is(err, ErrFormat) and friends match on Kind; the underlying cause
// (if any) can be accessed via errors.Unwrap.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("bloomdb: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("bloomdb: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of err: KindOK for nil, KindInternal for errors
// not produced by this package.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range []ErrorKind{KindInvalidArgument, KindAllocation, KindIO, KindFormat, KindInternal} {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindInternal
}

func newError(op string, kind ErrorKind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func invalidArgument(op, reason string) error {
	return newError(op, KindInvalidArgument, errors.New(reason))
}

func formatError(op, format string, args ...any) error {
	return newError(op, KindFormat, fmt.Errorf(format, args...))
}

func ioError(op string, err error) error {
	return newError(op, KindIO, err)
}
