// Package sysquery abstracts named operating-system parameter reads so
// fact resolvers stay portable and testable.
package sysquery

import (
	"errors"
	"syscall"
)

// Source reads kernel parameters by name.
type Source interface {
	// Int32 reads a fixed-size 32-bit value.
	Int32(name string) (int32, error)

	// Int64 reads a fixed-size 64-bit value.
	Int64(name string) (int64, error)

	// String reads a variable-length string into buf, returning the
	// number of bytes written. When buf is too small the error
	// satisfies IsInsufficientBuffer and the caller is expected to
	// grow the buffer and retry.
	String(name string, buf []byte) (int, error)
}

// ErrInsufficientBuffer signals that the caller's buffer was too small
// for the requested value.
var ErrInsufficientBuffer = errors.New("insufficient buffer")

// ErrUnsupported is returned by every query on platforms without a
// native source.
var ErrUnsupported = errors.New("system queries are not supported on this platform")

// IsInsufficientBuffer reports whether err signals a too-small buffer.
func IsInsufficientBuffer(err error) bool {
	return errors.Is(err, ErrInsufficientBuffer) || errors.Is(err, syscall.ENOMEM)
}

// Describe returns the OS error message and numeric error code for a
// failed query. The code is 0 when err carries no errno.
func Describe(err error) (string, int) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno.Error(), int(errno)
	}
	if err == nil {
		return "", 0
	}
	return err.Error(), 0
}
