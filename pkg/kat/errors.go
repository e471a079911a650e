package kat

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes document failures.
type ErrorKind string

const (
	// KindNotFound means the resolved path is not a regular file.
	KindNotFound ErrorKind = "NOT_FOUND"

	// KindReadError means the file exists but could not be read.
	KindReadError ErrorKind = "READ_ERROR"

	// KindParseError means the document does not have the expected shape:
	// invalid syntax, a missing section or a value of the wrong category.
	KindParseError ErrorKind = "PARSE_ERROR"
)

// Error is returned when a document cannot be loaded or parsed.
// All three kinds are terminal for the run.
type Error struct {
	// Kind identifies the failure.
	Kind ErrorKind

	// Path is the resolved document path.
	Path string

	// Cause is the underlying I/O, parser or adapter error.
	Cause error
}

func (e *Error) Error() string {
	var what string
	switch e.Kind {
	case KindNotFound:
		what = "document not found"
	case KindReadError:
		what = "failed to read document"
	case KindParseError:
		what = "failed to parse document"
	default:
		what = string(e.Kind)
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", what, e.Path)
	}
	return fmt.Sprintf("%s %s: %v", what, e.Path, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrOutOfOrder is wrapped by errors from harness operations called in the
// wrong state.
var ErrOutOfOrder = errors.New("kat: operation out of order")

// IsNotFound returns true if err wraps a missing document.
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

// IsReadError returns true if err wraps an unreadable document.
func IsReadError(err error) bool {
	return hasKind(err, KindReadError)
}

// IsParseError returns true if err wraps a malformed document.
func IsParseError(err error) bool {
	return hasKind(err, KindParseError)
}

func hasKind(err error, kind ErrorKind) bool {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind == kind
	}
	return false
}
