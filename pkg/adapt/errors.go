package adapt

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/kat/pkg/value"
)

// ErrorKind categorizes adapter errors.
type ErrorKind string

const (
	// KindTypeMismatch means the raw value's category does not match the
	// category the target accepts, or the value does not fit the target
	// (integer overflow, wrong fixed-array length, mixed-type array).
	KindTypeMismatch ErrorKind = "TYPE_MISMATCH"

	// KindConstructorFailure means a user conversion reported an error.
	KindConstructorFailure ErrorKind = "CONSTRUCTOR_FAILURE"

	// KindMissingField means a table lacks a key that a record field requires.
	KindMissingField ErrorKind = "MISSING_FIELD"

	// KindUnknownField means a table has a key no record field claims.
	// Only reported by strict decoding.
	KindUnknownField ErrorKind = "UNKNOWN_FIELD"
)

// Error is returned by every decoding and conversion operation.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Path locates the failing value in the document, e.g. "test[1].value".
	// Empty for the root value.
	Path string

	// Target is the Go type being built.
	Target reflect.Type

	// Want lists the categories the target accepts (type mismatches only).
	Want []value.Category

	// Got is the category of the raw value (type mismatches only).
	Got value.Category

	// Message is a human-readable description.
	Message string

	// Cause is the error reported by a user conversion, if any.
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " ")))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Target != nil {
		fmt.Fprintf(&b, " (decoding %s)", e.Target)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsTypeMismatch returns true if err wraps a type mismatch.
func IsTypeMismatch(err error) bool {
	return hasKind(err, KindTypeMismatch)
}

// IsConstructorFailure returns true if err wraps a failed user conversion.
func IsConstructorFailure(err error) bool {
	return hasKind(err, KindConstructorFailure)
}

// IsMissingField returns true if err wraps a missing record field.
func IsMissingField(err error) bool {
	return hasKind(err, KindMissingField)
}

func hasKind(err error, kind ErrorKind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// mismatch builds a type mismatch for raw against the accepted categories.
func mismatch(path string, target reflect.Type, raw value.Value, want ...value.Category) *Error {
	got := raw.Category()
	return &Error{
		Kind:    KindTypeMismatch,
		Path:    path,
		Target:  target,
		Want:    want,
		Got:     got,
		Message: fmt.Sprintf("expected %s, found %s", joinCategories(want), got),
	}
}

func joinCategories(cats []value.Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	if len(names) == 0 {
		return "nothing"
	}
	return strings.Join(names, " or ")
}
