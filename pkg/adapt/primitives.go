package adapt

import (
	"fmt"
	"reflect"

	"github.com/roach88/kat/pkg/value"
)

// The From* functions are the per-category conversions. Each reads raw
// strictly as its category, failing with a type mismatch otherwise, and only
// then hands the primitive to ctor.

// FromString builds a T from a document string.
func FromString[T any](raw value.Value, ctor func(string) T) (T, error) {
	var zero T
	s, err := readString(raw, "", reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return ctor(s), nil
}

// FromInteger builds a T from a document integer.
func FromInteger[T any](raw value.Value, ctor func(int64) T) (T, error) {
	var zero T
	n, err := readInteger(raw, "", reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return ctor(n), nil
}

// FromFloat builds a T from a document float.
func FromFloat[T any](raw value.Value, ctor func(float64) T) (T, error) {
	var zero T
	f, err := readFloat(raw, "", reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return ctor(f), nil
}

// FromBoolean builds a T from a document boolean.
func FromBoolean[T any](raw value.Value, ctor func(bool) T) (T, error) {
	var zero T
	b, err := readBoolean(raw, "", reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return ctor(b), nil
}

// FromDatetime builds a T from a document timestamp.
func FromDatetime[T any](raw value.Value, ctor func(value.Datetime) T) (T, error) {
	var zero T
	dt, err := readDatetime(raw, "", reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return ctor(dt), nil
}

// FromArray builds a T from a homogeneous document array whose elements
// decode as E through r. Mixed-type arrays are rejected; use an array of
// tables instead.
func FromArray[E, T any](r *Registry, raw value.Value, ctor func([]E) T) (T, error) {
	var zero T
	elems, err := Decode[[]E](r, raw)
	if err != nil {
		return zero, err
	}
	return ctor(elems), nil
}

// FromTable builds a T from a document table.
func FromTable[T any](raw value.Value, ctor func(value.Table) T) (T, error) {
	var zero T
	tbl, err := readTable(raw, "", reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return ctor(tbl), nil
}

// FromValue builds a T from any document value.
func FromValue[T any](raw value.Value, ctor func(value.Value) T) (T, error) {
	var zero T
	if raw == nil {
		return zero, &Error{
			Kind:    KindTypeMismatch,
			Target:  reflect.TypeOf((*T)(nil)).Elem(),
			Want:    []value.Category{value.CategoryAny},
			Message: "expected value, found nothing",
		}
	}
	return ctor(raw), nil
}

// FromAdapted builds a T from an S that is itself decoded through r,
// so S may be any registered or natively decodable type.
func FromAdapted[S, T any](r *Registry, raw value.Value, ctor func(S) T) (T, error) {
	var zero T
	s, err := Decode[S](r, raw)
	if err != nil {
		return zero, err
	}
	return ctor(s), nil
}

func readString(raw value.Value, path string, target reflect.Type) (string, error) {
	s, ok := raw.(value.String)
	if !ok {
		return "", mismatch(path, target, raw, value.CategoryString)
	}
	return string(s), nil
}

func readInteger(raw value.Value, path string, target reflect.Type) (int64, error) {
	n, ok := raw.(value.Integer)
	if !ok {
		return 0, mismatch(path, target, raw, value.CategoryInteger)
	}
	return int64(n), nil
}

func readFloat(raw value.Value, path string, target reflect.Type) (float64, error) {
	f, ok := raw.(value.Float)
	if !ok {
		return 0, mismatch(path, target, raw, value.CategoryFloat)
	}
	return float64(f), nil
}

func readBoolean(raw value.Value, path string, target reflect.Type) (bool, error) {
	b, ok := raw.(value.Boolean)
	if !ok {
		return false, mismatch(path, target, raw, value.CategoryBoolean)
	}
	return bool(b), nil
}

func readDatetime(raw value.Value, path string, target reflect.Type) (value.Datetime, error) {
	dt, ok := raw.(value.Datetime)
	if !ok {
		return value.Datetime{}, mismatch(path, target, raw, value.CategoryDatetime)
	}
	return dt, nil
}

func readArray(raw value.Value, path string, target reflect.Type) (value.Array, error) {
	arr, ok := raw.(value.Array)
	if !ok {
		return nil, mismatch(path, target, raw, value.CategoryArray)
	}
	if err := checkHomogeneous(arr, path, target); err != nil {
		return nil, err
	}
	return arr, nil
}

func readTable(raw value.Value, path string, target reflect.Type) (value.Table, error) {
	tbl, ok := raw.(value.Table)
	if !ok {
		return nil, mismatch(path, target, raw, value.CategoryTable)
	}
	return tbl, nil
}

// checkHomogeneous rejects arrays whose elements differ in category.
func checkHomogeneous(arr value.Array, path string, target reflect.Type) error {
	first, ok := arr.ElementCategory()
	if ok {
		return nil
	}
	for i, elem := range arr {
		if elem.Category() != first {
			return &Error{
				Kind:    KindTypeMismatch,
				Path:    fmt.Sprintf("%s[%d]", path, i),
				Target:  target,
				Want:    []value.Category{first},
				Got:     elem.Category(),
				Message: fmt.Sprintf("mixed-type array: expected %s, found %s", first, elem.Category()),
			}
		}
	}
	return nil
}
