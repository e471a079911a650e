package value

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf16"
)

// Value is a sealed interface over the primitive categories of a document.
// Only String, Integer, Float, Boolean, Datetime, Array and Table implement it.
// There is no null: neither TOML nor the harness has one.
type Value interface {
	Category() Category
	value() // Sealed
}

// Category identifies the primitive category of a document value.
type Category int

const (
	// CategoryAny is not carried by any value. It names the generic-value
	// category when a conversion accepts every category.
	CategoryAny Category = iota
	CategoryString
	CategoryInteger
	CategoryFloat
	CategoryBoolean
	CategoryDatetime
	CategoryArray
	CategoryTable
)

var categoryNames = map[Category]string{
	CategoryAny:      "value",
	CategoryString:   "string",
	CategoryInteger:  "integer",
	CategoryFloat:    "float",
	CategoryBoolean:  "boolean",
	CategoryDatetime: "datetime",
	CategoryArray:    "array",
	CategoryTable:    "table",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory maps a category name to its Category.
// "value" and "any" both select CategoryAny.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "any" {
		return CategoryAny, nil
	}
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return CategoryAny, fmt.Errorf("unknown category %q", name)
}

// String is a document string.
type String string

func (String) Category() Category { return CategoryString }
func (String) value()             {}

// Integer is a document integer. Always 64-bit.
type Integer int64

func (Integer) Category() Category { return CategoryInteger }
func (Integer) value()             {}

// Float is a document float.
type Float float64

func (Float) Category() Category { return CategoryFloat }
func (Float) value()             {}

// Boolean is a document boolean.
type Boolean bool

func (Boolean) Category() Category { return CategoryBoolean }
func (Boolean) value()             {}

// Array is an ordered list of document values.
type Array []Value

func (Array) Category() Category { return CategoryArray }
func (Array) value()             {}

// ElementCategory returns the category shared by every element.
// ok is false when elements disagree. An empty array reports CategoryAny.
func (arr Array) ElementCategory() (c Category, ok bool) {
	if len(arr) == 0 {
		return CategoryAny, true
	}
	c = arr[0].Category()
	for _, elem := range arr[1:] {
		if elem.Category() != c {
			return c, false
		}
	}
	return c, true
}

// Table maps keys to document values.
// Use SortedKeys() for deterministic iteration.
type Table map[string]Value

func (Table) Category() Category { return CategoryTable }
func (Table) value()             {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's sort.Strings uses UTF-8 byte order, which differs for astral characters.
func (t Table) SortedKeys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// FromNative converts a decoded Go tree into a Value.
//
// Accepted leaves are the types produced by the document parsers:
// string, all integer widths, float32/64, bool, time.Time, Datetime and Value.
// Containers are []any and map[string]any. Anything else, including nil,
// is rejected.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not a document value")
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Boolean(val), nil
	case int:
		return Integer(val), nil
	case int8:
		return Integer(val), nil
	case int16:
		return Integer(val), nil
	case int32:
		return Integer(val), nil
	case int64:
		return Integer(val), nil
	case uint8:
		return Integer(val), nil
	case uint16:
		return Integer(val), nil
	case uint32:
		return Integer(val), nil
	case uint:
		if uint64(val) > 1<<63-1 {
			return nil, fmt.Errorf("integer %d out of int64 range", val)
		}
		return Integer(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("integer %d out of int64 range", val)
		}
		return Integer(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case time.Time:
		return OffsetDateTime(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			converted, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = converted
		}
		return arr, nil
	case map[string]any:
		t := make(Table, len(val))
		for k, elem := range val {
			converted, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			t[k] = converted
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// Native converts a Value back into plain Go values:
// string, int64, float64, bool, Datetime, []any and map[string]any.
func Native(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Integer:
		return int64(val)
	case Float:
		return float64(val)
	case Boolean:
		return bool(val)
	case Datetime:
		return val
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Native(elem)
		}
		return out
	case Table:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Native(elem)
		}
		return out
	default:
		return nil
	}
}
