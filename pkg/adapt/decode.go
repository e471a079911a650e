package adapt

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/roach88/kat/pkg/value"
)

var (
	valueType          = reflect.TypeOf((*value.Value)(nil)).Elem()
	timeType           = reflect.TypeOf((*time.Time)(nil)).Elem()
	textUnmarshalerTyp = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// valueTypes maps the concrete value types to their category.
var valueTypes = map[reflect.Type]value.Category{
	reflect.TypeOf((*value.String)(nil)).Elem():   value.CategoryString,
	reflect.TypeOf((*value.Integer)(nil)).Elem():  value.CategoryInteger,
	reflect.TypeOf((*value.Float)(nil)).Elem():    value.CategoryFloat,
	reflect.TypeOf((*value.Boolean)(nil)).Elem():  value.CategoryBoolean,
	reflect.TypeOf((*value.Datetime)(nil)).Elem(): value.CategoryDatetime,
	reflect.TypeOf((*value.Array)(nil)).Elem():    value.CategoryArray,
	reflect.TypeOf((*value.Table)(nil)).Elem():    value.CategoryTable,
}

// primitiveSources are the types that stand for a category. They decode
// natively and cannot be conversion targets.
var primitiveSources = map[reflect.Type]bool{
	reflect.TypeOf((*string)(nil)).Elem():         true,
	reflect.TypeOf((*int64)(nil)).Elem():          true,
	reflect.TypeOf((*float64)(nil)).Elem():        true,
	reflect.TypeOf((*bool)(nil)).Elem():           true,
	reflect.TypeOf((*value.Datetime)(nil)).Elem(): true,
	reflect.TypeOf((*value.Array)(nil)).Elem():    true,
	reflect.TypeOf((*value.Table)(nil)).Elem():    true,
	reflect.TypeOf((*value.Value)(nil)).Elem():    true,
	reflect.TypeOf((*value.String)(nil)).Elem():   true,
	reflect.TypeOf((*value.Integer)(nil)).Elem():  true,
	reflect.TypeOf((*value.Float)(nil)).Elem():    true,
	reflect.TypeOf((*value.Boolean)(nil)).Elem():  true,
	reflect.TypeOf((*any)(nil)).Elem():            true,
}

// nativeTarget reports whether t is decoded natively for every user of a
// registry: the category types, time.Time, predeclared scalars and unnamed
// composites such as []int or map[string]string. Conversions into such types
// would silently change how unrelated fields decode.
func nativeTarget(t reflect.Type) bool {
	if primitiveSources[t] || t == timeType {
		return true
	}
	if _, ok := builtinCategory(t); !ok {
		return false
	}
	return t.PkgPath() == ""
}

// builtinCategory returns the category a type decodes from without any
// registered conversion.
func builtinCategory(t reflect.Type) (value.Category, bool) {
	if t == valueType {
		return value.CategoryAny, true
	}
	if c, ok := valueTypes[t]; ok {
		return c, true
	}
	if t == timeType {
		return value.CategoryDatetime, true
	}
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(textUnmarshalerTyp) {
		return value.CategoryString, true
	}
	switch t.Kind() {
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return value.CategoryAny, true
		}
	case reflect.String:
		return value.CategoryString, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return value.CategoryInteger, true
	case reflect.Float32, reflect.Float64:
		return value.CategoryFloat, true
	case reflect.Bool:
		return value.CategoryBoolean, true
	case reflect.Slice, reflect.Array:
		return value.CategoryArray, true
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return value.CategoryTable, true
		}
	case reflect.Struct:
		return value.CategoryTable, true
	}
	return 0, false
}

// Option configures decoding.
type Option func(*decoder)

// WithStrict rejects table keys that no record field claims.
func WithStrict(strict bool) Option {
	return func(d *decoder) { d.strict = strict }
}

// WithPath sets the document path reported for the root value.
func WithPath(path string) Option {
	return func(d *decoder) { d.root = path }
}

// Decode builds a T from a document value.
func Decode[T any](r *Registry, raw value.Value, opts ...Option) (T, error) {
	var out T
	err := r.Decode(raw, &out, opts...)
	return out, err
}

// Decode builds the value target points to from a document value.
// target must be a non-nil pointer. On error target is left untouched.
func (r *Registry) Decode(raw value.Value, target any, opts ...Option) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("adapt: decode target must be a non-nil pointer, got %T", target)
	}
	if raw == nil {
		return fmt.Errorf("adapt: decode of nil value")
	}

	d := &decoder{registry: r}
	for _, opt := range opts {
		opt(d)
	}

	out, err := d.decode(raw, rv.Type().Elem(), d.root, nil)
	if err != nil {
		return err
	}
	rv.Elem().Set(out)
	return nil
}

type decoder struct {
	registry *Registry
	strict   bool
	root     string
}

// decode builds a value of type t from raw. from, when set, forces the
// conversion registered from that category.
func (d *decoder) decode(raw value.Value, t reflect.Type, path string, from *value.Category) (reflect.Value, error) {
	if convs := d.registry.lookup(t); len(convs) > 0 {
		return d.convert(raw, t, convs, path, from)
	}
	if from != nil && *from != value.CategoryAny && raw.Category() != *from {
		return reflect.Value{}, mismatch(path, t, raw, *from)
	}
	return d.decodeBuiltin(raw, t, path)
}

func (d *decoder) convert(raw value.Value, t reflect.Type, convs []conversion, path string, from *value.Category) (reflect.Value, error) {
	var (
		c  conversion
		ok bool
	)
	if from != nil {
		c, ok = d.registry.chooseFrom(convs, *from)
		if !ok {
			return reflect.Value{}, &Error{
				Kind:    KindTypeMismatch,
				Path:    path,
				Target:  t,
				Want:    []value.Category{*from},
				Got:     raw.Category(),
				Message: fmt.Sprintf("no conversion from %s registered", *from),
			}
		}
	} else {
		c, ok = d.registry.choose(convs, raw.Category())
		if !ok {
			return reflect.Value{}, mismatch(path, t, raw, d.registry.accepts(t, map[reflect.Type]bool{})...)
		}
	}

	src, err := d.decode(raw, c.source, path, nil)
	if err != nil {
		return reflect.Value{}, err
	}
	out, err := c.apply(src)
	if err != nil {
		return reflect.Value{}, constructorFailure(path, c.source, t, err)
	}
	return out, nil
}

func constructorFailure(path string, source, target reflect.Type, cause error) *Error {
	return &Error{
		Kind:    KindConstructorFailure,
		Path:    path,
		Target:  target,
		Message: fmt.Sprintf("building from %s", source),
		Cause:   cause,
	}
}

func (d *decoder) decodeBuiltin(raw value.Value, t reflect.Type, path string) (reflect.Value, error) {
	out := reflect.New(t).Elem()

	switch {
	case t == valueType:
		out.Set(reflect.ValueOf(raw))
		return out, nil
	case t == timeType:
		dt, err := readDatetime(raw, path, t)
		if err != nil {
			return out, err
		}
		out.Set(reflect.ValueOf(dt.In(time.UTC)))
		return out, nil
	}

	if c, ok := valueTypes[t]; ok {
		if raw.Category() != c {
			return out, mismatch(path, t, raw, c)
		}
		if arr, isArr := raw.(value.Array); isArr {
			if err := checkHomogeneous(arr, path, t); err != nil {
				return out, err
			}
		}
		out.Set(reflect.ValueOf(raw))
		return out, nil
	}

	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(textUnmarshalerTyp) {
		s, err := readString(raw, path, t)
		if err != nil {
			return out, err
		}
		if err := out.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return out, constructorFailure(path, reflect.TypeOf((*string)(nil)).Elem(), t, err)
		}
		return out, nil
	}

	switch t.Kind() {
	case reflect.Interface:
		if t.NumMethod() != 0 {
			break
		}
		out.Set(reflect.ValueOf(value.Native(raw)))
		return out, nil

	case reflect.Pointer:
		elem, err := d.decode(raw, t.Elem(), path, nil)
		if err != nil {
			return out, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		out.Set(p)
		return out, nil

	case reflect.String:
		s, err := readString(raw, path, t)
		if err != nil {
			return out, err
		}
		out.SetString(s)
		return out, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := readInteger(raw, path, t)
		if err != nil {
			return out, err
		}
		if out.OverflowInt(n) {
			return out, overflow(path, t, n)
		}
		out.SetInt(n)
		return out, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := readInteger(raw, path, t)
		if err != nil {
			return out, err
		}
		if n < 0 || out.OverflowUint(uint64(n)) {
			return out, overflow(path, t, n)
		}
		out.SetUint(uint64(n))
		return out, nil

	case reflect.Float32, reflect.Float64:
		f, err := readFloat(raw, path, t)
		if err != nil {
			return out, err
		}
		if out.OverflowFloat(f) {
			return out, &Error{Kind: KindTypeMismatch, Path: path, Target: t, Message: fmt.Sprintf("float %v overflows %s", f, t)}
		}
		out.SetFloat(f)
		return out, nil

	case reflect.Bool:
		b, err := readBoolean(raw, path, t)
		if err != nil {
			return out, err
		}
		out.SetBool(b)
		return out, nil

	case reflect.Slice:
		arr, err := readArray(raw, path, t)
		if err != nil {
			return out, err
		}
		out.Set(reflect.MakeSlice(t, len(arr), len(arr)))
		for i, elem := range arr {
			ev, err := d.decode(elem, t.Elem(), fmt.Sprintf("%s[%d]", path, i), nil)
			if err != nil {
				return out, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil

	case reflect.Array:
		arr, err := readArray(raw, path, t)
		if err != nil {
			return out, err
		}
		if len(arr) != t.Len() {
			return out, &Error{
				Kind:    KindTypeMismatch,
				Path:    path,
				Target:  t,
				Message: fmt.Sprintf("expected %d elements, found %d", t.Len(), len(arr)),
			}
		}
		for i, elem := range arr {
			ev, err := d.decode(elem, t.Elem(), fmt.Sprintf("%s[%d]", path, i), nil)
			if err != nil {
				return out, err
			}
			out.Index(i).Set(ev)
		}
		return out, nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			break
		}
		tbl, err := readTable(raw, path, t)
		if err != nil {
			return out, err
		}
		out.Set(reflect.MakeMapWithSize(t, len(tbl)))
		for _, k := range tbl.SortedKeys() {
			ev, err := d.decode(tbl[k], t.Elem(), joinPath(path, k), nil)
			if err != nil {
				return out, err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), ev)
		}
		return out, nil

	case reflect.Struct:
		tbl, err := readTable(raw, path, t)
		if err != nil {
			return out, err
		}
		if err := d.decodeStruct(tbl, out, path); err != nil {
			return out, err
		}
		return out, nil
	}

	return out, &Error{
		Kind:    KindTypeMismatch,
		Path:    path,
		Target:  t,
		Got:     raw.Category(),
		Message: fmt.Sprintf("no conversion registered and %s cannot be decoded natively", t),
	}
}

func overflow(path string, t reflect.Type, n int64) *Error {
	return &Error{
		Kind:    KindTypeMismatch,
		Path:    path,
		Target:  t,
		Want:    []value.Category{value.CategoryInteger},
		Got:     value.CategoryInteger,
		Message: fmt.Sprintf("integer %d out of range", n),
	}
}

// decodeStruct fills the exported fields of out from tbl.
func (d *decoder) decodeStruct(tbl value.Table, out reflect.Value, path string) error {
	t := out.Type()
	claimed := make(map[string]bool, len(tbl))

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag, err := parseFieldTag(field)
		if err != nil {
			return &Error{Kind: KindTypeMismatch, Path: path, Target: t, Message: err.Error()}
		}
		if tag.skip {
			continue
		}

		key, ok := lookupKey(tbl, field.Name, tag.name)
		if !ok {
			if tag.optional || field.Type.Kind() == reflect.Pointer {
				continue
			}
			name := tag.name
			if name == "" {
				name = snakeCase(field.Name)
			}
			return &Error{
				Kind:    KindMissingField,
				Path:    path,
				Target:  t,
				Message: fmt.Sprintf("missing field %q", name),
			}
		}
		claimed[key] = true

		fv, err := d.decode(tbl[key], field.Type, joinPath(path, key), tag.from)
		if err != nil {
			return err
		}
		out.Field(i).Set(fv)
	}

	if d.strict {
		for _, k := range tbl.SortedKeys() {
			if !claimed[k] {
				return &Error{
					Kind:    KindUnknownField,
					Path:    path,
					Target:  t,
					Message: fmt.Sprintf("unknown field %q", k),
				}
			}
		}
	}
	return nil
}

type fieldTag struct {
	name     string
	from     *value.Category
	optional bool
	skip     bool
}

// parseFieldTag reads `kat:"name,from=<category>,optional"`.
func parseFieldTag(f reflect.StructField) (fieldTag, error) {
	var tag fieldTag
	raw, ok := f.Tag.Lookup("kat")
	if !ok {
		return tag, nil
	}
	if raw == "-" {
		tag.skip = true
		return tag, nil
	}
	parts := strings.Split(raw, ",")
	tag.name = parts[0]
	for _, opt := range parts[1:] {
		switch {
		case opt == "optional":
			tag.optional = true
		case strings.HasPrefix(opt, "from="):
			c, err := value.ParseCategory(strings.TrimPrefix(opt, "from="))
			if err != nil {
				return tag, fmt.Errorf("field %s: %w", f.Name, err)
			}
			tag.from = &c
		case opt == "":
		default:
			return tag, fmt.Errorf("field %s: unknown kat tag option %q", f.Name, opt)
		}
	}
	return tag, nil
}

// lookupKey finds the document key for a field: the tag name if given,
// otherwise the snake_case field name, the exact field name, or a
// case-insensitive match.
func lookupKey(tbl value.Table, fieldName, tagName string) (string, bool) {
	if tagName != "" {
		_, ok := tbl[tagName]
		return tagName, ok
	}
	if snake := snakeCase(fieldName); tbl[snake] != nil {
		return snake, true
	}
	if tbl[fieldName] != nil {
		return fieldName, true
	}
	for _, k := range tbl.SortedKeys() {
		if strings.EqualFold(k, fieldName) {
			return k, true
		}
	}
	return "", false
}

// snakeCase converts a Go identifier to snake_case: TestName -> test_name,
// HTTPServer -> http_server, ID -> id.
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
