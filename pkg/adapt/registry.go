package adapt

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/roach88/kat/pkg/value"
)

// conversion is one registered (source, target) rule.
type conversion struct {
	source reflect.Type
	apply  func(src reflect.Value) (reflect.Value, error)
}

// Registry holds the conversions user types declare.
//
// A conversion is registered once, as a plain Go function from a source type
// to a target type. The registry derives the "decode target from a document
// value" path from it: decode the raw value as the source, then apply the
// function. Sources may be primitive (string, int64, float64, bool,
// value.Datetime, slices, value.Table, value.Value) or any other type the
// registry can decode, which makes conversions chain.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	conversions map[reflect.Type][]conversion
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conversions: make(map[reflect.Type][]conversion)}
}

// Default is the process-wide registry used when none is configured.
// Conversions are normally registered from package init functions or
// package-level variables.
var Default = NewRegistry()

// Adapter is the handle returned by registration. It exposes both halves of
// one conversion: building T from an S already in hand, and decoding T
// straight from a document value.
type Adapter[S, T any] struct {
	registry *Registry
	fn       func(S) (T, error)
}

// From builds a T from s. A failing conversion is reported as a
// constructor failure.
func (a Adapter[S, T]) From(s S) (T, error) {
	out, err := a.fn(s)
	if err != nil {
		var zero T
		return zero, constructorFailure("", reflect.TypeOf((*S)(nil)).Elem(), reflect.TypeOf((*T)(nil)).Elem(), err)
	}
	return out, nil
}

// Decode reads raw as S, then applies the conversion.
func (a Adapter[S, T]) Decode(raw value.Value) (T, error) {
	var zero T
	s, err := Decode[S](a.registry, raw)
	if err != nil {
		return zero, err
	}
	return a.From(s)
}

// Register declares that T is constructible from S with a total function.
// It panics if T is a type the decoder builds natively (string, int, []int,
// time.Time, ...) or if the conversion would close a cycle; both are
// programming errors. Named types declared by users, including named
// integers and slices, are valid targets.
func Register[S, T any](r *Registry, fn func(S) T) Adapter[S, T] {
	return RegisterE(r, func(s S) (T, error) { return fn(s), nil })
}

// RegisterE declares that T is constructible from S with a function that
// may fail. Failures surface as constructor failures during decoding.
func RegisterE[S, T any](r *Registry, fn func(S) (T, error)) Adapter[S, T] {
	src := reflect.TypeOf((*S)(nil)).Elem()
	dst := reflect.TypeOf((*T)(nil)).Elem()

	r.add(dst, conversion{
		source: src,
		apply: func(v reflect.Value) (reflect.Value, error) {
			s, _ := v.Interface().(S)
			out, err := fn(s)
			if err != nil {
				return reflect.Value{}, err
			}
			rv := reflect.New(dst).Elem()
			rv.Set(reflect.ValueOf(&out).Elem())
			return rv, nil
		},
	})

	return Adapter[S, T]{registry: r, fn: fn}
}

func (r *Registry) add(dst reflect.Type, c conversion) {
	if nativeTarget(dst) {
		panic(fmt.Sprintf("adapt: cannot register a conversion into native type %s", dst))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	src := derefType(c.source)
	if src == dst || r.reachesLocked(src, dst, map[reflect.Type]bool{}) {
		panic(fmt.Sprintf("adapt: conversion %s -> %s closes a cycle", c.source, dst))
	}
	r.conversions[dst] = append(r.conversions[dst], c)
}

// reachesLocked reports whether decoding from builds on target. Pointers
// decode through their element without consuming any document value, so
// they are followed; slices, maps and struct fields consume one level of
// nesting and cannot loop on a finite document.
func (r *Registry) reachesLocked(from, target reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[from] {
		return false
	}
	seen[from] = true
	for _, c := range r.conversions[from] {
		src := derefType(c.source)
		if src == target || r.reachesLocked(src, target, seen) {
			return true
		}
	}
	return false
}

// derefType strips every pointer level from t.
func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// lookup returns a snapshot of the conversions registered for t.
func (r *Registry) lookup(t reflect.Type) []conversion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conversions[t]
}

// Registered reports whether T has at least one registered conversion.
func Registered[T any](r *Registry) bool {
	return len(r.lookup(reflect.TypeOf((*T)(nil)).Elem())) > 0
}

// Accepts returns the categories a document value may have to decode into T.
// A result containing value.CategoryAny accepts every category.
func Accepts[T any](r *Registry) []value.Category {
	return r.accepts(reflect.TypeOf((*T)(nil)).Elem(), map[reflect.Type]bool{})
}

// accepts computes the categories t can be decoded from.
func (r *Registry) accepts(t reflect.Type, seen map[reflect.Type]bool) []value.Category {
	if seen[t] {
		return nil
	}
	seen[t] = true

	if convs := r.lookup(t); len(convs) > 0 {
		var out []value.Category
		for _, c := range convs {
			out = appendUnique(out, r.accepts(c.source, seen)...)
		}
		return out
	}
	if c, ok := builtinCategory(t); ok {
		return []value.Category{c}
	}
	if t.Kind() == reflect.Pointer {
		return r.accepts(t.Elem(), seen)
	}
	return nil
}

// choose picks the conversion for a raw value of category got.
// Direct conversions from got win over chained ones, which win over
// conversions from the generic value. Ties go to registration order.
func (r *Registry) choose(convs []conversion, got value.Category) (conversion, bool) {
	const (
		direct = iota
		chained
		generic
		none
	)
	best, bestTier := conversion{}, none
	for _, c := range convs {
		tier := none
		cats := r.accepts(c.source, map[reflect.Type]bool{})
		adapted := len(r.lookup(derefType(c.source))) > 0
		switch {
		case !adapted && len(cats) == 1 && cats[0] == got:
			tier = direct
		case containsCategory(cats, got):
			tier = chained
		case containsCategory(cats, value.CategoryAny):
			tier = generic
		}
		if tier < bestTier {
			best, bestTier = c, tier
		}
	}
	return best, bestTier != none
}

// chooseFrom picks the first conversion whose source accepts the forced
// category.
func (r *Registry) chooseFrom(convs []conversion, from value.Category) (conversion, bool) {
	for _, c := range convs {
		cats := r.accepts(c.source, map[reflect.Type]bool{})
		for _, cat := range cats {
			if cat == from {
				return c, true
			}
		}
	}
	return conversion{}, false
}

func containsCategory(cats []value.Category, c value.Category) bool {
	for _, cat := range cats {
		if cat == c {
			return true
		}
	}
	return false
}

func appendUnique(dst []value.Category, cats ...value.Category) []value.Category {
	for _, c := range cats {
		if !containsCategory(dst, c) {
			dst = append(dst, c)
		}
	}
	return dst
}
