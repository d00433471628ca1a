// Package merge provides the strategies that combine two present values of
// one configuration field.
//
// Strategies operate on the field's Go value (slices, maps, scalars) and
// are selected per field with the `merge:<name>` tag directive or attached
// programmatically. Replace is the default.
package merge

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Func combines the previous and next value of a field. Both are present
// when it is called. Returning a nil value discards both, leaving the
// field unset. context is the loader's shared context value.
type Func func(prev, next, context any) (any, error)

// Discard always leaves the field unset.
func Discard(prev, next, context any) (any, error) {
	return nil, nil
}

// Preserve keeps the previous value.
func Preserve(prev, next, context any) (any, error) {
	return prev, nil
}

// Replace keeps the next value.
func Replace(prev, next, context any) (any, error) {
	return next, nil
}

// Append concatenates next after prev. Both must be slices of the same type.
func Append(prev, next, context any) (any, error) {
	p, n, err := sameKind(prev, next, reflect.Slice, "append")
	if err != nil {
		return nil, err
	}
	out := reflect.MakeSlice(p.Type(), 0, p.Len()+n.Len())
	out = reflect.AppendSlice(out, p)
	out = reflect.AppendSlice(out, n)
	return out.Interface(), nil
}

// Prepend concatenates next before prev. Both must be slices of the same type.
func Prepend(prev, next, context any) (any, error) {
	p, n, err := sameKind(prev, next, reflect.Slice, "prepend")
	if err != nil {
		return nil, err
	}
	out := reflect.MakeSlice(p.Type(), 0, p.Len()+n.Len())
	out = reflect.AppendSlice(out, n)
	out = reflect.AppendSlice(out, p)
	return out.Interface(), nil
}

// Map performs a shallow key-wise merge; values from next win per key.
func Map(prev, next, context any) (any, error) {
	p, n, err := sameKind(prev, next, reflect.Map, "merge map")
	if err != nil {
		return nil, err
	}
	out := reflect.MakeMapWithSize(p.Type(), p.Len()+n.Len())
	copyMap(out, p)
	copyMap(out, n)
	return out.Interface(), nil
}

// Set unions two sets. Sets are maps (map[K]struct{}, map[K]bool) or slices
// of comparable elements; for slices the order of first appearance is kept.
// A member present in both is taken from next.
func Set(prev, next, context any) (any, error) {
	pv := reflect.ValueOf(prev)
	if pv.Kind() == reflect.Map {
		return Map(prev, next, context)
	}

	p, n, err := sameKind(prev, next, reflect.Slice, "merge set")
	if err != nil {
		return nil, err
	}
	if !p.Type().Elem().Comparable() {
		return nil, fmt.Errorf("merge set: element type %s is not comparable", p.Type().Elem())
	}

	out := reflect.MakeSlice(p.Type(), 0, p.Len()+n.Len())
	index := make(map[any]int, p.Len()+n.Len())
	for _, src := range []reflect.Value{p, n} {
		for i := 0; i < src.Len(); i++ {
			item := src.Index(i)
			key := item.Interface()
			if at, ok := index[key]; ok {
				out.Index(at).Set(item)
				continue
			}
			index[key] = out.Len()
			out = reflect.Append(out, item)
		}
	}
	return out.Interface(), nil
}

// Of adapts a typed strategy. keep=false discards both values.
func Of[T any](fn func(prev, next T, context any) (merged T, keep bool, err error)) Func {
	return func(prev, next, context any) (any, error) {
		p, ok := prev.(T)
		if !ok {
			return nil, fmt.Errorf("merge: expected %T, got %T", p, prev)
		}
		n, ok := next.(T)
		if !ok {
			return nil, fmt.Errorf("merge: expected %T, got %T", n, next)
		}
		merged, keep, err := fn(p, n, context)
		if err != nil || !keep {
			return nil, err
		}
		return merged, nil
	}
}

func sameKind(prev, next any, kind reflect.Kind, op string) (reflect.Value, reflect.Value, error) {
	p := reflect.ValueOf(prev)
	n := reflect.ValueOf(next)
	if p.Kind() != kind || n.Kind() != kind {
		return p, n, fmt.Errorf("%s: expected two %s values, got %T and %T", op, kind, prev, next)
	}
	if p.Type() != n.Type() {
		return p, n, fmt.Errorf("%s: mismatched types %s and %s", op, p.Type(), n.Type())
	}
	return p, n, nil
}

func copyMap(dst, src reflect.Value) {
	iter := src.MapRange()
	for iter.Next() {
		dst.SetMapIndex(iter.Key(), iter.Value())
	}
}

var (
	namedMu sync.RWMutex
	named   = map[string]Func{
		"replace":  Replace,
		"discard":  Discard,
		"preserve": Preserve,
		"append":   Append,
		"prepend":  Prepend,
		"map":      Map,
		"set":      Set,
	}
)

// Register makes a strategy available to the `merge:<name>` tag directive.
func Register(name string, fn Func) {
	namedMu.Lock()
	defer namedMu.Unlock()
	named[name] = fn
}

// Lookup returns the strategy registered under name.
func Lookup(name string) (Func, bool) {
	namedMu.RLock()
	defer namedMu.RUnlock()
	fn, ok := named[name]
	return fn, ok
}

// Names lists the registered strategy names in sorted order.
func Names() []string {
	namedMu.RLock()
	defer namedMu.RUnlock()
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
