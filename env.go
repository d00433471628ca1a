package schematic

import (
	"github.com/Azhovan/schematic/env"
	"github.com/Azhovan/schematic/internal/normalize"
)

// EnvManager reads environment variables into a partial.
//
// A field takes part when it declares `env:NAME` or when a prefix is in
// effect, in which case the name is derived from the Go field name
// (MaxConns -> MAX_CONNS). The variable read is prefix + name. Nested
// structs append their `env_prefix` to the parent prefix; without one
// they append the derived name and "_" when a prefix is in effect.
type EnvManager struct {
	prefix string
	lookup env.Lookup
	count  int
	keys   map[string]string
}

// NewEnvManager returns an EnvManager reading through lookup. A nil lookup
// reads the process environment.
func NewEnvManager(prefix string, lookup env.Lookup) *EnvManager {
	if lookup == nil {
		lookup = env.OS
	}
	return &EnvManager{prefix: prefix, lookup: lookup, keys: make(map[string]string)}
}

// Count returns how many variables the last Overlay consumed.
func (m *EnvManager) Count() int {
	return m.count
}

// Keys maps the dot path of every field the last Overlay set to the
// variable it was read from.
func (m *EnvManager) Keys() map[string]string {
	return m.keys
}

// Overlay reads the fields of d. A variable that is unset or empty leaves
// its field unset. A value that fails to parse aborts with *EnvError.
// Each call starts Count and Keys afresh.
func (m *EnvManager) Overlay(d *Descriptor) (*Partial, error) {
	m.count = 0
	m.keys = make(map[string]string)
	p, _, err := m.read(d, m.prefix, nil)
	return p, err
}

func (m *EnvManager) read(d *Descriptor, prefix string, path Path) (*Partial, int, error) {
	p := NewPartial(d)
	consumed := 0

	for _, f := range d.Fields {
		fieldPath := path.JoinKey(f.Key)

		switch f.Kind {
		case FieldNested, FieldNestedPtr:
			nested, n, err := m.read(f.Nested, nestedEnvPrefix(prefix, f), fieldPath)
			if err != nil {
				return nil, 0, err
			}
			if n > 0 {
				p.values[f.Key] = nested
				consumed += n
			}
			continue
		case FieldNestedList, FieldNestedMap, FieldExtends:
			continue
		}

		name := f.Env
		if name == "" {
			if prefix == "" {
				continue
			}
			name = normalize.ToEnvName(f.Name)
		}
		key := prefix + name

		raw, ok := m.lookup(key)
		if !ok || raw == "" {
			continue
		}

		parser := f.EnvParser
		if parser == nil {
			parser = env.Default(f.ValueType)
		}
		v, err := parser(raw)
		if err != nil {
			return nil, 0, &EnvError{Key: key, Err: err}
		}
		if v == nil {
			continue
		}
		if v, err = coerceField(f, v); err != nil {
			return nil, 0, &EnvError{Key: key, Err: err}
		}

		p.values[f.Key] = v
		m.keys[fieldPath.String()] = key
		m.count++
		consumed++
	}

	return p, consumed, nil
}

func nestedEnvPrefix(prefix string, f *Field) string {
	switch {
	case f.EnvPrefix != "":
		return prefix + f.EnvPrefix
	case prefix != "":
		return prefix + normalize.ToEnvName(f.Name) + "_"
	default:
		return ""
	}
}
