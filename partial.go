package schematic

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/Azhovan/schematic/format"
)

// Partial holds the fields one layer explicitly sets. An absent field
// inherits from less specific layers. Value fields are stored as their Go
// value; nested fields hold *Partial, []*Partial or map[string]*Partial.
type Partial struct {
	desc   *Descriptor
	values map[string]any
}

// NewPartial returns an empty partial for d.
func NewPartial(d *Descriptor) *Partial {
	return &Partial{desc: d, values: make(map[string]any)}
}

// Descriptor returns the registry the partial is shaped by.
func (p *Partial) Descriptor() *Descriptor {
	return p.desc
}

// Get returns the value stored under key.
func (p *Partial) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is set.
func (p *Partial) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Set stores value under key after checking it against the field type.
func (p *Partial) Set(key string, value any) error {
	f, ok := p.desc.Field(key)
	if !ok {
		return fmt.Errorf("%s: unknown field %q", p.desc.Name, key)
	}
	v, err := coerceField(f, value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", p.desc.Name, key, err)
	}
	p.values[key] = v
	return nil
}

// Delete unsets key.
func (p *Partial) Delete(key string) {
	delete(p.values, key)
}

// Len returns the number of set fields.
func (p *Partial) Len() int {
	return len(p.values)
}

// IsEmpty reports whether no field is set.
func (p *Partial) IsEmpty() bool {
	return len(p.values) == 0
}

// Keys returns the set keys in declaration order.
func (p *Partial) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for _, f := range p.desc.Fields {
		if _, ok := p.values[f.Key]; ok {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Lookup follows a dot separated key path through nested partials.
func (p *Partial) Lookup(path string) (any, bool) {
	current := p
	keys := strings.Split(path, ".")
	for i, key := range keys {
		v, ok := current.values[key]
		if !ok {
			return nil, false
		}
		if i == len(keys)-1 {
			return v, true
		}
		next, ok := v.(*Partial)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// Extends returns the document's extends references.
func (p *Partial) Extends() ExtendsFrom {
	f, ok := p.desc.ExtendsField()
	if !ok {
		return nil
	}
	v, _ := p.values[f.Key].(ExtendsFrom)
	return v
}

// Clone returns a deep copy of the partial tree. Slice and map values are
// copied one level deep.
func (p *Partial) Clone() *Partial {
	if p == nil {
		return nil
	}
	out := NewPartial(p.desc)
	for key, v := range p.values {
		out.values[key] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case *Partial:
		return val.Clone()
	case []*Partial:
		out := make([]*Partial, len(val))
		for i, item := range val {
			out[i] = item.Clone()
		}
		return out
	case map[string]*Partial:
		out := make(map[string]*Partial, len(val))
		for k, item := range val {
			out[k] = item.Clone()
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface()
	default:
		return v
	}
}

// coerceField checks that v can be stored in f and converts named types of
// the same kind (e.g. a bool returned for a `type Flag bool` field).
func coerceField(f *Field, v any) (any, error) {
	switch f.Kind {
	case FieldNested, FieldNestedPtr:
		nested, ok := v.(*Partial)
		if !ok || nested.desc != f.Nested {
			return nil, fmt.Errorf("expected a %s partial, got %T", f.Nested.Name, v)
		}
		return nested, nil
	case FieldNestedList:
		list, ok := v.([]*Partial)
		if !ok {
			return nil, fmt.Errorf("expected a list of %s partials, got %T", f.Nested.Name, v)
		}
		return list, nil
	case FieldNestedMap:
		m, ok := v.(map[string]*Partial)
		if !ok {
			return nil, fmt.Errorf("expected a map of %s partials, got %T", f.Nested.Name, v)
		}
		return m, nil
	case FieldExtends:
		switch refs := v.(type) {
		case ExtendsFrom:
			return refs, nil
		case []string:
			return ExtendsFrom(refs), nil
		case string:
			return ExtendsFrom(splitList(refs)), nil
		}
		return nil, fmt.Errorf("expected a string or list of strings, got %T", v)
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, fmt.Errorf("expected %s, got nil", f.ValueType)
	}
	if rv.Type() == f.ValueType {
		return v, nil
	}
	if rv.Type().AssignableTo(f.ValueType) || (rv.Kind() == f.ValueType.Kind() && rv.Type().ConvertibleTo(f.ValueType)) {
		return rv.Convert(f.ValueType).Interface(), nil
	}
	return nil, fmt.Errorf("expected %s, got %T", f.ValueType, v)
}

// decoder turns a parsed document into a Partial. Type mismatches and, in
// strict mode, unknown keys are reported as *format.ParserError.
type decoder struct {
	name    string
	content string
	strict  bool
}

// DecodePartial converts a parsed document into a partial of d.
func DecodePartial(d *Descriptor, doc map[string]any, name, content string, strict bool) (*Partial, error) {
	dec := &decoder{name: name, content: content, strict: strict}
	return dec.partial(d, doc, nil)
}

func (dec *decoder) fail(path Path, msg string, args ...any) error {
	return &format.ParserError{
		Name:    dec.name,
		Content: dec.content,
		Path:    path.String(),
		Message: fmt.Sprintf(msg, args...),
	}
}

func (dec *decoder) partial(d *Descriptor, doc map[string]any, path Path) (*Partial, error) {
	p := NewPartial(d)

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fieldPath := path.JoinKey(key)
		f, ok := d.Field(key)
		if !ok {
			if dec.strict {
				return nil, dec.fail(fieldPath, "unknown field %q", key)
			}
			continue
		}

		raw := doc[key]
		if raw == nil {
			continue
		}

		v, err := dec.value(f, raw, fieldPath)
		if err != nil {
			return nil, err
		}
		p.values[f.Key] = v
	}

	return p, nil
}

func (dec *decoder) value(f *Field, raw any, path Path) (any, error) {
	switch f.Kind {
	case FieldNested, FieldNestedPtr:
		doc, ok := raw.(map[string]any)
		if !ok {
			return nil, dec.fail(path, "expected an object, found %s", format.Describe(raw))
		}
		return dec.partial(f.Nested, doc, path)

	case FieldNestedList:
		items, ok := raw.([]any)
		if !ok {
			return nil, dec.fail(path, "expected an array, found %s", format.Describe(raw))
		}
		list := make([]*Partial, 0, len(items))
		for i, item := range items {
			itemPath := path.JoinIndex(i)
			doc, ok := item.(map[string]any)
			if !ok {
				return nil, dec.fail(itemPath, "expected an object, found %s", format.Describe(item))
			}
			elem, err := dec.partial(f.Nested, doc, itemPath)
			if err != nil {
				return nil, err
			}
			list = append(list, elem)
		}
		return list, nil

	case FieldNestedMap:
		entries, ok := raw.(map[string]any)
		if !ok {
			return nil, dec.fail(path, "expected an object, found %s", format.Describe(raw))
		}
		m := make(map[string]*Partial, len(entries))
		for key, item := range entries {
			itemPath := path.JoinKey(key)
			doc, ok := item.(map[string]any)
			if !ok {
				return nil, dec.fail(itemPath, "expected an object, found %s", format.Describe(item))
			}
			elem, err := dec.partial(f.Nested, doc, itemPath)
			if err != nil {
				return nil, err
			}
			m[key] = elem
		}
		return m, nil

	case FieldExtends:
		switch refs := raw.(type) {
		case string:
			return ExtendsFrom(splitList(refs)), nil
		case []any:
			out := make(ExtendsFrom, 0, len(refs))
			for i, ref := range refs {
				s, ok := ref.(string)
				if !ok {
					return nil, dec.fail(path.JoinIndex(i), "expected a string, found %s", format.Describe(ref))
				}
				out = append(out, s)
			}
			return out, nil
		}
		return nil, dec.fail(path, "expected a string or an array of strings, found %s", format.Describe(raw))
	}

	v, err := decodeValue(raw, f.ValueType)
	if err != nil {
		return nil, dec.fail(path, "%v", err)
	}
	return v, nil
}

// decodeValue converts a document value into t. Conversions are strict
// except for the hooks below: strings into durations and text
// unmarshalers, and whole floats into integers.
func decodeValue(raw any, t reflect.Type) (any, error) {
	out := reflect.New(t)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out.Interface(),
		ErrorUnused: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			numberHook,
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, decodeError(err, t)
	}
	return out.Elem().Interface(), nil
}

// numberHook rejects numbers the target field cannot hold exactly.
// mapstructure truncates fractions and wraps out of range integers.
func numberHook(from, to reflect.Type, data any) (any, error) {
	target := reflect.Zero(to)
	v := reflect.ValueOf(data)

	switch {
	case isIntKind(to.Kind()):
		switch {
		case isIntKind(from.Kind()):
			if target.OverflowInt(v.Int()) {
				return nil, outOfRange(to, data)
			}
		case isUintKind(from.Kind()):
			if v.Uint() > math.MaxInt64 || target.OverflowInt(int64(v.Uint())) {
				return nil, outOfRange(to, data)
			}
		case isFloatKind(from.Kind()):
			f := v.Float()
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("expected %s, found fractional number %v", to, f)
			}
			if f < -(1<<63) || f >= 1<<63 || target.OverflowInt(int64(f)) {
				return nil, outOfRange(to, data)
			}
		}

	case isUintKind(to.Kind()):
		switch {
		case isIntKind(from.Kind()):
			n := v.Int()
			if n < 0 {
				return nil, fmt.Errorf("expected %s, found negative number %d", to, n)
			}
			if target.OverflowUint(uint64(n)) {
				return nil, outOfRange(to, data)
			}
		case isUintKind(from.Kind()):
			if target.OverflowUint(v.Uint()) {
				return nil, outOfRange(to, data)
			}
		case isFloatKind(from.Kind()):
			f := v.Float()
			if f != math.Trunc(f) {
				return nil, fmt.Errorf("expected %s, found fractional number %v", to, f)
			}
			if f < 0 {
				return nil, fmt.Errorf("expected %s, found negative number %v", to, f)
			}
			if f >= 1<<64 || target.OverflowUint(uint64(f)) {
				return nil, outOfRange(to, data)
			}
		}

	case isFloatKind(to.Kind()):
		if isFloatKind(from.Kind()) && target.OverflowFloat(v.Float()) {
			return nil, outOfRange(to, data)
		}
	}
	return data, nil
}

func outOfRange(to reflect.Type, data any) error {
	return fmt.Errorf("number %v is out of range for %s", data, to)
}

func isIntKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUintKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func decodeError(err error, t reflect.Type) error {
	if merr, ok := err.(*mapstructure.Error); ok && len(merr.Errors) > 0 {
		return fmt.Errorf("invalid %s: %s", t, strings.Join(merr.Errors, "; "))
	}
	return fmt.Errorf("invalid %s: %w", t, err)
}

// defaultsPartial builds the layer of declared defaults for d. Nested
// structs are always present; optional nested, list and map fields start
// unset.
func defaultsPartial(d *Descriptor, context any) (*Partial, error) {
	p := NewPartial(d)
	for _, f := range d.Fields {
		switch f.Kind {
		case FieldNested:
			nested, err := defaultsPartial(f.Nested, context)
			if err != nil {
				return nil, err
			}
			p.values[f.Key] = nested
		case FieldValue, FieldExtends:
			v, ok, err := f.defaultValue(context)
			if err != nil {
				return nil, err
			}
			if ok {
				p.values[f.Key] = v
			}
		}
	}
	return p, nil
}

// Defaults returns the partial holding T's declared defaults.
func Defaults[T any](context any) (*Partial, error) {
	d, err := DescriptorOf[T]()
	if err != nil {
		return nil, err
	}
	return defaultsPartial(d, context)
}
