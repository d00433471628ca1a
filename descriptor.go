package schematic

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/Azhovan/schematic/env"
	"github.com/Azhovan/schematic/internal/normalize"
	"github.com/Azhovan/schematic/merge"
	"github.com/Azhovan/schematic/validate"
)

// FieldKind classifies how a field is decoded, merged and validated.
type FieldKind uint8

const (
	// FieldValue holds a plain value (scalar, slice, map, time types).
	FieldValue FieldKind = iota
	// FieldNested holds a nested configuration struct.
	FieldNested
	// FieldNestedPtr holds an optional nested struct (*T or Optional[T]).
	FieldNestedPtr
	// FieldNestedList holds a list of nested structs ([]T).
	FieldNestedList
	// FieldNestedMap holds nested structs keyed by name (map[string]T).
	FieldNestedMap
	// FieldExtends holds the ExtendsFrom references of a document.
	FieldExtends
)

func (k FieldKind) String() string {
	switch k {
	case FieldValue:
		return "value"
	case FieldNested:
		return "nested"
	case FieldNestedPtr:
		return "optional nested"
	case FieldNestedList:
		return "nested list"
	case FieldNestedMap:
		return "nested map"
	case FieldExtends:
		return "extends"
	default:
		return "unknown"
	}
}

// IsNested reports whether values of this kind are partials.
func (k FieldKind) IsNested() bool {
	return k >= FieldNested && k <= FieldNestedMap
}

// Field describes one configuration field and the behavior attached to it.
type Field struct {
	Name        string       // Go field name
	Key         string       // Document key
	Index       int          // Struct field index
	Type        reflect.Type // Declared Go type
	ValueType   reflect.Type // Stored type: the inner type for Optional and pointers
	Kind        FieldKind
	Optional    bool        // Optional[T] or pointer
	Nested      *Descriptor // Element descriptor for nested kinds
	Description string

	Env       string     // Declared environment variable name, without prefix
	EnvPrefix string     // Appended to the parent prefix for nested fields
	EnvParser env.Parser // nil uses env.Default

	DefaultFunc func(context any) (any, error)
	Merge       merge.Func // nil replaces
	Validators  []validate.Func

	Required   bool
	Min        string
	Max        string
	OneOf      []string
	Secret     bool
	Deprecated string
	Hidden     bool

	defaultText string
	hasDefault  bool
}

// HasDefault reports whether the field declares a default.
func (f *Field) HasDefault() bool {
	return f.hasDefault || f.DefaultFunc != nil
}

// defaultValue returns the field default, if any.
func (f *Field) defaultValue(context any) (any, bool, error) {
	if f.DefaultFunc != nil {
		v, err := f.DefaultFunc(context)
		if err != nil {
			return nil, false, fmt.Errorf("default for %s: %w", f.Key, err)
		}
		if v == nil {
			return nil, false, nil
		}
		v, err = coerceField(f, v)
		if err != nil {
			return nil, false, fmt.Errorf("default for %s: %w", f.Key, err)
		}
		return v, true, nil
	}
	if !f.hasDefault {
		return nil, false, nil
	}
	v, err := parseDefault(f, f.defaultText)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func parseDefault(f *Field, text string) (any, error) {
	if f.Kind == FieldExtends {
		return ExtendsFrom(splitList(text)), nil
	}
	v, err := env.Parse(text, f.ValueType)
	if err != nil {
		return nil, fmt.Errorf("invalid default for %s: %w", f.Key, err)
	}
	return v, nil
}

// Descriptor is the field registry of one configuration struct type. It is
// built once per type from `conf` tags and an optional FieldConfigurer.
type Descriptor struct {
	Type    reflect.Type
	Name    string
	Fields  []*Field
	byKey   map[string]*Field
	extends *Field
}

// Field returns the field stored under key.
func (d *Descriptor) Field(key string) (*Field, bool) {
	f, ok := d.byKey[key]
	return f, ok
}

// ExtendsField returns the field holding the document's extends list.
func (d *Descriptor) ExtendsField() (*Field, bool) {
	return d.extends, d.extends != nil
}

// FieldConfigurer is implemented by configuration types that attach
// functions to their fields. ConfigureFields is called once per type on a
// zero value.
type FieldConfigurer interface {
	ConfigureFields(fs *FieldSet)
}

// FieldSet is handed to ConfigureFields.
type FieldSet struct {
	desc *Descriptor
	errs []error
}

// Field selects a field by document key.
func (fs *FieldSet) Field(key string) *FieldOptions {
	f, ok := fs.desc.byKey[key]
	if !ok {
		fs.errs = append(fs.errs, fmt.Errorf("%s: unknown field %q", fs.desc.Name, key))
		return &FieldOptions{fs: fs, field: &Field{Key: key}}
	}
	return &FieldOptions{fs: fs, field: f}
}

// FieldOptions attaches behavior to one field.
type FieldOptions struct {
	fs    *FieldSet
	field *Field
}

// Default computes the field default from the loader context. Returning a
// nil value leaves the field unset.
func (o *FieldOptions) Default(fn func(context any) (any, error)) *FieldOptions {
	if o.field.Kind != FieldValue && o.field.Kind != FieldExtends {
		o.fs.errs = append(o.fs.errs, fmt.Errorf("%s: defaults are not supported on %s fields", o.field.Key, o.field.Kind))
		return o
	}
	o.field.DefaultFunc = fn
	return o
}

// Merge sets the merge strategy.
func (o *FieldOptions) Merge(fn merge.Func) *FieldOptions {
	o.field.Merge = fn
	return o
}

// Validate appends validators.
func (o *FieldOptions) Validate(fns ...validate.Func) *FieldOptions {
	o.field.Validators = append(o.field.Validators, fns...)
	return o
}

// EnvParser sets the parser used for the field's environment variable.
func (o *FieldOptions) EnvParser(p env.Parser) *FieldOptions {
	o.field.EnvParser = p
	return o
}

// Describe sets the field description used in generated schemas.
func (o *FieldOptions) Describe(text string) *FieldOptions {
	o.field.Description = text
	return o
}

var (
	descriptorMu sync.Mutex
	descriptors  = make(map[reflect.Type]*Descriptor)

	fieldConfigurerType = reflect.TypeOf((*FieldConfigurer)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	timeType            = reflect.TypeOf(time.Time{})
)

// DescriptorOf returns the field registry for T, building it on first use.
func DescriptorOf[T any]() (*Descriptor, error) {
	var zero T
	return describe(reflect.TypeOf(&zero).Elem())
}

func describe(t reflect.Type) (*Descriptor, error) {
	descriptorMu.Lock()
	defer descriptorMu.Unlock()

	building := make(map[reflect.Type]*Descriptor)
	d, err := buildDescriptor(t, building)
	if err != nil {
		return nil, err
	}
	for typ, desc := range building {
		descriptors[typ] = desc
	}
	return d, nil
}

func buildDescriptor(t reflect.Type, building map[reflect.Type]*Descriptor) (*Descriptor, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schematic: configuration type must be a struct, got %s", t)
	}
	if d, ok := descriptors[t]; ok {
		return d, nil
	}
	if d, ok := building[t]; ok {
		return d, nil
	}

	d := &Descriptor{
		Type:  t,
		Name:  t.Name(),
		byKey: make(map[string]*Field),
	}
	building[t] = d

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := parseTag(sf.Tag.Get("conf"))
		if tag.skip {
			continue
		}

		f, err := newField(sf, i, tag, building)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name(), sf.Name, err)
		}
		if other, ok := d.byKey[f.Key]; ok {
			return nil, fmt.Errorf("%s.%s: key %q already used by %s", t.Name(), sf.Name, f.Key, other.Name)
		}
		if f.Kind == FieldExtends {
			if d.extends != nil {
				return nil, fmt.Errorf("%s.%s: only one extends field is allowed", t.Name(), sf.Name)
			}
			d.extends = f
		}

		d.Fields = append(d.Fields, f)
		d.byKey[f.Key] = f
	}

	if reflect.PointerTo(t).Implements(fieldConfigurerType) {
		fs := &FieldSet{desc: d}
		reflect.New(t).Interface().(FieldConfigurer).ConfigureFields(fs)
		if err := errors.Join(fs.errs...); err != nil {
			return nil, err
		}
	}

	return d, nil
}

func newField(sf reflect.StructField, index int, tag tagConfig, building map[reflect.Type]*Descriptor) (*Field, error) {
	f := &Field{
		Name:        sf.Name,
		Key:         tag.name,
		Index:       index,
		Type:        sf.Type,
		ValueType:   sf.Type,
		Description: sf.Tag.Get("doc"),
		Env:         tag.env,
		EnvPrefix:   tag.envPrefix,
		Required:    tag.required,
		Min:         tag.min,
		Max:         tag.max,
		OneOf:       tag.oneof,
		Secret:      tag.secret,
		Deprecated:  tag.deprecated,
		Hidden:      tag.hidden,
		defaultText: tag.defValue,
		hasDefault:  tag.hasDefault,
	}
	if f.Key == "" {
		f.Key = normalize.DeriveFieldPath(sf.Name)
	}

	t := sf.Type
	switch {
	case t == extendsFromType:
		f.Kind = FieldExtends
	case isOptionalType(t):
		f.Optional = true
		f.ValueType = t.Field(0).Type
	case t.Kind() == reflect.Ptr:
		f.Optional = true
		f.ValueType = t.Elem()
	}

	var err error
	vt := f.ValueType
	switch {
	case f.Kind == FieldExtends:
	case isNestedStruct(vt) && f.Optional:
		f.Kind = FieldNestedPtr
		f.Nested, err = buildDescriptor(vt, building)
	case isNestedStruct(vt):
		f.Kind = FieldNested
		f.Nested, err = buildDescriptor(vt, building)
	case vt.Kind() == reflect.Slice && isNestedStruct(vt.Elem()) && !f.Optional:
		f.Kind = FieldNestedList
		f.Nested, err = buildDescriptor(vt.Elem(), building)
	case vt.Kind() == reflect.Map && vt.Key().Kind() == reflect.String && isNestedStruct(vt.Elem()) && !f.Optional:
		f.Kind = FieldNestedMap
		f.Nested, err = buildDescriptor(vt.Elem(), building)
	}
	if err != nil {
		return nil, err
	}

	if f.Kind.IsNested() {
		if tag.hasDefault {
			return nil, fmt.Errorf("default is not supported on %s fields", f.Kind)
		}
		if tag.parseEnv != "" || tag.env != "" {
			return nil, fmt.Errorf("env directives are not supported on %s fields, use env_prefix", f.Kind)
		}
	}

	if tag.merge != "" {
		fn, ok := merge.Lookup(tag.merge)
		if !ok {
			return nil, fmt.Errorf("unknown merge strategy %q (known: %s)", tag.merge, strings.Join(merge.Names(), ", "))
		}
		f.Merge = fn
	}

	if tag.parseEnv != "" {
		p, ok := env.Named(tag.parseEnv, f.ValueType)
		if !ok {
			return nil, fmt.Errorf("unknown env parser %q", tag.parseEnv)
		}
		f.EnvParser = p
	}

	if tag.hasDefault {
		if _, err := parseDefault(f, tag.defValue); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// isNestedStruct reports whether t is decoded as a nested configuration
// rather than as a single value.
func isNestedStruct(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t == timeType || isOptionalType(t) {
		return false
	}
	return !reflect.PointerTo(t).Implements(textUnmarshalerType)
}

func splitList(text string) []string {
	var out []string
	for _, item := range strings.Split(text, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
