package schematic

import (
	"reflect"
	"strconv"
	"time"

	"github.com/Azhovan/schematic/env"
	"github.com/Azhovan/schematic/schema"
)

var durationType = reflect.TypeOf(time.Duration(0))

// SchemaOf registers the schema of T, and of every nested struct it
// reaches, in g and returns a reference to it. With partial set every field
// is optional and the schemas are named "Partial" + type name.
func SchemaOf[T any](g *schema.Generator, partial bool) (schema.Type, error) {
	d, err := DescriptorOf[T]()
	if err != nil {
		return nil, err
	}
	b := &schemaBuilder{partial: partial}
	return b.structRef(g, d), nil
}

// GenerateSchema renders the schema of T and its nested structs.
func GenerateSchema[T any](r schema.Renderer) (string, error) {
	g := schema.NewGenerator()
	if _, err := SchemaOf[T](g, false); err != nil {
		return "", err
	}
	return g.Generate(r)
}

type schemaBuilder struct {
	partial bool
}

func (b *schemaBuilder) structRef(g *schema.Generator, d *Descriptor) schema.Type {
	name := d.Name
	if name == "" {
		name = d.Type.String()
	}
	if b.partial {
		name = "Partial" + name
	}

	return g.Add(name, "", func(g *schema.Generator) schema.Type {
		fields := make([]*schema.Field, 0, len(d.Fields))
		for _, f := range d.Fields {
			fields = append(fields, b.field(g, f))
		}
		s := schema.NewStruct(fields...)
		s.Partial = b.partial
		return s
	})
}

func (b *schemaBuilder) field(g *schema.Generator, f *Field) *schema.Field {
	sf := schema.NewField(f.Key, b.fieldType(g, f))
	sf.Description = f.Description
	sf.Deprecated = f.Deprecated
	sf.Hidden = f.Hidden
	sf.Nullable = f.Optional
	sf.Optional = b.partial || !f.Required
	sf.Env = f.Env
	if f.Optional {
		sf.Type = schema.NewNullable(sf.Type)
	}
	return sf
}

func (b *schemaBuilder) fieldType(g *schema.Generator, f *Field) schema.Type {
	switch f.Kind {
	case FieldNested, FieldNestedPtr:
		return b.structRef(g, f.Nested)
	case FieldNestedList:
		return schema.NewArray(b.structRef(g, f.Nested))
	case FieldNestedMap:
		return schema.NewObject(&schema.StringType{}, b.structRef(g, f.Nested))
	case FieldExtends:
		return schema.NewUnion(schema.AnyOf, &schema.StringType{}, schema.NewArray(&schema.StringType{}))
	}

	if len(f.OneOf) > 0 {
		variants := make([]schema.Type, 0, len(f.OneOf))
		for _, option := range f.OneOf {
			var literal any = option
			if v, err := env.Parse(option, f.ValueType); err == nil {
				literal = v
			}
			variants = append(variants, schema.NewLiteral(literal))
		}
		return schema.NewUnion(schema.OneOf, variants...)
	}

	t := b.goType(g, f.ValueType)
	applyBounds(t, f.Min, f.Max)
	return t
}

func (b *schemaBuilder) goType(g *schema.Generator, t reflect.Type) schema.Type {
	switch t {
	case durationType:
		return &schema.StringType{Format: "duration"}
	case timeType:
		return &schema.StringType{Format: "date-time"}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &schema.BooleanType{}
	case reflect.String:
		return &schema.StringType{}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &schema.IntegerType{Width: schema.IntegerKind(t.Kind().String())}
	case reflect.Float32, reflect.Float64:
		return &schema.FloatType{Width: schema.FloatKind(t.Kind().String())}
	case reflect.Slice, reflect.Array:
		return schema.NewArray(b.goType(g, t.Elem()))
	case reflect.Map:
		return schema.NewObject(b.goType(g, t.Key()), b.goType(g, t.Elem()))
	case reflect.Ptr:
		return schema.NewNullable(b.goType(g, t.Elem()))
	case reflect.Struct:
		if isNestedStruct(t) {
			if d, err := describe(t); err == nil {
				return b.structRef(g, d)
			}
			return &schema.UnknownType{}
		}
		// Text unmarshalers are written as strings.
		return &schema.StringType{}
	default:
		return &schema.UnknownType{}
	}
}

// applyBounds copies min/max directives onto the matching constraint.
func applyBounds(t schema.Type, min, max string) {
	if min == "" && max == "" {
		return
	}
	switch st := t.(type) {
	case *schema.IntegerType:
		st.Min = parseInt64(min)
		st.Max = parseInt64(max)
	case *schema.FloatType:
		st.Min = parseFloat64(min)
		st.Max = parseFloat64(max)
	case *schema.StringType:
		st.MinLength = parseInt(min)
		st.MaxLength = parseInt(max)
	case *schema.ArrayType:
		st.MinLength = parseInt(min)
		st.MaxLength = parseInt(max)
	case *schema.ObjectType:
		st.MinFields = parseInt(min)
		st.MaxFields = parseInt(max)
	}
}

func parseInt64(s string) *int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func parseFloat64(s string) *float64 {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &n
}

func parseInt(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
