package schema

// Kind identifies a schema type variant.
type Kind int

const (
	KindUnknown Kind = iota
	KindBoolean
	KindNull
	KindArray
	KindObject
	KindStruct
	KindString
	KindInteger
	KindFloat
	KindLiteral
	KindUnion
	KindReference
)

var kindNames = map[Kind]string{
	KindUnknown:   "unknown",
	KindBoolean:   "boolean",
	KindNull:      "null",
	KindArray:     "array",
	KindObject:    "object",
	KindStruct:    "struct",
	KindString:    "string",
	KindInteger:   "integer",
	KindFloat:     "float",
	KindLiteral:   "literal",
	KindUnion:     "union",
	KindReference: "reference",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Type is implemented by every schema type variant.
type Type interface {
	Kind() Kind
}

// UnknownType is used for values whose shape cannot be described.
type UnknownType struct{}

func (*UnknownType) Kind() Kind { return KindUnknown }

// BooleanType describes true/false values.
type BooleanType struct{}

func (*BooleanType) Kind() Kind { return KindBoolean }

// NullType describes the absence of a value.
type NullType struct{}

func (*NullType) Kind() Kind { return KindNull }

// ArrayType describes an ordered list.
type ArrayType struct {
	Items     Type
	MinLength *int
	MaxLength *int
	Unique    bool
}

func (*ArrayType) Kind() Kind { return KindArray }

// ObjectType describes a map with uniform key and value types.
type ObjectType struct {
	KeyType   Type
	ValueType Type
	MinFields *int
	MaxFields *int
}

func (*ObjectType) Kind() Kind { return KindObject }

// StructType describes a record with a fixed, ordered set of fields.
type StructType struct {
	Fields   []*Field
	Partial  bool
	Required []string
}

func (*StructType) Kind() Kind { return KindStruct }

// Field returns the field with the given name.
func (s *StructType) Field(name string) (*Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// StringType describes text values.
type StringType struct {
	Format    string // e.g. "duration", "email", "uri", "ip"
	MinLength *int
	MaxLength *int
	Pattern   string
}

func (*StringType) Kind() Kind { return KindString }

// IntegerKind is the storage width of an integer.
type IntegerKind string

const (
	Int    IntegerKind = "int"
	Int8   IntegerKind = "int8"
	Int16  IntegerKind = "int16"
	Int32  IntegerKind = "int32"
	Int64  IntegerKind = "int64"
	Uint   IntegerKind = "uint"
	Uint8  IntegerKind = "uint8"
	Uint16 IntegerKind = "uint16"
	Uint32 IntegerKind = "uint32"
	Uint64 IntegerKind = "uint64"
)

// IntegerType describes whole numbers.
type IntegerType struct {
	Width  IntegerKind
	Min    *int64
	Max    *int64
	Format string
}

func (*IntegerType) Kind() Kind { return KindInteger }

// FloatKind is the storage width of a float.
type FloatKind string

const (
	Float32 FloatKind = "float32"
	Float64 FloatKind = "float64"
)

// FloatType describes floating point numbers.
type FloatType struct {
	Width  FloatKind
	Min    *float64
	Max    *float64
	Format string
}

func (*FloatType) Kind() Kind { return KindFloat }

// LiteralType describes exactly one allowed value.
type LiteralType struct {
	Value any
}

func (*LiteralType) Kind() Kind { return KindLiteral }

// UnionOperator selects how union variants combine.
type UnionOperator string

const (
	AnyOf UnionOperator = "anyOf"
	OneOf UnionOperator = "oneOf"
)

// UnionType describes a value matching one or more variants.
type UnionType struct {
	Variants []Type
	Operator UnionOperator
}

func (*UnionType) Kind() Kind { return KindUnion }

// IsNullable reports whether one of the variants is null.
func (u *UnionType) IsNullable() bool {
	for _, v := range u.Variants {
		if v.Kind() == KindNull {
			return true
		}
	}
	return false
}

// ReferenceType points at a named schema registered in the same Generator.
type ReferenceType struct {
	Name string
}

func (*ReferenceType) Kind() Kind { return KindReference }

// Field is one named member of a StructType.
type Field struct {
	Name        string
	Description string
	Type        Type
	Deprecated  string // Non-empty marks the field deprecated, with a reason when known
	Hidden      bool
	Nullable    bool
	Optional    bool
	Env         string
}

// Schema is a named, top-level type description.
type Schema struct {
	Name        string
	Description string
	Type        Type
}
