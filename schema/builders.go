package schema

// NewArray returns an array of items.
func NewArray(items Type) *ArrayType {
	return &ArrayType{Items: items}
}

// NewObject returns a map from keys to values.
func NewObject(key, value Type) *ObjectType {
	return &ObjectType{KeyType: key, ValueType: value}
}

// NewStruct returns a struct with the given fields. Fields that are not
// optional are listed as required.
func NewStruct(fields ...*Field) *StructType {
	s := &StructType{Fields: fields}
	for _, f := range fields {
		if !f.Optional {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

// NewLiteral returns a type accepting only value.
func NewLiteral(value any) *LiteralType {
	return &LiteralType{Value: value}
}

// NewUnion returns a union of variants.
func NewUnion(op UnionOperator, variants ...Type) *UnionType {
	return &UnionType{Operator: op, Variants: variants}
}

// NewNullable wraps t in an AnyOf union with null. Unions that already
// accept null are returned unchanged.
func NewNullable(t Type) Type {
	if u, ok := t.(*UnionType); ok {
		if u.IsNullable() {
			return u
		}
		return &UnionType{Operator: u.Operator, Variants: append(append([]Type{}, u.Variants...), &NullType{})}
	}
	return NewUnion(AnyOf, t, &NullType{})
}

// NewField returns a field of the given type.
func NewField(name string, t Type) *Field {
	return &Field{Name: name, Type: t}
}

// Ptr returns a pointer to v, for optional bounds.
func Ptr[T any](v T) *T {
	return &v
}
