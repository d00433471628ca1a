package schematic

import (
	"fmt"
	"reflect"
)

// finalizePartial completes a merged partial. Optional nested values and
// the elements of nested lists and maps are merged over their own type's
// defaults; nested structs missing from p are filled with defaults.
func finalizePartial(p *Partial, context any, path Path) (*Partial, error) {
	out := NewPartial(p.desc)
	for _, f := range p.desc.Fields {
		v, ok := p.values[f.Key]
		fieldPath := path.JoinKey(f.Key)

		switch f.Kind {
		case FieldNested:
			var nested *Partial
			if ok {
				nested = v.(*Partial)
			} else {
				var err error
				if nested, err = overDefaults(f.Nested, nil, context, fieldPath); err != nil {
					return nil, err
				}
			}
			done, err := finalizePartial(nested, context, fieldPath)
			if err != nil {
				return nil, err
			}
			out.values[f.Key] = done

		case FieldNestedPtr:
			if !ok {
				continue
			}
			done, err := finalizeElement(f.Nested, v.(*Partial), context, fieldPath)
			if err != nil {
				return nil, err
			}
			out.values[f.Key] = done

		case FieldNestedList:
			if !ok {
				continue
			}
			items := v.([]*Partial)
			list := make([]*Partial, len(items))
			for i, item := range items {
				done, err := finalizeElement(f.Nested, item, context, fieldPath.JoinIndex(i))
				if err != nil {
					return nil, err
				}
				list[i] = done
			}
			out.values[f.Key] = list

		case FieldNestedMap:
			if !ok {
				continue
			}
			entries := v.(map[string]*Partial)
			m := make(map[string]*Partial, len(entries))
			for key, item := range entries {
				done, err := finalizeElement(f.Nested, item, context, fieldPath.JoinKey(key))
				if err != nil {
					return nil, err
				}
				m[key] = done
			}
			out.values[f.Key] = m

		default:
			if ok {
				out.values[f.Key] = v
			}
		}
	}
	return out, nil
}

func finalizeElement(d *Descriptor, p *Partial, context any, path Path) (*Partial, error) {
	merged, err := overDefaults(d, p, context, path)
	if err != nil {
		return nil, err
	}
	return finalizePartial(merged, context, path)
}

// overDefaults merges p over the defaults of d.
func overDefaults(d *Descriptor, p *Partial, context any, path Path) (*Partial, error) {
	base, err := defaultsPartial(d, context)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return base, nil
	}
	return NewMergeManager(context).merge(base, p, path)
}

// build writes a finalized partial into dst, a settable struct value.
// Unset fields keep their zero value.
func build(p *Partial, dst reflect.Value) error {
	for _, f := range p.desc.Fields {
		v, ok := p.values[f.Key]
		if !ok {
			continue
		}
		field := dst.Field(f.Index)

		switch f.Kind {
		case FieldNested:
			if err := build(v.(*Partial), field); err != nil {
				return err
			}

		case FieldNestedPtr:
			elem := reflect.New(f.ValueType).Elem()
			if err := build(v.(*Partial), elem); err != nil {
				return err
			}
			setField(f, field, elem)

		case FieldNestedList:
			items := v.([]*Partial)
			list := reflect.MakeSlice(f.Type, len(items), len(items))
			for i, item := range items {
				if err := build(item, list.Index(i)); err != nil {
					return err
				}
			}
			field.Set(list)

		case FieldNestedMap:
			entries := v.(map[string]*Partial)
			m := reflect.MakeMapWithSize(f.Type, len(entries))
			for key, item := range entries {
				elem := reflect.New(f.Type.Elem()).Elem()
				if err := build(item, elem); err != nil {
					return err
				}
				m.SetMapIndex(reflect.ValueOf(key).Convert(f.Type.Key()), elem)
			}
			field.Set(m)

		default:
			rv := reflect.ValueOf(v)
			if rv.Type() != f.ValueType {
				return fmt.Errorf("%s: stored %s, want %s", f.Key, rv.Type(), f.ValueType)
			}
			setField(f, field, rv)
		}
	}
	return nil
}

func setField(f *Field, dst, v reflect.Value) {
	switch {
	case isOptionalType(f.Type):
		dst.Field(0).Set(v)
		dst.Field(1).SetBool(true)
	case f.Type.Kind() == reflect.Ptr:
		ptr := reflect.New(f.ValueType)
		ptr.Elem().Set(v)
		dst.Set(ptr)
	default:
		dst.Set(v)
	}
}
