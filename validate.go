package schematic

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/Azhovan/schematic/validate"
)

// ValidateManager walks a partial and runs every field validator. It does
// not stop at the first failure: all failures are collected with the path
// of the field that produced them.
//
// With finalize set the partial is expected to be complete, so required
// fields are checked and validators may run checks that only make sense
// once every layer has been applied.
type ValidateManager struct {
	context  any
	finalize bool
	base     Path
	errors   []FieldError
}

// NewValidateManager returns a manager reporting paths below base.
func NewValidateManager(context any, finalize bool, base Path) *ValidateManager {
	return &ValidateManager{context: context, finalize: finalize, base: base}
}

// Validate walks p and returns the failures collected so far.
func (m *ValidateManager) Validate(p *Partial) []FieldError {
	if p != nil {
		m.walk(p, m.base)
	}
	return m.errors
}

// Errors returns the failures collected so far.
func (m *ValidateManager) Errors() []FieldError {
	return m.errors
}

// Err returns a *ValidationError holding every failure, or nil.
func (m *ValidateManager) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	return &ValidationError{FieldErrors: m.errors}
}

func (m *ValidateManager) walk(p *Partial, path Path) {
	for _, f := range p.desc.Fields {
		v, ok := p.values[f.Key]
		fieldPath := path.JoinKey(f.Key)

		m.errors = append(m.errors, m.checkTags(f, v, ok, fieldPath)...)
		if !ok {
			continue
		}

		for _, fn := range f.Validators {
			if err := fn(v, p, m.context, m.finalize); err != nil {
				m.add(fieldPath, err)
			}
		}

		switch f.Kind {
		case FieldNested, FieldNestedPtr:
			m.walk(v.(*Partial), fieldPath)
		case FieldNestedList:
			for i, item := range v.([]*Partial) {
				m.walk(item, fieldPath.JoinIndex(i))
			}
		case FieldNestedMap:
			entries := v.(map[string]*Partial)
			keys := make([]string, 0, len(entries))
			for key := range entries {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				m.walk(entries[key], fieldPath.JoinKey(key))
			}
		}
	}
}

// add records err for path. Nested validation errors are flattened with
// their paths prefixed.
func (m *ValidateManager) add(path Path, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		for _, fe := range verr.FieldErrors {
			nested := path.Concat(fe.Path)
			m.errors = append(m.errors, FieldError{
				FieldPath: nested.String(),
				Code:      fe.Code,
				Message:   fe.Message,
				Path:      nested,
			})
		}
		return
	}

	code := ErrCodeCustom
	var ferr *validate.Error
	if errors.As(err, &ferr) {
		code = ferr.Code
	}
	m.errors = append(m.errors, FieldError{
		FieldPath: path.String(),
		Code:      code,
		Message:   err.Error(),
		Path:      path,
	})
}

// checkTags applies the required, min, max and oneof directives.
func (m *ValidateManager) checkTags(f *Field, v any, ok bool, path Path) []FieldError {
	var errs []FieldError

	var value reflect.Value
	if ok {
		value = reflect.ValueOf(v)
	}
	zero := !ok || isZeroValue(value)

	if f.Required && m.finalize && zero {
		return append(errs, newFieldError(path, ErrCodeRequired, "field is required but not provided"))
	}

	// Skip other validations if value is zero
	if zero || f.Kind.IsNested() && f.Kind != FieldNestedList && f.Kind != FieldNestedMap {
		return errs
	}

	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		errs = append(errs, validateIntMinMax(value, path, f)...)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		errs = append(errs, validateUintMinMax(value, path, f)...)
	case reflect.Float32, reflect.Float64:
		errs = append(errs, validateFloatMinMax(value, path, f)...)
	case reflect.String, reflect.Slice, reflect.Map:
		errs = append(errs, validateLengthMinMax(value, path, f)...)
	}

	if len(f.OneOf) > 0 {
		errs = append(errs, validateOneof(value, path, f)...)
	}

	return errs
}

func newFieldError(path Path, code, message string) FieldError {
	return FieldError{FieldPath: path.String(), Code: code, Message: message, Path: path}
}

// isZeroValue checks if a reflect.Value is the zero value for its type.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}

// validateIntMinMax validates min/max constraints for signed integer types.
func validateIntMinMax(value reflect.Value, path Path, f *Field) []FieldError {
	var errs []FieldError
	n := value.Int()

	if f.Min != "" {
		minVal, err := strconv.ParseInt(f.Min, 10, 64)
		if err == nil && n < minVal {
			errs = append(errs, newFieldError(path, ErrCodeMin, fmt.Sprintf("value %d is below minimum %d", n, minVal)))
		}
	}

	if f.Max != "" {
		maxVal, err := strconv.ParseInt(f.Max, 10, 64)
		if err == nil && n > maxVal {
			errs = append(errs, newFieldError(path, ErrCodeMax, fmt.Sprintf("value %d exceeds maximum %d", n, maxVal)))
		}
	}

	return errs
}

// validateUintMinMax validates min/max constraints for unsigned integer types.
func validateUintMinMax(value reflect.Value, path Path, f *Field) []FieldError {
	var errs []FieldError
	n := value.Uint()

	if f.Min != "" {
		minVal, err := strconv.ParseUint(f.Min, 10, 64)
		if err == nil && n < minVal {
			errs = append(errs, newFieldError(path, ErrCodeMin, fmt.Sprintf("value %d is below minimum %d", n, minVal)))
		}
	}

	if f.Max != "" {
		maxVal, err := strconv.ParseUint(f.Max, 10, 64)
		if err == nil && n > maxVal {
			errs = append(errs, newFieldError(path, ErrCodeMax, fmt.Sprintf("value %d exceeds maximum %d", n, maxVal)))
		}
	}

	return errs
}

// validateFloatMinMax validates min/max constraints for floating-point types.
func validateFloatMinMax(value reflect.Value, path Path, f *Field) []FieldError {
	var errs []FieldError
	n := value.Float()

	if f.Min != "" {
		minVal, err := strconv.ParseFloat(f.Min, 64)
		if err == nil && n < minVal {
			errs = append(errs, newFieldError(path, ErrCodeMin, fmt.Sprintf("value %g is below minimum %g", n, minVal)))
		}
	}

	if f.Max != "" {
		maxVal, err := strconv.ParseFloat(f.Max, 64)
		if err == nil && n > maxVal {
			errs = append(errs, newFieldError(path, ErrCodeMax, fmt.Sprintf("value %g exceeds maximum %g", n, maxVal)))
		}
	}

	return errs
}

// validateLengthMinMax validates min/max constraints on string length and
// on the number of list or map entries.
func validateLengthMinMax(value reflect.Value, path Path, f *Field) []FieldError {
	var errs []FieldError
	length := value.Len()
	what := "length"
	if value.Kind() != reflect.String {
		what = "entry count"
	}

	if f.Min != "" {
		minLen, err := strconv.Atoi(f.Min)
		if err == nil && length < minLen {
			errs = append(errs, newFieldError(path, ErrCodeMin, fmt.Sprintf("%s %d is below minimum %d", what, length, minLen)))
		}
	}

	if f.Max != "" {
		maxLen, err := strconv.Atoi(f.Max)
		if err == nil && length > maxLen {
			errs = append(errs, newFieldError(path, ErrCodeMax, fmt.Sprintf("%s %d exceeds maximum %d", what, length, maxLen)))
		}
	}

	return errs
}

// validateOneof validates that a field value is one of the allowed options.
func validateOneof(value reflect.Value, path Path, f *Field) []FieldError {
	var s string
	switch value.Kind() {
	case reflect.String:
		s = value.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		s = strconv.FormatInt(value.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s = strconv.FormatUint(value.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		s = strconv.FormatFloat(value.Float(), 'f', -1, 64)
	case reflect.Bool:
		s = strconv.FormatBool(value.Bool())
	default:
		return nil
	}

	for _, allowed := range f.OneOf {
		if s == allowed {
			return nil
		}
	}

	return []FieldError{newFieldError(path, ErrCodeOneOf,
		fmt.Sprintf("value %q must be one of: %s", s, strings.Join(f.OneOf, ", ")))}
}
