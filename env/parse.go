package env

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Parser converts the raw text of a variable into a field value. A nil
// value with a nil error means "treat as unset".
type Parser func(value string) (any, error)

// Parse converts value into a value of type t using the type's standard
// text form: numbers, booleans (strconv rules), durations, comma separated
// slices and any encoding.TextUnmarshaler.
func Parse(value string, t reflect.Type) (any, error) {
	out := reflect.New(t)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out.Interface(),
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder for %s: %w", t, err)
	}
	if err := decoder.Decode(value); err != nil {
		return nil, fmt.Errorf("cannot parse %q as %s: %w", value, t, unwrapDecodeError(err))
	}
	return out.Elem().Interface(), nil
}

// ParseAs is the typed form of Parse.
func ParseAs[T any](value string) (T, error) {
	var zero T
	v, err := Parse(value, reflect.TypeOf(&zero).Elem())
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Default returns the standard parser for values of type t.
func Default(t reflect.Type) Parser {
	return func(value string) (any, error) {
		return Parse(value, t)
	}
}

// ParseBool treats 1, true, yes, on, enabled and enable (any case) as true
// and everything else as false. It never fails.
func ParseBool(value string) (any, error) {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on", "enabled", "enable":
		return true, nil
	default:
		return false, nil
	}
}

// Split splits value on delimiter, trims every segment, drops empty
// segments and parses each remaining one as an element of sliceType.
// The first element that fails to parse fails the whole value.
func Split(delimiter string, sliceType reflect.Type) Parser {
	return func(value string) (any, error) {
		if sliceType.Kind() != reflect.Slice {
			return nil, fmt.Errorf("cannot split into %s: not a slice type", sliceType)
		}

		out := reflect.MakeSlice(sliceType, 0, 0)
		for _, segment := range strings.Split(value, delimiter) {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			item, err := Parse(segment, sliceType.Elem())
			if err != nil {
				return nil, err
			}
			out = reflect.Append(out, reflect.ValueOf(item))
		}
		return out.Interface(), nil
	}
}

// SplitComma splits on ",".
func SplitComma(sliceType reflect.Type) Parser { return Split(",", sliceType) }

// SplitColon splits on ":".
func SplitColon(sliceType reflect.Type) Parser { return Split(":", sliceType) }

// SplitSemicolon splits on ";".
func SplitSemicolon(sliceType reflect.Type) Parser { return Split(";", sliceType) }

// SplitSpace splits on " ".
func SplitSpace(sliceType reflect.Type) Parser { return Split(" ", sliceType) }

// SplitOf splits into a []T.
func SplitOf[T any](delimiter string) Parser {
	return Split(delimiter, reflect.TypeOf([]T(nil)))
}

// IgnoreEmpty wraps p so that a value holding only whitespace is treated
// as unset instead of being parsed.
func IgnoreEmpty(p Parser) Parser {
	return func(value string) (any, error) {
		if strings.TrimSpace(value) == "" {
			return nil, nil
		}
		return p(value)
	}
}

// Named returns the parser for a `parse_env` directive, built for the
// field type t.
func Named(name string, t reflect.Type) (Parser, bool) {
	switch name {
	case "comma":
		return SplitComma(t), true
	case "colon":
		return SplitColon(t), true
	case "semicolon":
		return SplitSemicolon(t), true
	case "space":
		return SplitSpace(t), true
	case "bool":
		return ParseBool, true
	default:
		return nil, false
	}
}

// unwrapDecodeError drops mapstructure's "1 error(s) decoding" envelope.
func unwrapDecodeError(err error) error {
	if merr, ok := err.(*mapstructure.Error); ok && len(merr.Errors) == 1 {
		return fmt.Errorf("%s", merr.Errors[0])
	}
	return err
}
