// Package validate provides field validators for configuration values.
//
// A validator receives the field value, the enclosing partial configuration,
// the loader's shared context and a finalize flag that is true only when
// the fully merged configuration is checked. Validators that depend on all
// layers being applied should skip their check while finalize is false.
package validate

import (
	"fmt"
	"net"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/Azhovan/schematic/format"
)

// Func validates a single field value.
type Func func(value, data, context any, finalize bool) error

// Error is a validation failure with a machine-readable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Errorf creates an *Error with the given code.
func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation error codes.
const (
	CodeNotEmpty     = "not_empty"
	CodeLength       = "length"
	CodeRange        = "range"
	CodePattern      = "pattern"
	CodeContains     = "contains"
	CodeAlphanumeric = "alphanumeric"
	CodeASCII        = "ascii"
	CodeIP           = "ip"
	CodeEmail        = "email"
	CodeURL          = "url"
	CodeExtends      = "extends"
	CodeInvalidType  = "invalid_type"
)

// NotEmpty fails for strings, slices, maps and arrays of length zero.
func NotEmpty(value, data, context any, finalize bool) error {
	n, err := lengthOf(value)
	if err != nil {
		return err
	}
	if n == 0 {
		return Errorf(CodeNotEmpty, "must not be empty")
	}
	return nil
}

// MinLength fails when the value is shorter than min.
// Strings are measured in characters.
func MinLength(min int) Func {
	return func(value, data, context any, finalize bool) error {
		n, err := lengthOf(value)
		if err != nil {
			return err
		}
		if n < min {
			return Errorf(CodeLength, "length %d is below minimum %d", n, min)
		}
		return nil
	}
}

// MaxLength fails when the value is longer than max.
func MaxLength(max int) Func {
	return func(value, data, context any, finalize bool) error {
		n, err := lengthOf(value)
		if err != nil {
			return err
		}
		if n > max {
			return Errorf(CodeLength, "length %d exceeds maximum %d", n, max)
		}
		return nil
	}
}

// InLength fails when the length falls outside [min, max].
func InLength(min, max int) Func {
	return func(value, data, context any, finalize bool) error {
		n, err := lengthOf(value)
		if err != nil {
			return err
		}
		if n < min || n > max {
			return Errorf(CodeLength, "length %d must be between %d and %d", n, min, max)
		}
		return nil
	}
}

// InRange fails when a numeric value lies outside the half-open range
// [min, max).
func InRange(min, max float64) Func {
	return func(value, data, context any, finalize bool) error {
		f, err := numberOf(value)
		if err != nil {
			return err
		}
		if f < min || f >= max {
			return Errorf(CodeRange, "%v must be at least %v and below %v", value, min, max)
		}
		return nil
	}
}

// Regex fails when the string does not match pattern. An invalid pattern
// makes every call fail.
func Regex(pattern string) Func {
	re, compileErr := regexp.Compile(pattern)
	return func(value, data, context any, finalize bool) error {
		if compileErr != nil {
			return Errorf(CodePattern, "invalid pattern %q: %v", pattern, compileErr)
		}
		s, err := stringOf(value)
		if err != nil {
			return err
		}
		if !re.MatchString(s) {
			return Errorf(CodePattern, "must match pattern %s", pattern)
		}
		return nil
	}
}

// Contains fails when the string does not contain substr.
func Contains(substr string) Func {
	return func(value, data, context any, finalize bool) error {
		s, err := stringOf(value)
		if err != nil {
			return err
		}
		if !strings.Contains(s, substr) {
			return Errorf(CodeContains, "must contain %q", substr)
		}
		return nil
	}
}

// Alphanumeric fails unless every character is a letter or digit.
func Alphanumeric(value, data, context any, finalize bool) error {
	s, err := stringOf(value)
	if err != nil {
		return err
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return Errorf(CodeAlphanumeric, "must contain only letters and digits")
		}
	}
	return nil
}

// ASCII fails when the string contains non-ASCII characters.
func ASCII(value, data, context any, finalize bool) error {
	s, err := stringOf(value)
	if err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return Errorf(CodeASCII, "must contain only ASCII characters")
		}
	}
	return nil
}

// IP accepts IPv4 and IPv6 addresses.
func IP(value, data, context any, finalize bool) error {
	return checkIP(value, func(ip net.IP) bool { return true }, "an IP address")
}

// IPv4 accepts IPv4 addresses only.
func IPv4(value, data, context any, finalize bool) error {
	return checkIP(value, func(ip net.IP) bool { return ip.To4() != nil }, "an IPv4 address")
}

// IPv6 accepts IPv6 addresses only.
func IPv6(value, data, context any, finalize bool) error {
	return checkIP(value, func(ip net.IP) bool { return ip.To4() == nil }, "an IPv6 address")
}

func checkIP(value any, accept func(net.IP) bool, want string) error {
	s, err := stringOf(value)
	if err != nil {
		return err
	}
	ip := net.ParseIP(s)
	if ip == nil || !accept(ip) {
		return Errorf(CodeIP, "%q is not %s", s, want)
	}
	return nil
}

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

func tagValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New()
	})
	return structValidator
}

// Email fails unless the string is an email address.
func Email(value, data, context any, finalize bool) error {
	s, err := stringOf(value)
	if err != nil {
		return err
	}
	if tagValidator().Var(s, "email") != nil {
		return Errorf(CodeEmail, "%q is not a valid email address", s)
	}
	return nil
}

// URL fails unless the string is an absolute URL.
func URL(value, data, context any, finalize bool) error {
	s, err := stringOf(value)
	if err != nil {
		return err
	}
	if tagValidator().Var(s, "url") != nil {
		return Errorf(CodeURL, "%q is not a valid URL", s)
	}
	return nil
}

// IsSecureURL reports whether address may be fetched: https, or a loopback
// address.
func IsSecureURL(address string) bool {
	return strings.HasPrefix(address, "https://") ||
		strings.Contains(address, "127.0.0.1") ||
		strings.Contains(address, "//localhost")
}

// IsURL reports whether s looks like an http(s) address rather than a path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ExtendsString checks one extends reference: a secure URL or a path with a
// configuration file extension.
func ExtendsString(value, data, context any, finalize bool) error {
	s, err := stringOf(value)
	if err != nil {
		return err
	}
	return checkExtends(s)
}

// ExtendsList checks every entry of a list of extends references.
func ExtendsList(value, data, context any, finalize bool) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return Errorf(CodeInvalidType, "expected a list, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		s, err := stringOf(rv.Index(i).Interface())
		if err != nil {
			return err
		}
		if err := checkExtends(s); err != nil {
			return Errorf(CodeExtends, "entry %d: %s", i, err.Error())
		}
	}
	return nil
}

// ExtendsFrom accepts either a single reference or a list of references.
func ExtendsFrom(value, data, context any, finalize bool) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.String {
		return ExtendsString(value, data, context, finalize)
	}
	return ExtendsList(value, data, context, finalize)
}

func checkExtends(s string) error {
	if IsURL(s) {
		if !IsSecureURL(s) {
			return Errorf(CodeExtends, "only secure URLs can be extended, got %q", s)
		}
		return nil
	}

	if format.Infer(s).IsKnown() {
		return nil
	}
	return Errorf(CodeExtends, "%q is not a configuration file path (supported extensions: %s)", s, strings.Join(format.Extensions(), ", "))
}

func lengthOf(value any) (int, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(rv.String()), nil
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len(), nil
	default:
		return 0, Errorf(CodeInvalidType, "cannot measure length of %T", value)
	}
}

func stringOf(value any) (string, error) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.String {
		return "", Errorf(CodeInvalidType, "expected a string, got %T", value)
	}
	return rv.String(), nil
}

func numberOf(value any) (float64, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	default:
		return 0, Errorf(CodeInvalidType, "expected a number, got %T", value)
	}
}
