package schematic

import (
	"errors"
	"fmt"
	"strings"
)

// Source construction and extends errors.
var (
	ErrInvalidCode               = errors.New("schematic: invalid code source")
	ErrInvalidFile               = errors.New("schematic: invalid file source")
	ErrInvalidURL                = errors.New("schematic: invalid URL source")
	ErrHTTPSOnly                 = errors.New("schematic: only https URLs can be loaded")
	ErrMissingFile               = errors.New("schematic: file does not exist")
	ErrExtendsFromNoCode         = errors.New("schematic: code sources cannot declare extends")
	ErrExtendsFromParentFileOnly = errors.New("schematic: only file sources can extend from files")
)

// Error codes for validation failures.
const (
	ErrCodeRequired    = "required"
	ErrCodeMin         = "min"
	ErrCodeMax         = "max"
	ErrCodeOneOf       = "oneof"
	ErrCodeInvalidType = "invalid_type"
	ErrCodeCustom      = "custom"
)

// ValidationError aggregates field-level validation failures.
type ValidationError struct {
	FieldErrors []FieldError
}

// Error formats validation errors as a multi-line message.
func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return "config validation failed: no errors"
	}

	var b strings.Builder
	if len(e.FieldErrors) == 1 {
		b.WriteString("config validation failed: 1 error\n")
	} else {
		fmt.Fprintf(&b, "config validation failed: %d errors\n", len(e.FieldErrors))
	}

	for _, fe := range e.FieldErrors {
		fmt.Fprintf(&b, "  - %s: %s (%s)\n", fe.FieldPath, fe.Code, fe.Message)
	}

	return strings.TrimRight(b.String(), "\n")
}

// FieldError represents a single field validation failure.
type FieldError struct {
	FieldPath string // Dot notation (e.g., "database.host", "servers[1].port")
	Code      string // Error code (e.g., "required", "min")
	Message   string // Human-readable description
	Path      Path   // Structured form of FieldPath
}

// EnvError reports an environment variable that could not be parsed into
// its field type.
type EnvError struct {
	Key string
	Err error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("invalid environment variable %s: %v", e.Key, e.Err)
}

func (e *EnvError) Unwrap() error {
	return e.Err
}

// MergeError reports a merge strategy that rejected two values.
type MergeError struct {
	Path Path
	Err  error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("failed to merge %s: %v", e.Path, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// StageError wraps the failure that stopped a load.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
