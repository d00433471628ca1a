package schematic

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError_Error_SingleError(t *testing.T) {
	ve := &ValidationError{
		FieldErrors: []FieldError{
			{
				FieldPath: "database.host",
				Code:      ErrCodeRequired,
				Message:   "field is required",
			},
		},
	}

	got := ve.Error()
	want := "config validation failed: 1 error\n  - database.host: required (field is required)"

	if got != want {
		t.Errorf("ValidationError.Error() with single error\ngot:  %q\nwant: %q", got, want)
	}
}

func TestValidationError_Error_MultipleErrors(t *testing.T) {
	ve := &ValidationError{
		FieldErrors: []FieldError{
			{
				FieldPath: "database.host",
				Code:      ErrCodeRequired,
				Message:   "field is required",
			},
			{
				FieldPath: "database.port",
				Code:      ErrCodeMin,
				Message:   "value must be at least 1",
			},
			{
				FieldPath: "server.mode",
				Code:      ErrCodeOneOf,
				Message:   "must be one of: dev, prod",
			},
		},
	}

	got := ve.Error()

	// Check header
	if !strings.HasPrefix(got, "config validation failed: 3 errors\n") {
		t.Errorf("ValidationError.Error() header incorrect\ngot: %q", got)
	}

	// Check each error is present
	expectedErrors := []string{
		"  - database.host: required (field is required)",
		"  - database.port: min (value must be at least 1)",
		"  - server.mode: oneof (must be one of: dev, prod)",
	}

	for _, expected := range expectedErrors {
		if !strings.Contains(got, expected) {
			t.Errorf("ValidationError.Error() missing expected error\ngot:  %q\nwant to contain: %q", got, expected)
		}
	}
}

func TestValidationError_Error_NoErrors(t *testing.T) {
	ve := &ValidationError{
		FieldErrors: []FieldError{},
	}

	got := ve.Error()
	want := "config validation failed: no errors"

	if got != want {
		t.Errorf("ValidationError.Error() with no errors\ngot:  %q\nwant: %q", got, want)
	}
}

func TestEnvError(t *testing.T) {
	cause := errors.New("invalid syntax")
	err := &EnvError{Key: "ENV_NUMBER", Err: cause}

	want := "invalid environment variable ENV_NUMBER: invalid syntax"
	if got := err.Error(); got != want {
		t.Errorf("EnvError.Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("EnvError should unwrap to its cause")
	}
}

func TestMergeError(t *testing.T) {
	cause := errors.New("mismatched types")
	err := &MergeError{Path: NewPath(Key("nested"), Key("list")), Err: cause}

	want := "failed to merge nested.list: mismatched types"
	if got := err.Error(); got != want {
		t.Errorf("MergeError.Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("MergeError should unwrap to its cause")
	}
}

func TestStageError(t *testing.T) {
	err := &StageError{Stage: StageResolving, Err: ErrExtendsFromNoCode}

	if !errors.Is(err, ErrExtendsFromNoCode) {
		t.Error("StageError should unwrap to its cause")
	}
	if !strings.HasPrefix(err.Error(), "resolving extends: ") {
		t.Errorf("StageError.Error() = %q, want stage prefix", err.Error())
	}

	var stageErr *StageError
	wrapped := fmt.Errorf("outer: %w", err)
	if !errors.As(wrapped, &stageErr) || stageErr.Stage != StageResolving {
		t.Error("errors.As should find the StageError")
	}
}

func TestValidationError_ErrorFormatting(t *testing.T) {
	ve := &ValidationError{
		FieldErrors: []FieldError{
			{
				FieldPath: "api.timeout",
				Code:      ErrCodeMax,
				Message:   "value must be at most 300",
			},
		},
	}

	got := ve.Error()

	// Verify no trailing newline
	if strings.HasSuffix(got, "\n\n") {
		t.Error("ValidationError.Error() should not have trailing double newline")
	}

	// Verify proper line structure
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Errorf("ValidationError.Error() should have 2 lines, got %d", len(lines))
	}

	// Verify indentation
	if !strings.HasPrefix(lines[1], "  - ") {
		t.Errorf("ValidationError.Error() field error should be indented with '  - ', got: %q", lines[1])
	}
}
