package normalize

import (
	"testing"
)

func TestToEnvName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single word",
			input:    "Host",
			expected: "HOST",
		},
		{
			name:     "camel case",
			input:    "MaxConns",
			expected: "MAX_CONNS",
		},
		{
			name:     "leading acronym",
			input:    "APIKey",
			expected: "API_KEY",
		},
		{
			name:     "acronym in the middle",
			input:    "UseHTTPServer",
			expected: "USE_HTTP_SERVER",
		},
		{
			name:     "digit boundary",
			input:    "Field2Name",
			expected: "FIELD2_NAME",
		},
		{
			name:     "existing underscores kept",
			input:    "rate_limit",
			expected: "RATE_LIMIT",
		},
		{
			name:     "dashes become underscores",
			input:    "log-level",
			expected: "LOG_LEVEL",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToEnvName(tt.input)
			if result != tt.expected {
				t.Errorf("ToEnvName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestDeriveFieldPath(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		expected  string
	}{
		{
			name:      "simple field",
			fieldName: "Host",
			expected:  "host",
		},
		{
			name:      "single letter",
			fieldName: "P",
			expected:  "p",
		},
		{
			name:      "camelCase field",
			fieldName: "APIKey",
			expected:  "aPIKey",
		},
		{
			name:      "already lowercase first letter",
			fieldName: "port",
			expected:  "port",
		},
		{
			name:      "empty string",
			fieldName: "",
			expected:  "",
		},
		{
			name:      "multi-word field",
			fieldName: "MaxConnections",
			expected:  "maxConnections",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DeriveFieldPath(tt.fieldName)
			if result != tt.expected {
				t.Errorf("DeriveFieldPath(%q) = %q, want %q", tt.fieldName, result, tt.expected)
			}
		})
	}
}

func TestApplyPrefix(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		key      string
		expected string
	}{
		{
			name:     "with prefix",
			prefix:   "database",
			key:      "host",
			expected: "database.host",
		},
		{
			name:     "empty prefix",
			prefix:   "",
			key:      "host",
			expected: "host",
		},
		{
			name:     "empty key",
			prefix:   "database",
			key:      "",
			expected: "database",
		},
		{
			name:     "both empty",
			prefix:   "",
			key:      "",
			expected: "",
		},
		{
			name:     "nested prefix",
			prefix:   "api.v1",
			key:      "endpoint",
			expected: "api.v1.endpoint",
		},
		{
			name:     "key with underscore",
			prefix:   "api",
			key:      "rate_limit",
			expected: "api.rate_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ApplyPrefix(tt.prefix, tt.key)
			if result != tt.expected {
				t.Errorf("ApplyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, result, tt.expected)
			}
		})
	}
}
