package normalize

import (
	"strings"
	"unicode"
)

// ToEnvName derives an environment variable name from a struct field name.
// Word boundaries are detected on case changes and existing underscores are kept.
// Examples:
//   - "Host" → "HOST"
//   - "MaxConns" → "MAX_CONNS"
//   - "APIKey" → "API_KEY"
//   - "rate_limit" → "RATE_LIMIT"
func ToEnvName(fieldName string) string {
	runes := []rune(fieldName)
	var b strings.Builder

	for i, r := range runes {
		if r == '-' || r == '.' || r == ' ' {
			r = '_'
		}
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}

	return b.String()
}

// DeriveFieldPath derives a configuration key from a struct field name.
// It lowercases the first letter of the field name.
// Examples:
//   - "Host" → "host"
//   - "Port" → "port"
//   - "APIKey" → "aPIKey"
func DeriveFieldPath(fieldName string) string {
	if fieldName == "" {
		return ""
	}

	// Convert first rune to lowercase
	runes := []rune(fieldName)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// ApplyPrefix combines a prefix with a key to create a nested configuration path.
// If prefix is empty, returns the key unchanged.
// Otherwise, returns "prefix.key".
// Examples:
//   - ApplyPrefix("database", "host") → "database.host"
//   - ApplyPrefix("", "host") → "host"
//   - ApplyPrefix("api", "rate_limit") → "api.rate_limit"
func ApplyPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}
