package schematic

import (
	"strings"
)

// tagConfig holds parsed directives from a struct field's `conf` tag.
type tagConfig struct {
	name       string   // Document key (name:key)
	env        string   // Environment variable name (env:VAR_NAME)
	envPrefix  string   // Prefix appended for nested structs (env_prefix:DB_)
	parseEnv   string   // Named env parser (parse_env:comma)
	defValue   string   // Default value (default:value)
	hasDefault bool     // Whether a default directive was present
	merge      string   // Merge strategy name (merge:append)
	min        string   // Minimum constraint (min:N)
	max        string   // Maximum constraint (max:M)
	oneof      []string // Allowed values (oneof:a,b,c)
	deprecated string   // Deprecation note; "deprecated" alone sets a generic one
	required   bool     // Field is required (required or required:true)
	secret     bool     // Field is secret (secret or secret:true)
	hidden     bool     // Field is left out of generated schemas
	skip       bool     // Field is ignored entirely (skip or "-")
}

// parseTag parses a `conf` struct tag into a structured tagConfig.
// Tag format: "directive1:value1,directive2:value2,..."
// Boolean directives can omit `:true` (e.g., "required" == "required:true")
func parseTag(tag string) tagConfig {
	cfg := tagConfig{}

	if tag == "" {
		return cfg
	}
	if strings.TrimSpace(tag) == "-" {
		cfg.skip = true
		return cfg
	}

	for _, directive := range splitDirectives(tag) {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}

		parts := strings.SplitN(directive, ":", 2)
		name := strings.TrimSpace(parts[0])
		var value string
		if len(parts) > 1 {
			value = parts[1] // Don't trim value - empty strings may be intentional
		}

		switch name {
		case "name":
			cfg.name = value
		case "env":
			cfg.env = value
		case "env_prefix":
			cfg.envPrefix = value
		case "parse_env":
			cfg.parseEnv = strings.TrimSpace(value)
		case "default":
			cfg.defValue = value
			cfg.hasDefault = true
		case "merge":
			cfg.merge = strings.TrimSpace(value)
		case "min":
			cfg.min = value
		case "max":
			cfg.max = value
		case "oneof":
			if value != "" {
				cfg.oneof = strings.Split(value, ",")
				for i := range cfg.oneof {
					cfg.oneof[i] = strings.TrimSpace(cfg.oneof[i])
				}
			}
		case "deprecated":
			switch value {
			case "", "true":
				cfg.deprecated = "deprecated"
			case "false":
				cfg.deprecated = ""
			default:
				cfg.deprecated = value
			}
		case "required":
			cfg.required = boolDirective(value)
		case "secret":
			cfg.secret = boolDirective(value)
		case "hidden":
			cfg.hidden = boolDirective(value)
		case "skip":
			cfg.skip = boolDirective(value)
		}
	}

	return cfg
}

// boolDirective reads the value of a boolean directive. No value or an
// unrecognized one means true.
func boolDirective(value string) bool {
	return value != "false"
}

// listDirectives may carry commas in their value.
var listDirectives = []string{"oneof:", "default:"}

// splitDirectives splits a tag string into individual directives. Commas
// inside the value of a list directive (oneof, default) stay part of the
// value until the next known directive starts.
func splitDirectives(tag string) []string {
	var directives []string
	var current strings.Builder
	inList := false

	for i := 0; i < len(tag); i++ {
		ch := tag[i]

		if !inList && strings.TrimSpace(current.String()) == "" {
			if d, ok := listDirectiveAt(tag[i:]); ok {
				inList = true
				current.WriteString(d)
				i += len(d) - 1
				continue
			}
		}

		if ch != ',' {
			current.WriteByte(ch)
			continue
		}

		if inList && !startsWithDirective(tag[i+1:]) {
			current.WriteByte(ch)
			continue
		}

		inList = false
		directives = append(directives, current.String())
		current.Reset()
	}

	if current.Len() > 0 {
		directives = append(directives, current.String())
	}

	return directives
}

func listDirectiveAt(s string) (string, bool) {
	for _, d := range listDirectives {
		if strings.HasPrefix(s, d) {
			return d, true
		}
	}
	return "", false
}

// knownDirectives lists every directive name understood by parseTag.
var knownDirectives = []string{
	"name:", "env:", "env_prefix:", "parse_env:", "default:", "merge:",
	"min:", "max:", "oneof:", "deprecated", "required", "secret", "hidden", "skip",
}

// startsWithDirective checks if a string starts with a known directive name.
func startsWithDirective(s string) bool {
	s = strings.TrimSpace(s)
	for _, d := range knownDirectives {
		if strings.HasPrefix(s, d) {
			return true
		}
	}
	return false
}
