package format

import (
	"path"
	"strings"
)

// Format names the syntax of a configuration source.
type Format string

// Known formats.
const (
	JSON  Format = "json"
	JSONC Format = "jsonc"
	TOML  Format = "toml"
	YAML  Format = "yaml"
	RON   Format = "ron"
	Pkl   Format = "pkl"
)

// Known returns every format recognized by extension, in a stable order.
func Known() []Format {
	return []Format{JSON, JSONC, TOML, YAML, RON, Pkl}
}

// IsKnown reports whether f is one of the recognized formats.
func (f Format) IsKnown() bool {
	for _, k := range Known() {
		if f == k {
			return true
		}
	}
	return false
}

func (f Format) String() string {
	return string(f)
}

// Extensions returns the file extensions (without dot) mapped to known formats.
func Extensions() []string {
	return []string{"json", "jsonc", "toml", "yaml", "yml", "ron", "pkl"}
}

// Infer derives the format from the trailing extension of a file path or URL.
// Query strings and fragments are ignored. An unknown extension is returned
// as-is so the parse step can report it; a missing extension returns "".
func Infer(location string) Format {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(location), "."))
	switch ext {
	case "yml":
		return YAML
	default:
		return Format(ext)
	}
}
