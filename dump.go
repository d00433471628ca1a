package schematic

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"
)

const redacted = "***redacted***"

// DumpOption configures dump behavior using the functional options pattern.
type DumpOption func(*dumpConfig)

// dumpConfig holds options for DumpEffective.
type dumpConfig struct {
	withSources bool   // Include source attribution for each field
	asJSON      bool   // Output as JSON instead of text format
	indent      string // Indentation for JSON output (default: "  ")
}

// WithSources includes source attribution for each field in the output.
func WithSources() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.withSources = true
	}
}

// AsJSON outputs configuration as JSON instead of text format.
func AsJSON() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.asJSON = true
	}
}

// WithIndent sets the indentation for JSON output.
// Default is two spaces ("  ").
func WithIndent(indent string) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.indent = indent
	}
}

// DumpEffective writes a human-readable representation of the configuration.
// Secret fields are redacted as "***redacted***".
// Returns an error if writing to the writer fails.
func DumpEffective[T any](w io.Writer, cfg *T, opts ...DumpOption) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	config := dumpConfig{
		indent: "  ",
	}
	for _, opt := range opts {
		opt(&config)
	}

	desc, err := DescriptorOf[T]()
	if err != nil {
		return err
	}

	sources := make(map[string]string)
	if prov, ok := GetProvenance(cfg); ok {
		for _, f := range prov.Fields {
			sources[f.KeyPath] = f.SourceName
		}
	}

	v := reflect.ValueOf(cfg).Elem()
	if config.asJSON {
		return dumpAsJSON(w, desc, v, config)
	}
	return dumpAsText(w, desc, v, sources, config)
}

// dumpAsText outputs configuration in text format (key: value).
func dumpAsText(w io.Writer, desc *Descriptor, v reflect.Value, sources map[string]string, config dumpConfig) error {
	var fields []fieldData
	collectFields(desc, v, "", "", sources, &fields)

	for _, field := range fields {
		line := fmt.Sprintf("%s: %s", field.keyPath, field.displayValue)
		if config.withSources && field.sourceName != "" {
			line += fmt.Sprintf(" (source: %s)", field.sourceName)
		}
		line += "\n"

		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
	}

	return nil
}

// dumpAsJSON outputs configuration as JSON with secret redaction.
func dumpAsJSON(w io.Writer, desc *Descriptor, v reflect.Value, config dumpConfig) error {
	result := buildJSONStructure(desc, v)

	var data []byte
	var err error
	if config.indent != "" {
		data, err = json.MarshalIndent(result, "", config.indent)
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write error: %w", err)
	}

	return nil
}

// fieldData holds information about a single field for dumping.
type fieldData struct {
	keyPath      string // Key path (e.g., "database.host", "servers[0].port")
	displayValue string // Value to display (redacted if secret)
	sourceName   string // Source attribution
}

// collectFields walks a struct along its descriptor. Elements of nested
// lists and maps report the source of the whole list or map.
func collectFields(desc *Descriptor, v reflect.Value, keyPrefix, source string, sources map[string]string, out *[]fieldData) {
	for _, f := range desc.Fields {
		fv := v.Field(f.Index)
		keyPath := joinKeyPath(keyPrefix, f.Key)
		fieldSource := source
		if s, ok := sources[keyPath]; ok {
			fieldSource = s
		}

		switch f.Kind {
		case FieldNested:
			collectFields(f.Nested, fv, keyPath, source, sources, out)
			continue
		case FieldNestedPtr:
			inner, set := unwrapField(f, fv)
			if set {
				collectFields(f.Nested, inner, keyPath, source, sources, out)
				continue
			}
		case FieldNestedList:
			for i := 0; i < fv.Len(); i++ {
				collectFields(f.Nested, fv.Index(i), fmt.Sprintf("%s[%d]", keyPath, i), fieldSource, sources, out)
			}
			continue
		case FieldNestedMap:
			for _, key := range sortedMapKeys(fv) {
				collectFields(f.Nested, fv.MapIndex(key), keyPath+"."+key.String(), fieldSource, sources, out)
			}
			continue
		}

		display := "<not set>"
		if inner, set := unwrapField(f, fv); set {
			display = formatValue(inner, f.Secret)
		}
		*out = append(*out, fieldData{
			keyPath:      keyPath,
			displayValue: display,
			sourceName:   fieldSource,
		})
	}
}

// buildJSONStructure recursively builds a nested map for JSON output.
func buildJSONStructure(desc *Descriptor, v reflect.Value) map[string]any {
	result := make(map[string]any, len(desc.Fields))

	for _, f := range desc.Fields {
		fv := v.Field(f.Index)

		switch f.Kind {
		case FieldNested:
			result[f.Key] = buildJSONStructure(f.Nested, fv)
		case FieldNestedPtr:
			if inner, set := unwrapField(f, fv); set {
				result[f.Key] = buildJSONStructure(f.Nested, inner)
			} else {
				result[f.Key] = nil
			}
		case FieldNestedList:
			list := make([]any, fv.Len())
			for i := range list {
				list[i] = buildJSONStructure(f.Nested, fv.Index(i))
			}
			result[f.Key] = list
		case FieldNestedMap:
			m := make(map[string]any, fv.Len())
			for _, key := range sortedMapKeys(fv) {
				m[key.String()] = buildJSONStructure(f.Nested, fv.MapIndex(key))
			}
			result[f.Key] = m
		default:
			if inner, set := unwrapField(f, fv); set {
				result[f.Key] = formatValueForJSON(inner, f.Secret)
			} else {
				result[f.Key] = nil
			}
		}
	}

	return result
}

// unwrapField returns the value inside an Optional or pointer field and
// whether it is set. Plain fields are always set.
func unwrapField(f *Field, v reflect.Value) (reflect.Value, bool) {
	switch {
	case isOptionalType(f.Type):
		return v.Field(0), v.Field(1).Bool()
	case f.Type.Kind() == reflect.Ptr:
		if v.IsNil() {
			return v, false
		}
		return v.Elem(), true
	default:
		return v, true
	}
}

func sortedMapKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// formatValue formats a field value as a string, redacting secrets.
func formatValue(v reflect.Value, secret bool) string {
	if secret {
		return redacted
	}
	return formatValueAsString(v)
}

// formatValueForJSON formats a field value for JSON output, redacting secrets.
func formatValueForJSON(v reflect.Value, secret bool) any {
	if secret {
		return redacted
	}

	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if d, ok := v.Interface().(time.Duration); ok {
			return d.String()
		}
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Slice:
		slice := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			slice[i] = formatValueForJSON(v.Index(i), false)
		}
		return slice
	case reflect.Struct:
		if t, ok := v.Interface().(time.Time); ok {
			return t.Format(time.RFC3339)
		}
		return v.Interface()
	default:
		return v.Interface()
	}
}

// formatValueAsString formats a field value as a string for text output.
func formatValueAsString(v reflect.Value) string {
	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return "<nil>"
	}

	switch v.Kind() {
	case reflect.String:
		return fmt.Sprintf("%q", v.String())
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if d, ok := v.Interface().(time.Duration); ok {
			return d.String()
		}
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", v.Float())
	case reflect.Slice:
		items := make([]string, v.Len())
		for i := 0; i < v.Len(); i++ {
			if v.Index(i).Kind() == reflect.String {
				items[i] = v.Index(i).String()
			} else {
				items[i] = formatValueAsString(v.Index(i))
			}
		}
		return fmt.Sprintf("[%s]", strings.Join(items, ", "))
	case reflect.Struct:
		if t, ok := v.Interface().(time.Time); ok {
			return t.Format(time.RFC3339)
		}
		return fmt.Sprintf("%v", v.Interface())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
