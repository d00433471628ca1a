package schematic

import (
	"strings"
	"sync"
)

// Provenance contains source information for configuration fields.
type Provenance struct {
	Fields []FieldProvenance
}

// Lookup returns the provenance of the field at keyPath.
func (p *Provenance) Lookup(keyPath string) (FieldProvenance, bool) {
	for _, f := range p.Fields {
		if f.KeyPath == keyPath {
			return f, true
		}
	}
	return FieldProvenance{}, false
}

// FieldProvenance describes where a field's value came from.
//
// SourceName is the last layer that set the field, whatever the field's
// merge strategy did with it. Under preserve an earlier value may have
// survived; under discard none did; under append only the last
// contributor is named.
type FieldProvenance struct {
	FieldPath  string // Go field path (e.g., "Database.Host")
	KeyPath    string // Document key path (e.g., "database.host")
	SourceName string // Layer that last set the field (e.g., "file:config.yaml", "env:APP_PORT", "default")
	Secret     bool   // Whether field is secret
}

var provenanceStore sync.Map

// GetProvenance returns provenance metadata for a loaded configuration.
// Thread-safe.
func GetProvenance[T any](cfg *T) (*Provenance, bool) {
	if cfg == nil {
		return nil, false
	}

	value, ok := provenanceStore.Load(cfg)
	if !ok {
		return nil, false
	}

	prov, ok := value.(*Provenance)
	return prov, ok
}

func storeProvenance[T any](cfg *T, prov *Provenance) {
	if cfg != nil && prov != nil {
		provenanceStore.Store(cfg, prov)
	}
}

// ForgetProvenance drops the provenance recorded for cfg.
func ForgetProvenance[T any](cfg *T) {
	if cfg != nil {
		provenanceStore.Delete(cfg)
	}
}

// collectProvenance records, for every leaf field, the last layer that set
// it. Nested structs are followed; lists and maps of nested structs count
// as one value.
func collectProvenance(desc *Descriptor, defaults *Partial, layers []Layer, envPartial *Partial, envKeys map[string]string) []FieldProvenance {
	setBy := make(map[string]string)

	markSet(defaults, "", func(string) string { return "default" }, setBy)
	for _, layer := range layers {
		name := layer.Source.String()
		markSet(layer.Partial, "", func(string) string { return name }, setBy)
	}
	if envPartial != nil {
		markSet(envPartial, "", func(keyPath string) string { return "env:" + envKeys[keyPath] }, setBy)
	}

	var fields []FieldProvenance
	appendProvenance(desc, "", "", setBy, &fields)
	return fields
}

func markSet(p *Partial, prefix string, name func(keyPath string) string, setBy map[string]string) {
	if p == nil {
		return
	}
	for _, f := range p.desc.Fields {
		v, ok := p.values[f.Key]
		if !ok {
			continue
		}
		keyPath := joinKeyPath(prefix, f.Key)
		if nested, ok := v.(*Partial); ok {
			markSet(nested, keyPath, name, setBy)
			continue
		}
		setBy[keyPath] = name(keyPath)
	}
}

func appendProvenance(desc *Descriptor, fieldPrefix, keyPrefix string, setBy map[string]string, out *[]FieldProvenance) {
	for _, f := range desc.Fields {
		fieldPath := joinKeyPath(fieldPrefix, f.Name)
		keyPath := joinKeyPath(keyPrefix, f.Key)

		if f.Kind == FieldNested || f.Kind == FieldNestedPtr {
			if hasKeyBelow(setBy, keyPath) {
				appendProvenance(f.Nested, fieldPath, keyPath, setBy, out)
			}
			continue
		}

		source, ok := setBy[keyPath]
		if !ok {
			continue
		}
		*out = append(*out, FieldProvenance{
			FieldPath:  fieldPath,
			KeyPath:    keyPath,
			SourceName: source,
			Secret:     f.Secret,
		})
	}
}

// hasKeyBelow stops the walk at optional nested types that refer to
// themselves.
func hasKeyBelow(setBy map[string]string, keyPath string) bool {
	prefix := keyPath + "."
	for k := range setBy {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func joinKeyPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
