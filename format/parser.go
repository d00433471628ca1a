package format

import (
	"fmt"
	"sync"
)

// Parser deserializes the raw text of one source into a generic document.
// Failures must be returned as *ParserError.
type Parser interface {
	Parse(name, content string) (map[string]any, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(name, content string) (map[string]any, error)

func (f ParserFunc) Parse(name, content string) (map[string]any, error) {
	return f(name, content)
}

var (
	registryMu sync.RWMutex
	registry   = map[Format]Parser{
		JSON:  ParserFunc(parseJSON),
		JSONC: ParserFunc(parseJSONC),
		TOML:  ParserFunc(parseTOML),
		YAML:  ParserFunc(parseYAML),
	}
)

// Register installs or replaces the parser used for a format.
// Safe for concurrent use.
func Register(f Format, p Parser) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[f] = p
}

// Lookup returns the parser registered for a format.
func Lookup(f Format) (Parser, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[f]
	return p, ok
}

// Parse parses content with the parser registered for f.
func Parse(f Format, name, content string) (map[string]any, error) {
	p, ok := Lookup(f)
	if !ok {
		if f == "" {
			return nil, fmt.Errorf("%w: cannot infer format of %s (supported: json, jsonc, toml, yaml)", ErrUnsupportedFormat, name)
		}
		return nil, fmt.Errorf("%w: %s (supported: json, jsonc, toml, yaml)", ErrUnsupportedFormat, f)
	}

	doc, err := p.Parse(name, content)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	return doc, nil
}
