package schema

import (
	"errors"
	"fmt"
)

// Renderer turns a set of named schemas into an output artifact.
type Renderer interface {
	Render(schemas []*Schema) (string, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(schemas []*Schema) (string, error)

func (f RendererFunc) Render(schemas []*Schema) (string, error) {
	return f(schemas)
}

// ErrNoSchemas is returned by Generate when nothing was registered.
var ErrNoSchemas = errors.New("schematic: no schemas to render")

// Generator collects named schemas. Each name is built at most once, so a
// type referenced from several places, or from itself, yields a single
// entry and recursion stops at the second visit.
//
// Names are the only identity: two different types sharing a name collapse
// into whichever was registered first.
type Generator struct {
	schemas []*Schema
	index   map[string]*Schema
}

// NewGenerator returns an empty generator.
func NewGenerator() *Generator {
	return &Generator{index: make(map[string]*Schema)}
}

// Add registers the schema named name, calling build only on first sight.
// It returns a reference to the named schema.
func (g *Generator) Add(name, description string, build func(g *Generator) Type) Type {
	if _, ok := g.index[name]; !ok {
		s := &Schema{Name: name, Description: description}
		g.index[name] = s
		g.schemas = append(g.schemas, s)
		s.Type = build(g)
	}
	return &ReferenceType{Name: name}
}

// Has reports whether a schema with the given name was registered.
func (g *Generator) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Lookup returns the schema registered under name.
func (g *Generator) Lookup(name string) (*Schema, bool) {
	s, ok := g.index[name]
	return s, ok
}

// Schemas returns the registered schemas in registration order.
func (g *Generator) Schemas() []*Schema {
	out := make([]*Schema, len(g.schemas))
	copy(out, g.schemas)
	return out
}

// Resolve follows a reference to the registered schema type.
func (g *Generator) Resolve(t Type) (Type, error) {
	ref, ok := t.(*ReferenceType)
	if !ok {
		return t, nil
	}
	s, ok := g.index[ref.Name]
	if !ok {
		return nil, fmt.Errorf("schematic: unknown schema reference %q", ref.Name)
	}
	return s.Type, nil
}

// Generate renders every registered schema.
func (g *Generator) Generate(r Renderer) (string, error) {
	if len(g.schemas) == 0 {
		return "", ErrNoSchemas
	}
	out, err := r.Render(g.Schemas())
	if err != nil {
		return "", fmt.Errorf("render schemas: %w", err)
	}
	return out, nil
}
