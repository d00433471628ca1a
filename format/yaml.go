package format

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

// parseYAML decodes in two passes: the text is first parsed into a node
// tree, then the tree is decoded into a generic value, which expands
// anchors, aliases and merge keys before any structural decoding happens.
func parseYAML(name, content string) (map[string]any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return nil, yamlError(name, content, err)
	}
	if root.Kind == 0 {
		return make(map[string]any), nil
	}

	var raw any
	if err := root.Decode(&raw); err != nil {
		return nil, yamlError(name, content, err)
	}
	if raw == nil {
		return make(map[string]any), nil
	}

	normalized := normalizeYAML(raw)

	doc, ok := normalized.(map[string]any)
	if !ok {
		return nil, &ParserError{
			Name:    name,
			Content: content,
			Message: fmt.Sprintf("expected a mapping at the top level, found %s", Describe(normalized)),
		}
	}
	return doc, nil
}

// normalizeYAML converts map[any]any (non-string keys) into map[string]any.
func normalizeYAML(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			v[key] = normalizeYAML(val)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[fmt.Sprint(key)] = normalizeYAML(val)
		}
		return out
	case []any:
		for i, item := range v {
			v[i] = normalizeYAML(item)
		}
		return v
	default:
		return value
	}
}

func yamlError(name, content string, err error) *ParserError {
	message := strings.TrimPrefix(err.Error(), "yaml: ")
	perr := &ParserError{Name: name, Content: content, Message: message}

	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		message = typeErr.Errors[0]
		perr.Message = message
	}

	if m := yamlLinePattern.FindStringSubmatch(message); m != nil {
		if line, convErr := strconv.Atoi(m[1]); convErr == nil {
			perr.Span = lineSpan(content, line)
		}
	}
	return perr
}
