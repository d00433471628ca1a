package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

func parseJSON(name, content string) (map[string]any, error) {
	return decodeJSON(name, content, []byte(content))
}

// parseJSONC strips comments and trailing commas before decoding. The
// stripped text keeps the original length, so error offsets still point
// into the original content.
func parseJSONC(name, content string) (map[string]any, error) {
	return decodeJSON(name, content, jsonc.ToJSON([]byte(content)))
}

func decodeJSON(name, content string, data []byte) (map[string]any, error) {
	if strings.TrimSpace(string(data)) == "" {
		return make(map[string]any), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, jsonError(name, content, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		offset := int(dec.InputOffset())
		if offset >= len(content) {
			offset = len(content) - 1
		}
		return nil, &ParserError{
			Name:    name,
			Content: content,
			Message: "unexpected data after the top-level value",
			Span:    &Span{Offset: offset, Length: 1},
		}
	}

	raw, err := normalizeJSON(raw)
	if err != nil {
		return nil, &ParserError{Name: name, Content: content, Message: err.Error()}
	}

	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, &ParserError{
			Name:    name,
			Content: content,
			Message: fmt.Sprintf("expected an object at the top level, found %s", Describe(raw)),
		}
	}
	return doc, nil
}

func jsonError(name, content string, err error) *ParserError {
	perr := &ParserError{Name: name, Content: content, Message: err.Error()}

	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		offset := int(syntaxErr.Offset) - 1
		if offset < 0 {
			offset = 0
		}
		perr.Span = &Span{Offset: offset, Length: 1}
	case errors.Is(err, io.ErrUnexpectedEOF):
		perr.Message = "unexpected end of JSON input"
		perr.Span = &Span{Offset: len(content) - 1, Length: 1}
	}
	return perr
}

// normalizeJSON replaces json.Number with int64, uint64 or float64, the
// same types the TOML and YAML parsers produce. Integers keep every digit.
func normalizeJSON(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			n, err := normalizeJSON(val)
			if err != nil {
				return nil, err
			}
			v[key] = n
		}
		return v, nil
	case []any:
		for i, item := range v {
			n, err := normalizeJSON(item)
			if err != nil {
				return nil, err
			}
			v[i] = n
		}
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return u, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s is out of range", v)
		}
		return f, nil
	default:
		return value, nil
	}
}

// Describe names the kind of a decoded document value for error messages.
func Describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case float64, int, int64, uint64:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
