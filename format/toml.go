package format

import (
	"errors"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

func parseTOML(name, content string) (map[string]any, error) {
	var doc map[string]any
	if err := toml.Unmarshal([]byte(content), &doc); err != nil {
		perr := &ParserError{Name: name, Content: content, Message: err.Error()}

		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			perr.Span = &Span{Offset: lineOffset(content, row) + col - 1, Length: 1}
			perr.Path = strings.Join(decodeErr.Key(), ".")
		}
		return nil, perr
	}
	return doc, nil
}
