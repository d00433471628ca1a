package format

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned when no parser is registered for a format.
var ErrUnsupportedFormat = errors.New("schematic: unsupported format")

// Span locates the offending bytes within the parsed content.
type Span struct {
	Offset int
	Length int
}

// ParserError describes a failure to deserialize one source.
type ParserError struct {
	Name    string // Display name of the source (file path, URL, "<code>")
	Content string // Raw text that failed to parse
	Path    string // Field location (e.g., "nested.setting", "list[2]")
	Span    *Span  // Optional byte span for highlighting
	Message string
}

func (e *ParserError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to parse %s", e.Name)
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	} else if line, col, ok := e.Position(); ok {
		fmt.Fprintf(&b, " at line %d, column %d", line, col)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Position converts the span offset into a 1-based line and column.
func (e *ParserError) Position() (line, col int, ok bool) {
	if e.Span == nil || e.Span.Offset < 0 || e.Span.Offset > len(e.Content) {
		return 0, 0, false
	}

	line, col = 1, 1
	for _, ch := range e.Content[:e.Span.Offset] {
		if ch == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col, true
}

// Render returns the error message followed by the offending source line
// with a caret marker under the span, when a span is known.
func (e *ParserError) Render() string {
	line, col, ok := e.Position()
	if !ok {
		return e.Error()
	}

	lines := strings.Split(e.Content, "\n")
	if line-1 >= len(lines) {
		return e.Error()
	}
	text := strings.TrimRight(lines[line-1], "\r")

	width := 1
	if e.Span.Length > 1 {
		width = e.Span.Length
	}
	if rest := len(text) - (col - 1); width > rest && rest > 0 {
		width = rest
	}

	gutter := fmt.Sprintf("%d | ", line)
	var b strings.Builder
	b.WriteString(e.Error())
	b.WriteString("\n")
	b.WriteString(gutter)
	b.WriteString(text)
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", len(gutter)+col-1))
	b.WriteString(strings.Repeat("^", width))
	return b.String()
}

// lineOffset returns the byte offset at which a 1-based line begins.
func lineOffset(content string, line int) int {
	if line <= 1 {
		return 0
	}
	current := 1
	for i, ch := range content {
		if ch == '\n' {
			current++
			if current == line {
				return i + 1
			}
		}
	}
	return len(content)
}

// lineSpan returns a span covering a whole 1-based line.
func lineSpan(content string, line int) *Span {
	start := lineOffset(content, line)
	end := strings.IndexByte(content[start:], '\n')
	if end < 0 {
		end = len(content) - start
	}
	return &Span{Offset: start, Length: end}
}
