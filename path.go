package schematic

import (
	"strconv"
	"strings"
)

// SegmentKind identifies the type of a path segment.
type SegmentKind uint8

const (
	SegmentKey SegmentKind = iota
	SegmentIndex
	SegmentVariant
	SegmentUnknown
)

// Segment is one step into a nested configuration value.
type Segment struct {
	Kind  SegmentKind
	Name  string // Key or variant name
	Index int    // List index
}

// Key returns a segment addressing a struct field or map key.
func Key(name string) Segment {
	return Segment{Kind: SegmentKey, Name: name}
}

// Index returns a segment addressing a list element.
func Index(i int) Segment {
	return Segment{Kind: SegmentIndex, Index: i}
}

// Variant returns a segment addressing a union variant.
func Variant(name string) Segment {
	return Segment{Kind: SegmentVariant, Name: name}
}

// Unknown returns a segment for a location that cannot be named.
func Unknown() Segment {
	return Segment{Kind: SegmentUnknown}
}

// Path locates a value within a nested configuration. It is used for
// diagnostics only.
type Path []Segment

// NewPath returns a path made of the given segments.
func NewPath(segments ...Segment) Path {
	return append(Path(nil), segments...)
}

// Join returns a new path with segments appended. The receiver is not
// modified.
func (p Path) Join(segments ...Segment) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// JoinKey appends a key segment.
func (p Path) JoinKey(name string) Path {
	return p.Join(Key(name))
}

// JoinIndex appends an index segment.
func (p Path) JoinIndex(i int) Path {
	return p.Join(Index(i))
}

// Concat returns p followed by other.
func (p Path) Concat(other Path) Path {
	return p.Join(other...)
}

// String renders the path in dot/bracket notation, e.g. "servers[2].host".
func (p Path) String() string {
	var b strings.Builder
	for _, seg := range p {
		switch seg.Kind {
		case SegmentIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
			continue
		case SegmentKey, SegmentVariant:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Name)
		case SegmentUnknown:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteByte('?')
		}
	}
	return b.String()
}
