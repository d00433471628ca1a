package schematic

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/Azhovan/schematic/format"
	"github.com/Azhovan/schematic/validate"
)

// SourceKind identifies where a configuration layer comes from.
type SourceKind uint8

const (
	// SourceCode is inline configuration text.
	SourceCode SourceKind = iota
	// SourceFile is a file on the local file system.
	SourceFile
	// SourceURL is a document fetched over HTTPS.
	SourceURL
)

func (k SourceKind) String() string {
	switch k {
	case SourceCode:
		return "code"
	case SourceFile:
		return "file"
	case SourceURL:
		return "url"
	default:
		return "unknown"
	}
}

// Source identifies one configuration layer. Sources are immutable and
// comparable; equal sources are loaded only once per Load.
type Source struct {
	Kind   SourceKind
	Value  string        // Content for code, path for files, address for URLs
	Format format.Format // Explicit or inferred from the extension
}

// NewCodeSource creates a source from inline text. The format is required
// since there is no extension to infer it from.
func NewCodeSource(content string, f format.Format) (Source, error) {
	if f == "" {
		return Source{}, fmt.Errorf("%w: a format is required for inline code", ErrInvalidCode)
	}
	return Source{Kind: SourceCode, Value: content, Format: f}, nil
}

// NewFileSource creates a file source. An empty format is inferred from
// the file extension; an unknown extension is reported when parsing.
func NewFileSource(path string, f format.Format) (Source, error) {
	if strings.TrimSpace(path) == "" {
		return Source{}, fmt.Errorf("%w: path is empty", ErrInvalidFile)
	}
	if f == "" {
		f = format.Infer(path)
	}
	return Source{Kind: SourceFile, Value: filepath.Clean(path), Format: f}, nil
}

// NewURLSource creates a URL source. Only https:// addresses are accepted,
// except for loopback addresses (127.0.0.1, localhost). An empty format is
// inferred from the URL path, ignoring the query string.
func NewURLSource(address string, f format.Format) (Source, error) {
	if !validate.IsSecureURL(address) {
		return Source{}, fmt.Errorf("%w: %s", ErrHTTPSOnly, address)
	}
	u, err := url.Parse(address)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s: %v", ErrInvalidURL, address, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Source{}, fmt.Errorf("%w: %s: scheme and host are required", ErrInvalidURL, address)
	}
	if f == "" {
		f = format.Infer(u.Path)
	}
	return Source{Kind: SourceURL, Value: address, Format: f}, nil
}

// Name returns the display name used in diagnostics.
func (s Source) Name() string {
	switch s.Kind {
	case SourceCode:
		return "<code>"
	default:
		return s.Value
	}
}

// String returns a "kind:name" identifier (e.g., "file:config.yaml").
func (s Source) String() string {
	return s.Kind.String() + ":" + s.Name()
}
