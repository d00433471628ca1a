package schematic

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Azhovan/schematic/format"
)

func TestNewCodeSource(t *testing.T) {
	src, err := NewCodeSource("name: x", format.YAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Kind != SourceCode || src.Value != "name: x" || src.Format != format.YAML {
		t.Errorf("unexpected source: %+v", src)
	}
	if src.String() != "code:<code>" {
		t.Errorf("String() = %q", src.String())
	}

	if _, err := NewCodeSource("name: x", ""); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("expected ErrInvalidCode, got %v", err)
	}
}

func TestNewFileSource(t *testing.T) {
	tests := []struct {
		path   string
		format format.Format
		want   format.Format
	}{
		{"config.yaml", "", format.YAML},
		{"config.yml", "", format.YAML},
		{"config.JSON", "", format.JSON},
		{"settings.jsonc", "", format.JSONC},
		{"app.toml", "", format.TOML},
		{"app.conf", "", format.Format("conf")},
		{"Makefile", "", ""},
		{"app.conf", format.TOML, format.TOML},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			src, err := NewFileSource(tt.path, tt.format)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src.Format != tt.want {
				t.Errorf("format = %q, want %q", src.Format, tt.want)
			}
		})
	}

	src, err := NewFileSource("./conf/../conf/app.yaml", "")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("conf", "app.yaml"); src.Value != want {
		t.Errorf("path = %q, want %q", src.Value, want)
	}
	if src.String() != "file:"+src.Value {
		t.Errorf("String() = %q", src.String())
	}

	if _, err := NewFileSource("", ""); !errors.Is(err, ErrInvalidFile) {
		t.Errorf("expected ErrInvalidFile, got %v", err)
	}
}

func TestNewURLSource(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    format.Format
		err     error
	}{
		{name: "https", address: "https://example.com/config.yaml", want: format.YAML},
		{name: "query ignored", address: "https://example.com/config.json?token=abc", want: format.JSON},
		{name: "loopback ip", address: "http://127.0.0.1:8080/config.toml", want: format.TOML},
		{name: "localhost", address: "http://localhost/config.yml", want: format.YAML},
		{name: "plain http", address: "http://example.com/config.yaml", err: ErrHTTPSOnly},
		{name: "ftp", address: "ftp://example.com/config.yaml", err: ErrHTTPSOnly},
		{name: "no host", address: "https:///config.yaml", err: ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewURLSource(tt.address, "")
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src.Format != tt.want {
				t.Errorf("format = %q, want %q", src.Format, tt.want)
			}
			if src.Name() != tt.address {
				t.Errorf("Name() = %q, want %q", src.Name(), tt.address)
			}
		})
	}
}

func TestSource_Comparable(t *testing.T) {
	a, _ := NewFileSource("config.yaml", "")
	b, _ := NewFileSource("./config.yaml", "")
	c, _ := NewFileSource("config.yaml", format.JSON)

	seen := map[Source]bool{a: true}
	if !seen[b] {
		t.Error("equal paths should produce equal sources")
	}
	if seen[c] {
		t.Error("sources with different formats should differ")
	}
}

func TestSourceKind_String(t *testing.T) {
	for kind, want := range map[SourceKind]string{
		SourceCode:     "code",
		SourceFile:     "file",
		SourceURL:      "url",
		SourceKind(42): "unknown",
	} {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
