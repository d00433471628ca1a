package schematic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Azhovan/schematic/format"
	"github.com/Azhovan/schematic/validate"
)

// parseFunc parses the content of one source and reports its extends list.
type parseFunc[P any] func(src Source, content string) (P, ExtendsFrom, error)

// resolved is one parsed source in merge order.
type resolved[P any] struct {
	source Source
	value  P
}

// resolver reads sources and expands their extends chains depth-first:
// the ancestors of a source precede it, siblings keep declaration order.
// A source seen earlier in the chain is skipped, which also ends cycles.
type resolver[P any] struct {
	client  *http.Client
	cache   Cache
	cacheMu sync.Mutex
	logger  zerolog.Logger
	parse   parseFunc[P]
}

type parsedDoc[P any] struct {
	value   P
	extends ExtendsFrom
}

func (r *resolver[P]) resolve(ctx context.Context, sources []Source) ([]resolved[P], error) {
	visited := make(map[Source]bool)
	var out []resolved[P]

	var expandAll func(sources []Source) error
	expandAll = func(sources []Source) error {
		pending := make([]Source, 0, len(sources))
		for _, src := range sources {
			if !visited[src] {
				pending = append(pending, src)
			}
		}

		docs, err := r.fetchAll(ctx, pending)
		if err != nil {
			return err
		}

		for i, src := range pending {
			if visited[src] {
				r.logger.Debug().Str("source", src.String()).Msg("source already loaded, skipping")
				continue
			}
			visited[src] = true

			if exts := docs[i].extends; len(exts) > 0 {
				if src.Kind == SourceCode {
					return &StageError{Stage: StageResolving, Err: ErrExtendsFromNoCode}
				}
				parents, err := extendsSources(src, exts)
				if err != nil {
					return &StageError{Stage: StageResolving, Err: err}
				}
				r.logger.Debug().
					Str("source", src.String()).
					Strs("extends", exts).
					Msg("resolving extends")
				if err := expandAll(parents); err != nil {
					return err
				}
			}

			out = append(out, resolved[P]{source: src, value: docs[i].value})
		}
		return nil
	}

	if err := expandAll(sources); err != nil {
		return nil, err
	}
	return out, nil
}

// fetchAll reads and parses sources concurrently. The results keep the
// order of sources.
func (r *resolver[P]) fetchAll(ctx context.Context, sources []Source) ([]parsedDoc[P], error) {
	docs := make([]parsedDoc[P], len(sources))
	g, gctx := errgroup.WithContext(ctx)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			content, err := r.fetch(gctx, src)
			if err != nil {
				return &StageError{Stage: StageResolving, Err: err}
			}
			value, exts, err := r.parse(src, content)
			if err != nil {
				return &StageError{Stage: StageParsing, Err: err}
			}
			docs[i] = parsedDoc[P]{value: value, extends: exts}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *resolver[P]) fetch(ctx context.Context, src Source) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch src.Kind {
	case SourceCode:
		return src.Value, nil
	case SourceFile:
		r.logger.Debug().Str("path", src.Value).Msg("reading file source")
		data, err := os.ReadFile(src.Value)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", ErrMissingFile, src.Value)
			}
			return "", fmt.Errorf("read %s: %w", src.Value, err)
		}
		return string(data), nil
	case SourceURL:
		return r.fetchURL(ctx, src.Value)
	default:
		return "", fmt.Errorf("unknown source kind %d", src.Kind)
	}
}

func (r *resolver[P]) fetchURL(ctx context.Context, address string) (string, error) {
	r.cacheMu.Lock()
	content, ok, err := r.cache.Read(address)
	r.cacheMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("read cache for %s: %w", address, err)
	}
	if ok {
		r.logger.Debug().Str("url", address).Msg("url source served from cache")
		return content, nil
	}

	r.logger.Debug().Str("url", address).Msg("fetching url source")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidURL, address, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %s", address, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", address, err)
	}
	content = string(body)

	r.cacheMu.Lock()
	err = r.cache.Write(address, content)
	r.cacheMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("write cache for %s: %w", address, err)
	}
	return content, nil
}

// extendsSources turns the extends references of parent into sources.
// URLs are allowed from any parent; file paths only from file sources and
// are resolved against the parent's directory.
func extendsSources(parent Source, refs ExtendsFrom) ([]Source, error) {
	if parent.Kind == SourceCode {
		return nil, ErrExtendsFromNoCode
	}

	sources := make([]Source, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}

		if validate.IsURL(ref) {
			src, err := NewURLSource(ref, "")
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
			continue
		}

		if parent.Kind != SourceFile {
			return nil, fmt.Errorf("%w: %s cannot extend %q", ErrExtendsFromParentFileOnly, parent, ref)
		}
		path := ref
		if !filepath.IsAbs(path) {
			path = filepath.Join(filepath.Dir(parent.Value), ref)
		}
		src, err := NewFileSource(path, "")
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// Document is one parsed source of an untyped resolution.
type Document struct {
	Source Source
	Data   map[string]any
}

// Resolver follows extends chains without a configuration type. The zero
// value reads the "extends" key, uses http.DefaultClient and no cache.
type Resolver struct {
	ExtendsKey string
	Client     *http.Client
	Cache      Cache
	Logger     *zerolog.Logger
}

// Resolve parses sources and their ancestors and returns them in merge
// order: ancestors first, each requested source after its ancestors.
func (rv Resolver) Resolve(ctx context.Context, sources ...Source) ([]Document, error) {
	key := rv.ExtendsKey
	if key == "" {
		key = "extends"
	}

	r := &resolver[map[string]any]{
		client: rv.Client,
		cache:  rv.Cache,
		logger: zerolog.Nop(),
		parse: func(src Source, content string) (map[string]any, ExtendsFrom, error) {
			doc, err := format.Parse(src.Format, src.Name(), content)
			if err != nil {
				return nil, nil, err
			}
			exts, err := rawExtends(doc[key], src, content, key)
			return doc, exts, err
		},
	}
	if r.client == nil {
		r.client = http.DefaultClient
	}
	if r.cache == nil {
		r.cache = NoCache{}
	}
	if rv.Logger != nil {
		r.logger = *rv.Logger
	}

	layers, err := r.resolve(ctx, sources)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, len(layers))
	for i, l := range layers {
		docs[i] = Document{Source: l.source, Data: l.value}
	}
	return docs, nil
}

func rawExtends(raw any, src Source, content, key string) (ExtendsFrom, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return ExtendsFrom(splitList(v)), nil
	case []any:
		out := make(ExtendsFrom, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &format.ParserError{
					Name:    src.Name(),
					Content: content,
					Path:    NewPath(Key(key), Index(i)).String(),
					Message: fmt.Sprintf("expected a string, found %s", format.Describe(item)),
				}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &format.ParserError{
			Name:    src.Name(),
			Content: content,
			Path:    key,
			Message: fmt.Sprintf("expected a string or an array of strings, found %s", format.Describe(raw)),
		}
	}
}
