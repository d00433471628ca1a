package schematic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/Azhovan/schematic/env"
	"github.com/Azhovan/schematic/format"
)

// Stage names a step of the load pipeline.
type Stage uint8

const (
	StageCollecting Stage = iota
	StageResolving
	StageParsing
	StageEnv
	StageMerging
	StageFinalizing
	StageValidating
)

func (s Stage) String() string {
	switch s {
	case StageCollecting:
		return "collecting sources"
	case StageResolving:
		return "resolving extends"
	case StageParsing:
		return "parsing layers"
	case StageEnv:
		return "overlaying environment"
	case StageMerging:
		return "merging"
	case StageFinalizing:
		return "finalizing"
	case StageValidating:
		return "validating"
	default:
		return "unknown stage"
	}
}

// Layer pairs a parsed partial with the source it came from.
type Layer struct {
	Source  Source
	Partial *Partial
}

// Result is a loaded configuration together with the layers it was built
// from, in merge order.
type Result[T any] struct {
	Config   *T
	Defaults *Partial
	Layers   []Layer
	Env      *Partial // nil when the environment is disabled
	Merged   *Partial // Finalized partial the config was built from
}

// Loader loads and validates configuration from multiple sources.
//
// Precedence, lowest first: field defaults, then every source in the order
// it was added (each preceded by its extends ancestors), then environment
// variables. A Loader may be reused; each Load is independent.
type Loader[T any] struct {
	sources        []Source
	errs           []error
	validators     []Validator[T]
	strict         bool // Fail on unknown keys (default: true)
	context        any
	env            bool
	envPrefix      string
	lookup         env.Lookup
	dotenv         []string
	cache          Cache
	client         *http.Client
	logger         zerolog.Logger
	validateLayers bool
}

// NewLoader creates a Loader with no sources, strict mode and the
// environment overlay enabled.
func NewLoader[T any]() *Loader[T] {
	return &Loader[T]{
		strict: true,
		env:    true,
		cache:  NoCache{},
		client: http.DefaultClient,
		logger: zerolog.Nop(),
	}
}

// WithSource adds a source. Sources are processed in order (later override earlier).
func (l *Loader[T]) WithSource(src Source) *Loader[T] {
	l.sources = append(l.sources, src)
	return l
}

// WithCode adds inline content. Construction errors are reported by Load.
func (l *Loader[T]) WithCode(content string, f format.Format) *Loader[T] {
	return l.add(NewCodeSource(content, f))
}

// WithFile adds a file; the format is inferred from the extension.
func (l *Loader[T]) WithFile(path string) *Loader[T] {
	return l.add(NewFileSource(path, ""))
}

// WithURL adds an https URL; the format is inferred from the URL path.
func (l *Loader[T]) WithURL(address string) *Loader[T] {
	return l.add(NewURLSource(address, ""))
}

func (l *Loader[T]) add(src Source, err error) *Loader[T] {
	if err != nil {
		l.errs = append(l.errs, err)
		return l
	}
	return l.WithSource(src)
}

// WithContext sets the value handed to default, merge and validate functions.
func (l *Loader[T]) WithContext(context any) *Loader[T] {
	l.context = context
	return l
}

// WithEnvPrefix sets the prefix prepended to every environment variable name.
func (l *Loader[T]) WithEnvPrefix(prefix string) *Loader[T] {
	l.envPrefix = prefix
	return l
}

// WithEnv enables or disables the environment overlay. Default: enabled.
func (l *Loader[T]) WithEnv(enabled bool) *Loader[T] {
	l.env = enabled
	return l
}

// WithLookupEnv replaces the process environment as the variable source.
func (l *Loader[T]) WithLookupEnv(lookup env.Lookup) *Loader[T] {
	l.lookup = lookup
	return l
}

// WithDotenv reads .env files as a fallback for variables missing from the
// environment. Missing files are ignored.
func (l *Loader[T]) WithDotenv(paths ...string) *Loader[T] {
	l.dotenv = append(l.dotenv, paths...)
	return l
}

// WithCache sets the cache consulted before fetching URL sources.
func (l *Loader[T]) WithCache(c Cache) *Loader[T] {
	if c == nil {
		c = NoCache{}
	}
	l.cache = c
	return l
}

// WithHTTPClient sets the client used for URL sources.
func (l *Loader[T]) WithHTTPClient(c *http.Client) *Loader[T] {
	if c == nil {
		c = http.DefaultClient
	}
	l.client = c
	return l
}

// WithLogger sets the logger used for debug output. Default: disabled.
func (l *Loader[T]) WithLogger(logger zerolog.Logger) *Loader[T] {
	l.logger = logger
	return l
}

// WithValidator adds a custom validator (executed after field validation).
func (l *Loader[T]) WithValidator(v Validator[T]) *Loader[T] {
	l.validators = append(l.validators, v)
	return l
}

// ValidateLayers validates every source layer on its own before merging.
// Required fields are not checked for single layers.
func (l *Loader[T]) ValidateLayers(enabled bool) *Loader[T] {
	l.validateLayers = enabled
	return l
}

// Strict controls whether unknown keys cause errors. Default: true.
func (l *Loader[T]) Strict(strict bool) *Loader[T] {
	l.strict = strict
	return l
}

// Load loads, merges, finalizes and validates the configuration.
// Every failure is a *StageError; validation failures wrap a
// *ValidationError holding all field errors.
func (l *Loader[T]) Load(ctx context.Context) (*T, error) {
	res, err := l.LoadWithLayers(ctx)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithLayers is Load, also returning the layers the config was built from.
func (l *Loader[T]) LoadWithLayers(ctx context.Context) (*Result[T], error) {
	desc, err := DescriptorOf[T]()
	if err != nil {
		return nil, &StageError{Stage: StageCollecting, Err: err}
	}
	if err := errors.Join(l.errs...); err != nil {
		return nil, &StageError{Stage: StageCollecting, Err: err}
	}

	l.logger.Debug().
		Str("type", desc.Name).
		Int("sources", len(l.sources)).
		Msg("loading configuration")

	defaults, err := defaultsPartial(desc, l.context)
	if err != nil {
		return nil, &StageError{Stage: StageCollecting, Err: err}
	}

	layers, err := l.readLayers(ctx, desc)
	if err != nil {
		return nil, err
	}

	if l.validateLayers {
		for _, layer := range layers {
			vm := NewValidateManager(l.context, false, nil)
			vm.Validate(layer.Partial)
			if err := vm.Err(); err != nil {
				return nil, &StageError{Stage: StageValidating, Err: fmt.Errorf("%s: %w", layer.Source, err)}
			}
		}
	}

	var envPartial *Partial
	var envKeys map[string]string
	if l.env {
		envPartial, envKeys, err = l.readEnv(desc)
		if err != nil {
			return nil, &StageError{Stage: StageEnv, Err: err}
		}
	}

	mm := NewMergeManager(l.context)
	merged := defaults.Clone()
	for _, layer := range layers {
		if merged, err = mm.Merge(merged, layer.Partial); err != nil {
			return nil, &StageError{Stage: StageMerging, Err: err}
		}
	}
	if merged, err = mm.Merge(merged, envPartial); err != nil {
		return nil, &StageError{Stage: StageMerging, Err: err}
	}

	final, err := finalizePartial(merged, l.context, nil)
	if err != nil {
		return nil, &StageError{Stage: StageFinalizing, Err: err}
	}
	cfg := new(T)
	if err := build(final, reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, &StageError{Stage: StageFinalizing, Err: err}
	}

	vm := NewValidateManager(l.context, true, nil)
	allErrors := vm.Validate(final)

	for i, validator := range l.validators {
		err := validator.Validate(ctx, cfg)
		if err == nil {
			continue
		}
		var valErr *ValidationError
		if errors.As(err, &valErr) {
			allErrors = append(allErrors, valErr.FieldErrors...)
			continue
		}
		return nil, &StageError{Stage: StageValidating, Err: fmt.Errorf("validator %d failed: %w", i, err)}
	}

	if len(allErrors) > 0 {
		return nil, &StageError{Stage: StageValidating, Err: &ValidationError{FieldErrors: allErrors}}
	}

	storeProvenance(cfg, &Provenance{Fields: collectProvenance(desc, defaults, layers, envPartial, envKeys)})

	l.logger.Debug().
		Str("type", desc.Name).
		Int("layers", len(layers)).
		Msg("configuration loaded")

	return &Result[T]{
		Config:   cfg,
		Defaults: defaults,
		Layers:   layers,
		Env:      envPartial,
		Merged:   final,
	}, nil
}

func (l *Loader[T]) readLayers(ctx context.Context, desc *Descriptor) ([]Layer, error) {
	r := &resolver[*Partial]{
		client: l.client,
		cache:  l.cache,
		logger: l.logger,
		parse: func(src Source, content string) (*Partial, ExtendsFrom, error) {
			doc, err := format.Parse(src.Format, src.Name(), content)
			if err != nil {
				return nil, nil, err
			}
			p, err := DecodePartial(desc, doc, src.Name(), content, l.strict)
			if err != nil {
				return nil, nil, err
			}
			return p, p.Extends(), nil
		},
	}

	parsed, err := r.resolve(ctx, l.sources)
	if err != nil {
		return nil, err
	}

	layers := make([]Layer, len(parsed))
	for i, p := range parsed {
		layers[i] = Layer{Source: p.source, Partial: p.value}
		l.logger.Debug().
			Str("source", p.source.String()).
			Int("fields", p.value.Len()).
			Msg("layer parsed")
	}
	return layers, nil
}

func (l *Loader[T]) readEnv(desc *Descriptor) (*Partial, map[string]string, error) {
	lookup := l.lookup
	if lookup == nil {
		lookup = env.OS
	}
	if len(l.dotenv) > 0 {
		fallback, err := env.Dotenv(l.dotenv...)
		if err != nil {
			return nil, nil, err
		}
		lookup = env.Chain(lookup, fallback)
	}

	em := NewEnvManager(l.envPrefix, lookup)
	p, err := em.Overlay(desc)
	if err != nil {
		return nil, nil, err
	}
	l.logger.Debug().Int("variables", em.Count()).Msg("environment applied")
	return p, em.Keys(), nil
}
