package docxtpl

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/alnah/go-docxtpl/internal/fileutil"
)

// Compile-time interface implementation checks.
var (
	_ Converter     = (*SofficeConverter)(nil)
	_ CommandRunner = (*ExecRunner)(nil)
)

// Pipeline renders a template and optionally converts it to PDF.
// Create with NewPipeline; Run is safe for concurrent use.
type Pipeline struct {
	cfg       pipelineConfig
	engine    *Engine
	converter Converter
}

type pipelineConfig struct {
	sizes          map[string]Dimensions
	timeout        time.Duration
	binary         string
	maxConversions int
	resolver       *Resolver
	converter      Converter
}

// Option configures a Pipeline.
type Option func(*pipelineConfig)

// WithConverter replaces the soffice converter (tests, other engines).
func WithConverter(c Converter) Option {
	return func(cfg *pipelineConfig) {
		cfg.converter = c
	}
}

// WithSizeOverrides replaces the per-tag fixed image sizes.
// The default is DefaultSizeOverrides.
func WithSizeOverrides(sizes map[string]Dimensions) Option {
	return func(cfg *pipelineConfig) {
		cfg.sizes = maps.Clone(sizes)
	}
}

// WithConverterTimeout bounds each PDF conversion.
func WithConverterTimeout(d time.Duration) Option {
	return func(cfg *pipelineConfig) {
		cfg.timeout = d
	}
}

// WithSofficeBinary sets the office suite executable.
func WithSofficeBinary(path string) Option {
	return func(cfg *pipelineConfig) {
		cfg.binary = path
	}
}

// WithMaxConversions bounds concurrent PDF conversions (0 = from GOMAXPROCS).
func WithMaxConversions(n int) Option {
	return func(cfg *pipelineConfig) {
		cfg.maxConversions = n
	}
}

// WithResolver replaces the image resolver, e.g. to confine file references.
func WithResolver(r *Resolver) Option {
	return func(cfg *pipelineConfig) {
		cfg.resolver = r
	}
}

// NewPipeline creates a Pipeline. No external process starts until a PDF
// is requested.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	cfg := pipelineConfig{
		sizes:   DefaultSizeOverrides(),
		timeout: DefaultConverterTimeout,
		binary:  DefaultSofficeBinary,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sizes := SizePolicy{Overrides: cfg.sizes}
	if err := sizes.Validate(); err != nil {
		return nil, err
	}
	if cfg.timeout < 0 {
		return nil, fmt.Errorf("%w: negative converter timeout %s", ErrInvalidInput, cfg.timeout)
	}
	if cfg.maxConversions < 0 {
		return nil, fmt.Errorf("%w: negative conversion limit %d", ErrInvalidInput, cfg.maxConversions)
	}

	p := &Pipeline{
		cfg:       cfg,
		engine:    NewEngine(cfg.resolver, sizes),
		converter: cfg.converter,
	}
	if p.converter == nil {
		p.converter = NewSofficeConverter(cfg.binary, cfg.timeout, cfg.maxConversions)
	}
	return p, nil
}

// Engine returns the render engine used by Run.
func (p *Pipeline) Engine() *Engine {
	return p.engine
}

// Run renders req.TemplatePath with req.Values and returns the DOCX, or the
// PDF when req.Output is OutputPDF. The first failure stops the run and no
// partial artifact is returned. Panics are recovered as ErrInternal.
func (p *Pipeline) Run(ctx context.Context, req Request) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	template, err := os.ReadFile(req.TemplatePath) // #nosec G304 -- path validated by caller
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	name := filepath.Base(req.TemplatePath)

	values := maps.Clone(req.Values)
	if req.LogoPath != "" {
		values[LogoTag] = req.LogoPath
	}

	doc, err := p.engine.Render(ctx, template, values)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	if req.Output == OutputDOCX {
		return &Result{Data: doc, Kind: OutputDOCX}, nil
	}

	pdf, err := p.converter.Convert(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", name, err)
	}
	return &Result{Data: pdf, Kind: OutputPDF}, nil
}

func validateRequest(req Request) error {
	if req.Values == nil {
		return fmt.Errorf("%w: values must not be nil", ErrInvalidInput)
	}
	if err := req.Output.Validate(); err != nil {
		return err
	}
	if req.TemplatePath == "" {
		return fmt.Errorf("%w: empty template path", ErrInvalidInput)
	}
	if !fileutil.FileExists(req.TemplatePath) {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, req.TemplatePath)
	}
	return nil
}
