package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alnah/go-docxtpl"
	"github.com/alnah/go-docxtpl/internal/config"
)

// loadSettings builds the effective configuration of a command:
// defaults, then the config file, then DOCXTPL_* variables, then flags.
func loadSettings(common *commonFlags, conv *converterFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.Getenv)
	if !common.quiet && env.Environ != nil {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	var cfg config.Config
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = *loaded
	} else {
		base := env.Config
		if base == nil {
			base = config.DefaultConfig()
		}
		cfg = *base
	}

	applyEnvConfig(envCfg, &cfg)
	if err := applyConverterFlags(conv, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyConverterFlags applies explicitly set converter flags.
func applyConverterFlags(f *converterFlags, cfg *config.Config) error {
	if f.soffice != "" {
		cfg.Convert.Binary = f.soffice
	}
	if f.timeout != "" {
		d, err := time.ParseDuration(f.timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: invalid --timeout %q (e.g., 30s, 2m)", ErrUsage, f.timeout)
		}
		cfg.Convert.Timeout = d.String()
	}
	if f.workers < 0 || f.workers > config.MaxConcurrentLimit {
		return fmt.Errorf("%w: --workers must be between 0 and %d, got %d", ErrUsage, config.MaxConcurrentLimit, f.workers)
	}
	if f.workers > 0 {
		cfg.Convert.MaxConcurrent = f.workers
	}
	return nil
}

// pipelineOptions translates the configuration into pipeline options.
func pipelineOptions(cfg *config.Config, env *Environment) ([]docxtpl.Option, error) {
	timeout, err := cfg.Convert.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	sizes := make(map[string]docxtpl.Dimensions, len(cfg.Images.Sizes))
	for tag, s := range cfg.Images.Sizes {
		sizes[tag] = docxtpl.Dimensions{Width: s.Width, Height: s.Height}
	}

	opts := []docxtpl.Option{
		docxtpl.WithSizeOverrides(sizes),
		docxtpl.WithConverterTimeout(timeout),
		docxtpl.WithSofficeBinary(cfg.Convert.Binary),
		docxtpl.WithMaxConversions(cfg.Convert.MaxConcurrent),
	}
	if env.Converter != nil {
		opts = append(opts, docxtpl.WithConverter(env.Converter))
	}
	return opts, nil
}

// defaultOutputKind returns the configured output kind, or fallback.
func defaultOutputKind(cfg *config.Config, fallback docxtpl.OutputKind) (docxtpl.OutputKind, error) {
	if cfg.Output.Format == "" {
		return fallback, nil
	}
	return docxtpl.ParseOutputKind(cfg.Output.Format)
}

// configSearchPaths lists where a config named "config" would be looked up.
func configSearchPaths() []string {
	paths := []string{"config.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "go-docxtpl", "config.yaml"))
	}
	return paths
}
