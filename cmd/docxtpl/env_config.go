package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-docxtpl/internal/config"
)

// envPrefix starts every variable this tool reads.
const envPrefix = "DOCXTPL_"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // DOCXTPL_CONFIG: config file name or path
	Assets     string        // DOCXTPL_ASSETS: asset base directory
	Soffice    string        // DOCXTPL_SOFFICE: soffice executable
	Timeout    time.Duration // DOCXTPL_TIMEOUT: per-conversion timeout
	Workers    int           // DOCXTPL_WORKERS: concurrent conversions
	Addr       string        // DOCXTPL_ADDR: listen address (falls back to PORT)
	Format     string        // DOCXTPL_FORMAT: default output format
}

// knownEnvVars lists valid DOCXTPL_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"DOCXTPL_CONFIG":    true,
	"DOCXTPL_ASSETS":    true,
	"DOCXTPL_SOFFICE":   true,
	"DOCXTPL_TIMEOUT":   true,
	"DOCXTPL_WORKERS":   true,
	"DOCXTPL_ADDR":      true,
	"DOCXTPL_FORMAT":    true,
	"DOCXTPL_CONTAINER": true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("DOCXTPL_CONFIG"),
		Assets:     getenv("DOCXTPL_ASSETS"),
		Soffice:    getenv("DOCXTPL_SOFFICE"),
		Addr:       getenv("DOCXTPL_ADDR"),
		Format:     strings.ToLower(getenv("DOCXTPL_FORMAT")),
	}

	if cfg.Addr == "" {
		if port := getenv("PORT"); port != "" {
			cfg.Addr = ":" + port
		}
	}

	if timeout := getenv("DOCXTPL_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := getenv("DOCXTPL_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized DOCXTPL_* variables.
// Helps catch typos like DOCXTPL_SOFFIC instead of DOCXTPL_SOFFICE.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, envPrefix) {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies set environment variables over the loaded config.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied afterwards by applyConverterFlags and the commands).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Assets != "" {
		cfg.Assets.BasePath = env.Assets
	}
	if env.Soffice != "" {
		cfg.Convert.Binary = env.Soffice
	}
	if env.Timeout > 0 {
		cfg.Convert.Timeout = env.Timeout.String()
	}
	if env.Workers > 0 {
		cfg.Convert.MaxConcurrent = env.Workers
	}
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.Format != "" {
		cfg.Output.Format = env.Format
	}
}
