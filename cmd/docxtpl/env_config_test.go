package main

// Notes:
// - loadEnvConfig takes a getenv function, so tests pass a map lookup and
//   run in parallel without t.Setenv.
// - Invalid numbers and durations are ignored, not errors.

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-docxtpl/internal/config"
)

func mapGetenv(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable loading
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
		want envConfig
	}{
		{
			name: "empty",
			vars: nil,
			want: envConfig{},
		},
		{
			name: "all set",
			vars: map[string]string{
				"DOCXTPL_CONFIG":  "/etc/docxtpl.yaml",
				"DOCXTPL_ASSETS":  "/srv/assets",
				"DOCXTPL_SOFFICE": "/opt/libreoffice/program/soffice",
				"DOCXTPL_TIMEOUT": "2m",
				"DOCXTPL_WORKERS": "3",
				"DOCXTPL_ADDR":    ":8080",
				"DOCXTPL_FORMAT":  "PDF",
			},
			want: envConfig{
				ConfigPath: "/etc/docxtpl.yaml",
				Assets:     "/srv/assets",
				Soffice:    "/opt/libreoffice/program/soffice",
				Timeout:    2 * time.Minute,
				Workers:    3,
				Addr:       ":8080",
				Format:     "pdf",
			},
		},
		{
			name: "PORT fallback",
			vars: map[string]string{"PORT": "9000"},
			want: envConfig{Addr: ":9000"},
		},
		{
			name: "DOCXTPL_ADDR wins over PORT",
			vars: map[string]string{"PORT": "9000", "DOCXTPL_ADDR": "127.0.0.1:3000"},
			want: envConfig{Addr: "127.0.0.1:3000"},
		},
		{
			name: "invalid values ignored",
			vars: map[string]string{
				"DOCXTPL_TIMEOUT": "soon",
				"DOCXTPL_WORKERS": "many",
			},
			want: envConfig{},
		},
		{
			name: "non-positive values ignored",
			vars: map[string]string{
				"DOCXTPL_TIMEOUT": "-1s",
				"DOCXTPL_WORKERS": "0",
			},
			want: envConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := loadEnvConfig(mapGetenv(tt.vars))
			if diff := cmp.Diff(tt.want, *got); diff != "" {
				t.Errorf("loadEnvConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf, []string{
		"DOCXTPL_SOFFIC=/usr/bin/soffice",
		"DOCXTPL_SOFFICE=/usr/bin/soffice",
		"DOCXTPL_CONTAINER=1",
		"PATH=/usr/bin",
		"OTHER_TOOL_MODE=x",
	})

	out := buf.String()
	if !strings.Contains(out, "DOCXTPL_SOFFIC ") {
		t.Errorf("should warn about DOCXTPL_SOFFIC, got %q", out)
	}
	if strings.Count(out, "warning:") != 1 {
		t.Errorf("want exactly one warning, got %q", out)
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Env overrides the loaded config
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Convert.Binary = "from-file"

	applyEnvConfig(&envConfig{
		Assets:  "/srv/assets",
		Soffice: "/usr/lib/libreoffice/program/soffice",
		Timeout: 90 * time.Second,
		Workers: 4,
		Addr:    ":8080",
		Format:  "pdf",
	}, cfg)

	if cfg.Assets.BasePath != "/srv/assets" {
		t.Errorf("BasePath = %q", cfg.Assets.BasePath)
	}
	if cfg.Convert.Binary != "/usr/lib/libreoffice/program/soffice" {
		t.Errorf("Binary = %q", cfg.Convert.Binary)
	}
	if cfg.Convert.Timeout != "1m30s" {
		t.Errorf("Timeout = %q, want 1m30s", cfg.Convert.Timeout)
	}
	if cfg.Convert.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d, want 4", cfg.Convert.MaxConcurrent)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Output.Format != "pdf" {
		t.Errorf("Format = %q", cfg.Output.Format)
	}
}

func TestApplyEnvConfig_EmptyKeepsConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	want := *config.DefaultConfig()
	applyEnvConfig(&envConfig{}, cfg)

	if diff := cmp.Diff(want, *cfg); diff != "" {
		t.Errorf("empty env changed config (-want +got):\n%s", diff)
	}
}
