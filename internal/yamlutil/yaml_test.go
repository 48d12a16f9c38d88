package yamlutil_test

// Notes:
// - TestInputSizeLimit mutates package-level limits and therefore does not
//   run in parallel.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-docxtpl/internal/yamlutil"
)

type testConfig struct {
	Name    string `yaml:"name"`
	Count   int    `yaml:"count"`
	Enabled bool   `yaml:"enabled"`
}

// ---------------------------------------------------------------------------
// TestUnmarshal - Parses YAML into Go structs
// ---------------------------------------------------------------------------

func TestUnmarshalStrict_Input(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		want    *testConfig
		wantErr error
	}{
		{
			name: "valid YAML",
			data: []byte("name: test\ncount: 42\nenabled: true"),
			dest: &testConfig{},
			want: &testConfig{Name: "test", Count: 42, Enabled: true},
		},
		{
			name:    "nil data",
			data:    nil,
			dest:    &testConfig{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "nil destination",
			data:    []byte("name: test"),
			dest:    nil,
			wantErr: yamlutil.ErrNilDestination,
		},
		{
			name:    "invalid YAML syntax",
			data:    []byte("name: [unclosed"),
			dest:    &testConfig{},
			wantErr: errors.New("yamlutil:"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.UnmarshalStrict(tt.data, tt.dest)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.wantErr)
				}
				if !errors.Is(err, tt.wantErr) && !strings.Contains(err.Error(), tt.wantErr.Error()) {
					t.Fatalf("error = %q, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, tt.dest); diff != "" {
				t.Errorf("UnmarshalStrict() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict - Parses YAML and rejects unknown fields
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	t.Run("known fields", func(t *testing.T) {
		t.Parallel()

		var cfg testConfig
		if err := yamlutil.UnmarshalStrict([]byte("name: strict\ncount: 10"), &cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Name != "strict" || cfg.Count != 10 {
			t.Errorf("got %+v", cfg)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()

		var cfg testConfig
		err := yamlutil.UnmarshalStrict([]byte("name: test\nunknown_field: value"), &cfg)
		if err == nil || !strings.HasPrefix(err.Error(), "yamlutil:") {
			t.Errorf("error = %v, want yamlutil-prefixed error", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestDecodeValues - Replacement dictionaries from YAML or JSON
// ---------------------------------------------------------------------------

func TestDecodeValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		want    map[string]any
		wantErr error
	}{
		{
			name: "yaml mapping",
			data: "name: Jane\nitems:\n  - a\n  - b\n",
			want: map[string]any{"name": "Jane", "items": []any{"a", "b"}},
		},
		{
			name: "json object",
			data: `{"name": "Jane", "signature": "data:image/png;base64,AAAA"}`,
			want: map[string]any{"name": "Jane", "signature": "data:image/png;base64,AAAA"},
		},
		{
			name:    "json array",
			data:    `[{"name": "Jane"}]`,
			wantErr: yamlutil.ErrNotMapping,
		},
		{
			name:    "scalar",
			data:    "just text",
			wantErr: yamlutil.ErrNotMapping,
		},
		{
			name:    "null",
			data:    "null",
			wantErr: yamlutil.ErrNotMapping,
		},
		{
			name:    "empty",
			data:    "",
			wantErr: yamlutil.ErrNilData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := yamlutil.DecodeValues([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeValues() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeValues() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestInputSizeLimit - Verifies size limits
// ---------------------------------------------------------------------------

func TestInputSizeLimit(t *testing.T) {
	origInput, origValues := yamlutil.MaxInputSize, yamlutil.MaxValuesSize
	t.Cleanup(func() {
		yamlutil.MaxInputSize = origInput
		yamlutil.MaxValuesSize = origValues
	})

	t.Run("config limit", func(t *testing.T) {
		yamlutil.MaxInputSize = 50
		data := make([]byte, 100)
		err := yamlutil.UnmarshalStrict(data, &testConfig{})
		if !errors.Is(err, yamlutil.ErrInputTooLarge) {
			t.Fatalf("error = %v, want ErrInputTooLarge", err)
		}
		if !strings.Contains(err.Error(), "100 bytes") || !strings.Contains(err.Error(), "max 50") {
			t.Errorf("error should report sizes, got: %s", err)
		}
	})

	t.Run("values limit is independent", func(t *testing.T) {
		yamlutil.MaxInputSize = 10
		yamlutil.MaxValuesSize = 1000
		if _, err := yamlutil.DecodeValues([]byte("name: a value longer than ten bytes")); err != nil {
			t.Errorf("DecodeValues() error = %v, want nil", err)
		}

		yamlutil.MaxValuesSize = 5
		if _, err := yamlutil.DecodeValues([]byte("name: x")); !errors.Is(err, yamlutil.ErrInputTooLarge) {
			t.Errorf("DecodeValues() error = %v, want ErrInputTooLarge", err)
		}
	})
}
