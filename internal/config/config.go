package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-docxtpl/internal/fileutil"
	"github.com/alnah/go-docxtpl/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field limits for multi-tenant safety.
const (
	MaxPathLength      = 4096  // Filesystem paths
	MaxTenantLength    = 64    // Tenant identifiers
	MaxTagNameLength   = 100   // Template tag names
	MaxImageDimension  = 10000 // Pixels, either axis
	MaxConcurrentLimit = 64    // Simultaneous soffice processes
	MaxAddrLength      = 255   // host:port
)

// Defaults applied by DefaultConfig and after loading a file.
const (
	DefaultBasePath      = "assets"
	DefaultBinary        = "soffice"
	DefaultTimeout       = "60s"
	DefaultAddr          = ":3000"
	DefaultShutdownGrace = "10s"
	DefaultMaxBodyBytes  = 32 << 20
	DefaultLogoSize      = 90
)

// Output formats accepted in output.format.
const (
	FormatDOCX = "docx"
	FormatPDF  = "pdf"
)

// Config holds all configuration for rendering and serving documents.
type Config struct {
	Assets  AssetsConfig  `yaml:"assets"`
	Tenants []string      `yaml:"tenants"`
	Images  ImagesConfig  `yaml:"images"`
	Convert ConvertConfig `yaml:"convert"`
	Server  ServerConfig  `yaml:"server"`
	Output  OutputConfig  `yaml:"output"`
}

// AssetsConfig locates tenant templates and logos.
// Layout: {basePath}/{tenant}/templates/{name} and {basePath}/{tenant}/logo/logo.png.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"`
}

// ImagesConfig defines per-tag image sizing.
type ImagesConfig struct {
	Sizes map[string]SizeConfig `yaml:"sizes"` // tag name -> fixed display size in pixels
}

// SizeConfig is a fixed display size.
type SizeConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// ConvertConfig defines the PDF converter.
type ConvertConfig struct {
	Binary        string `yaml:"binary"`        // soffice executable (default: "soffice")
	Timeout       string `yaml:"timeout"`       // per conversion, e.g. "60s"
	MaxConcurrent int    `yaml:"maxConcurrent"` // 0 = auto from GOMAXPROCS
}

// ServerConfig defines the HTTP boundary.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	ShutdownGrace string `yaml:"shutdownGrace"`
	MaxBodyBytes  int64  `yaml:"maxBodyBytes"`
}

// OutputConfig defines the default output format.
type OutputConfig struct {
	Format string `yaml:"format"` // "docx" or "pdf" (empty = caller decides)
}

// TimeoutDuration parses Convert.Timeout.
func (c ConvertConfig) TimeoutDuration() (time.Duration, error) {
	return parsePositiveDuration("convert.timeout", c.Timeout)
}

// ShutdownGraceDuration parses Server.ShutdownGrace.
func (s ServerConfig) ShutdownGraceDuration() (time.Duration, error) {
	return parsePositiveDuration("server.shutdownGrace", s.ShutdownGrace)
}

// Validate checks field lengths and ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}

	for i, tenant := range c.Tenants {
		field := fmt.Sprintf("tenants[%d]", i)
		if err := validateFieldLength(field, tenant, MaxTenantLength); err != nil {
			return err
		}
		if tenant == "" || strings.ContainsAny(tenant, "/\\.\x00") {
			return fmt.Errorf("%w: %s: %q is not a plain identifier", ErrInvalidValue, field, tenant)
		}
	}

	for tag, size := range c.Images.Sizes {
		field := "images.sizes." + tag
		if err := validateFieldLength(field, tag, MaxTagNameLength); err != nil {
			return err
		}
		if size.Width < 1 || size.Width > MaxImageDimension || size.Height < 1 || size.Height > MaxImageDimension {
			return fmt.Errorf("%w: %s: %dx%d (each side must be between 1 and %d)",
				ErrInvalidValue, field, size.Width, size.Height, MaxImageDimension)
		}
	}

	if err := validateFieldLength("convert.binary", c.Convert.Binary, MaxPathLength); err != nil {
		return err
	}
	if c.Convert.Timeout != "" {
		if _, err := c.Convert.TimeoutDuration(); err != nil {
			return err
		}
	}
	if c.Convert.MaxConcurrent < 0 || c.Convert.MaxConcurrent > MaxConcurrentLimit {
		return fmt.Errorf("%w: convert.maxConcurrent: must be between 0 and %d, got %d",
			ErrInvalidValue, MaxConcurrentLimit, c.Convert.MaxConcurrent)
	}

	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}
	if c.Server.ShutdownGrace != "" {
		if _, err := c.Server.ShutdownGraceDuration(); err != nil {
			return err
		}
	}
	if c.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: server.maxBodyBytes: must not be negative, got %d", ErrInvalidValue, c.Server.MaxBodyBytes)
	}

	switch strings.ToLower(c.Output.Format) {
	case "", FormatDOCX, FormatPDF:
	default:
		return fmt.Errorf("%w: output.format: %q (must be docx or pdf)", ErrInvalidValue, c.Output.Format)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func parsePositiveDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s: must be positive, got %s", ErrInvalidValue, field, value)
	}
	return d, nil
}

// DefaultConfig returns the configuration the original service shipped with:
// two tenants, a 90x90 logo, and soffice on PATH.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero-valued fields.
func (c *Config) applyDefaults() {
	if c.Assets.BasePath == "" {
		c.Assets.BasePath = DefaultBasePath
	}
	if c.Tenants == nil {
		c.Tenants = []string{"CH0001", "CH0002"}
	}
	if c.Images.Sizes == nil {
		c.Images.Sizes = map[string]SizeConfig{
			"logo": {Width: DefaultLogoSize, Height: DefaultLogoSize},
		}
	}
	if c.Convert.Binary == "" {
		c.Convert.Binary = DefaultBinary
	}
	if c.Convert.Timeout == "" {
		c.Convert.Timeout = DefaultTimeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownGrace == "" {
		c.Server.ShutdownGrace = DefaultShutdownGrace
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
// Fields the file leaves empty take their defaults.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-docxtpl/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-docxtpl", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
