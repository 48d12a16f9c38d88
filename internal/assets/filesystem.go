package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Locator resolves tenant assets to filesystem paths.
type Locator interface {
	TemplatePath(tenant, name string) (string, error)
	LogoPath(tenant string) (string, error)
}

// FilesystemStore resolves tenant assets below a base directory.
// Implements Locator.
type FilesystemStore struct {
	basePath string
	tenants  map[string]bool
}

// NewFilesystemStore creates a FilesystemStore for the given base path and
// tenant allow-list. An empty allow-list rejects every tenant.
// Returns ErrInvalidBasePath if the path is not a valid, readable directory.
func NewFilesystemStore(basePath string, tenants []string) (*FilesystemStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	// Resolve symlinks in base path so containment checks compare real paths.
	realPath, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		absPath = realPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
	}

	allowed := make(map[string]bool, len(tenants))
	for _, t := range tenants {
		if err := ValidateAssetName(t); err != nil {
			return nil, fmt.Errorf("tenant allow-list: %w", err)
		}
		allowed[t] = true
	}

	return &FilesystemStore{basePath: absPath, tenants: allowed}, nil
}

// BasePath returns the resolved absolute base directory.
func (f *FilesystemStore) BasePath() string {
	return f.basePath
}

// TemplatePath returns the path of {basePath}/{tenant}/templates/{name}.
// The file must exist; otherwise ErrTemplateNotFound is returned.
func (f *FilesystemStore) TemplatePath(tenant, name string) (string, error) {
	if err := f.checkTenant(tenant); err != nil {
		return "", err
	}
	fileName, err := NormalizeTemplateName(name)
	if err != nil {
		return "", err
	}

	filePath := filepath.Join(f.basePath, tenant, "templates", fileName)
	if err := f.verifyPathContainment(filePath); err != nil {
		return "", err
	}

	info, err := os.Stat(filePath)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, tenant, fileName)
	}
	return filePath, nil
}

// LogoPath returns the path of {basePath}/{tenant}/logo/logo.png.
// Existence is not checked: a template that never uses the logo tag
// renders fine without one.
func (f *FilesystemStore) LogoPath(tenant string) (string, error) {
	if err := f.checkTenant(tenant); err != nil {
		return "", err
	}
	filePath := filepath.Join(f.basePath, tenant, "logo", "logo.png")
	if err := f.verifyPathContainment(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}

func (f *FilesystemStore) checkTenant(tenant string) error {
	if err := ValidateAssetName(tenant); err != nil {
		return err
	}
	if !f.tenants[tenant] {
		return fmt.Errorf("%w: %q", ErrUnknownTenant, tenant)
	}
	return nil
}

// verifyPathContainment ensures the resolved file path is within basePath.
// Resolves symlinks to prevent escape via symlink pointing outside basePath.
func (f *FilesystemStore) verifyPathContainment(filePath string) error {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathTraversal)
	}

	// If EvalSymlinks fails (e.g. file doesn't exist), keep the cleaned path:
	// the later stat fails anyway and the prefix check still applies.
	realPath, err := filepath.EvalSymlinks(absFilePath)
	if err == nil {
		absFilePath = realPath
	}

	// Separator suffix prevents /base/path vs /base/pathevil prefix attacks.
	if !strings.HasPrefix(absFilePath, f.basePath+string(filepath.Separator)) {
		return fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}

	return nil
}

// Compile-time interface check.
var _ Locator = (*FilesystemStore)(nil)
