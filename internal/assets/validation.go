package assets

import (
	"fmt"
	"strings"
)

// TemplateExt is appended to template names given without an extension.
const TemplateExt = ".docx"

// maxNameLength bounds tenant and template names taken from headers.
const maxNameLength = 255

// ValidateAssetName checks that an asset name is safe for use as a path element.
// Returns ErrInvalidAssetName if the name is empty or contains path separators,
// dots (which could allow extension manipulation), or traversal characters.
// Used for tenant identifiers.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name too long (%d chars)", ErrInvalidAssetName, len(name))
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// NormalizeTemplateName validates a template file name and appends
// TemplateExt when it has none. Unlike tenant names, template names
// may carry an extension, but never a separator or a leading dot.
func NormalizeTemplateName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty template name", ErrInvalidAssetName)
	}
	if len(name) > maxNameLength {
		return "", fmt.Errorf("%w: template name too long (%d chars)", ErrInvalidAssetName, len(name))
	}
	if strings.ContainsAny(name, "/\\\x00") || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	if !strings.Contains(name, ".") {
		name += TemplateExt
	}
	if !strings.EqualFold(name[strings.LastIndex(name, "."):], TemplateExt) {
		return "", fmt.Errorf("%w: %q is not a %s file", ErrInvalidAssetName, name, TemplateExt)
	}
	return name, nil
}
