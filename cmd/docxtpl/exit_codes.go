package main

import (
	"context"
	"errors"
	"os"

	"github.com/alnah/go-docxtpl"
	"github.com/alnah/go-docxtpl/internal/assets"
	"github.com/alnah/go-docxtpl/internal/config"
	"github.com/alnah/go-docxtpl/internal/hints"
)

// Exit codes for the docxtpl CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Successful run
	ExitGeneral   = 1 // General/unexpected error
	ExitUsage     = 2 // Invalid flags, config, or validation
	ExitIO        = 3 // File not found, permission denied
	ExitConverter = 4 // soffice errors
	ExitTemplate  = 5 // Template or values do not fit together
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Converter errors (exit 4)
	if errors.Is(err, docxtpl.ErrConversion) {
		return ExitConverter
	}

	// Template/data errors (exit 5)
	if errors.Is(err, docxtpl.ErrMissingTagValue) ||
		errors.Is(err, docxtpl.ErrTemplateSyntax) ||
		errors.Is(err, docxtpl.ErrMalformedEncodedPayload) ||
		errors.Is(err, docxtpl.ErrUnresolvedImage) ||
		errors.Is(err, docxtpl.ErrRender) {
		return ExitTemplate
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, docxtpl.ErrTemplateNotFound) ||
		errors.Is(err, assets.ErrTemplateNotFound) ||
		errors.Is(err, ErrReadValues) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, docxtpl.ErrInvalidInput) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, assets.ErrInvalidAssetName) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, docxtpl.ErrConversion) && errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, docxtpl.ErrConversion):
		return hints.ForConverter()
	case errors.Is(err, docxtpl.ErrMalformedEncodedPayload):
		return hints.ForEncodedPayload()
	case errors.Is(err, docxtpl.ErrMissingTagValue):
		return hints.ForMissingTag()
	case errors.Is(err, docxtpl.ErrTemplateNotFound), errors.Is(err, assets.ErrTemplateNotFound):
		return hints.ForTemplateNotFound()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(configSearchPaths())
	}
	return ""
}
