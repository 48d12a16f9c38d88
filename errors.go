package docxtpl

import (
	"errors"

	"github.com/alnah/go-docxtpl/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	// ErrInvalidInput reports a malformed request: nil values, unknown output kind.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTemplateNotFound reports a missing template file.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrUnresolvedImage reports an image value that is neither inline data
	// nor a readable file.
	ErrUnresolvedImage = errors.New("unresolved image")

	// ErrMalformedEncodedPayload reports inline image data whose base64
	// payload breaks the alphabet or padding rules.
	ErrMalformedEncodedPayload = errors.New("malformed encoded image payload")

	// ErrConversion reports a failed DOCX to PDF conversion.
	ErrConversion = errors.New("conversion failed")

	// ErrInternal reports a defect rather than a user error.
	ErrInternal = errors.New("internal error")

	// ErrRender wraps every failure of Engine.Render.
	ErrRender = errors.New("render failed")
)

// Template errors raised while parsing and substituting parts.
var (
	// ErrMissingTagValue reports a tag absent from the values.
	ErrMissingTagValue = pipeline.ErrMissingTagValue

	// ErrTemplateSyntax reports unbalanced sections or unterminated tags.
	ErrTemplateSyntax = pipeline.ErrTemplateSyntax
)
