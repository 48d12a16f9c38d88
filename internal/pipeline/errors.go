package pipeline

import "errors"

// Sentinel errors for template parsing and rendering.
var (
	ErrMalformedXML    = errors.New("malformed part markup")
	ErrTemplateSyntax  = errors.New("template syntax error")
	ErrMissingTagValue = errors.New("missing tag value")
)
