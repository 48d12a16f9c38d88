package docx

import "errors"

// Sentinel errors for archive operations.
var (
	ErrNotArchive      = errors.New("not a valid docx archive")
	ErrArchiveTooLarge = errors.New("archive exceeds size limit")
	ErrMissingPart     = errors.New("missing package part")
	ErrMalformedPart   = errors.New("malformed package part")
	ErrUnsupportedType = errors.New("unsupported media type")
)
