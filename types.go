package docxtpl

import (
	"fmt"
	"strings"
)

// OutputKind selects the artifact returned by Pipeline.Run.
type OutputKind int

const (
	OutputDOCX OutputKind = iota // Editable document (default)
	OutputPDF                    // Fixed-layout document
)

// Content types of the output kinds.
const (
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypePDF  = "application/pdf"
)

// ContentType returns the MIME type of the output.
func (k OutputKind) ContentType() string {
	if k == OutputPDF {
		return ContentTypePDF
	}
	return ContentTypeDOCX
}

// Extension returns the file extension of the output, with its dot.
func (k OutputKind) Extension() string {
	if k == OutputPDF {
		return ".pdf"
	}
	return ".docx"
}

// String returns "docx" or "pdf".
func (k OutputKind) String() string {
	switch k {
	case OutputDOCX:
		return "docx"
	case OutputPDF:
		return "pdf"
	default:
		return fmt.Sprintf("OutputKind(%d)", int(k))
	}
}

// Validate rejects unknown kinds.
func (k OutputKind) Validate() error {
	if k != OutputDOCX && k != OutputPDF {
		return fmt.Errorf("%w: unknown output kind %d", ErrInvalidInput, int(k))
	}
	return nil
}

// ParseOutputKind maps "docx" and "pdf" (case-insensitive) to an OutputKind.
func ParseOutputKind(s string) (OutputKind, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "docx":
		return OutputDOCX, nil
	case "pdf":
		return OutputPDF, nil
	}
	return 0, fmt.Errorf("%w: unknown output format %q (must be docx or pdf)", ErrInvalidInput, s)
}

// Values maps tag names to replacement values: strings, numbers, booleans,
// nested maps and sequences, as decoded from JSON or YAML.
type Values = map[string]any

// Dimensions is a display size in pixels. Both sides are positive.
type Dimensions struct {
	Width  int
	Height int
}

// Validate rejects non-positive sides.
func (d Dimensions) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d must be positive", ErrInvalidInput, d.Width, d.Height)
	}
	return nil
}

// String returns "WxH".
func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Request is one pipeline invocation.
type Request struct {
	TemplatePath string     // DOCX template on disk
	LogoPath     string     // Bound to the "logo" tag when non-empty
	Values       Values     // Must not be nil
	Output       OutputKind // OutputDOCX unless set
}

// Result is the final artifact. The caller owns Data.
type Result struct {
	Data []byte
	Kind OutputKind
}
