// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-docxtpl/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForConverter returns hints for PDF conversion failures.
// Suggests installing LibreOffice in containers and pointing DOCXTPL_SOFFICE
// at a custom binary when none is configured.
func ForConverter() string {
	var hints []string

	if IsInContainer() {
		hints = append(hints, "install libreoffice-writer in the image")
	}

	if os.Getenv("DOCXTPL_SOFFICE") == "" {
		hints = append(hints, "set DOCXTPL_SOFFICE to the soffice binary")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow conversions.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-docxtpl/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-docxtpl") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForTemplateNotFound returns hints when a template file cannot be located.
func ForTemplateNotFound() string {
	return format("templates live under <basePath>/<tenant>/templates/")
}

// ForEncodedPayload returns hints for malformed inline image payloads.
func ForEncodedPayload() string {
	return format("expected data:image/<png|jpeg|svg+xml>;base64,<standard base64 with = padding>")
}

// ForMissingTag returns hints for tags the template uses but the values omit.
func ForMissingTag() string {
	return format("add the tag to the data file; use an empty string to blank it")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
