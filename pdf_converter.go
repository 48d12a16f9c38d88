package docxtpl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-docxtpl/internal/fileutil"
)

// Converter turns a rendered DOCX into a PDF.
type Converter interface {
	Convert(ctx context.Context, docx []byte) ([]byte, error)
}

// Converter defaults.
const (
	DefaultSofficeBinary    = "soffice"
	DefaultConverterTimeout = 60 * time.Second
)

// pdfMagic starts every PDF file.
var pdfMagic = []byte("%PDF-")

// Scratch layout of one conversion.
const (
	scratchInput   = "input.docx"
	scratchOutput  = "input.pdf"
	scratchOutDir  = "out"
	scratchProfile = "profile"
)

// SofficeConverter converts with a headless LibreOffice process.
// Each call gets its own scratch directory and user profile, so calls never
// share state and may run concurrently up to the pool size.
type SofficeConverter struct {
	Binary  string
	Timeout time.Duration
	Runner  CommandRunner
	slots   *SlotPool
}

// NewSofficeConverter creates a converter running binary with timeout per
// call and at most maxConcurrent processes (0 sizes from GOMAXPROCS).
func NewSofficeConverter(binary string, timeout time.Duration, maxConcurrent int) *SofficeConverter {
	if binary == "" {
		binary = DefaultSofficeBinary
	}
	if timeout <= 0 {
		timeout = DefaultConverterTimeout
	}
	return &SofficeConverter{
		Binary:  binary,
		Timeout: timeout,
		Runner:  &ExecRunner{},
		slots:   NewSlotPool(ResolvePoolSize(maxConcurrent)),
	}
}

// Capacity returns how many conversions may run at once.
func (c *SofficeConverter) Capacity() int {
	return c.slots.Size()
}

// Convert writes docx to a scratch directory, runs soffice on it and returns
// the PDF. The scratch directory is removed on every exit path. All failures
// wrap ErrConversion.
func (c *SofficeConverter) Convert(ctx context.Context, docx []byte) (pdf []byte, err error) {
	if len(docx) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrConversion)
	}

	release, err := c.slots.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for a converter slot: %w", ErrConversion, err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	scratch, err := fileutil.NewScratchDir()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	defer func() {
		if cerr := scratch.Cleanup(); cerr != nil && err == nil {
			pdf = nil
			err = fmt.Errorf("%w: removing scratch directory: %w", ErrConversion, cerr)
		}
	}()

	input, err := scratch.WriteFile(scratchInput, docx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	outDir, err := scratch.Mkdir(scratchOutDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}

	args := sofficeArgs(scratch.Join(scratchProfile), outDir, input)
	_, stderr, runErr := c.Runner.Run(ctx, c.Binary, args...)
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s: %w", ErrConversion, c.Timeout, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrConversion, ctxErr)
	}
	if runErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConversion, strings.TrimSpace(stderr), runErr)
	}

	pdf, err = os.ReadFile(filepath.Join(outDir, scratchOutput)) // #nosec G304 -- path inside scratch dir
	if err != nil {
		return nil, fmt.Errorf("%w: no output produced: %s: %w", ErrConversion, strings.TrimSpace(stderr), err)
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return nil, fmt.Errorf("%w: output is not a PDF", ErrConversion)
	}
	return pdf, nil
}

// sofficeArgs builds the command line for one conversion. A private user
// profile lets concurrent processes start without locking each other out.
func sofficeArgs(profile, outDir, input string) []string {
	return []string{
		"--headless",
		"--norestore",
		"-env:UserInstallation=" + fileURL(profile),
		"--convert-to", "pdf",
		"--outdir", outDir,
		input,
	}
}

// fileURL returns the file:// URL of an absolute path.
func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
