package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-docxtpl"
	"github.com/alnah/go-docxtpl/internal/yamlutil"
)

// Sentinel errors for render I/O.
var (
	ErrReadValues  = errors.New("cannot read values")
	ErrWriteOutput = errors.New("cannot write output")
)

// filePermissions is the mode of written output files.
const filePermissions = 0o644

// stdioPath names stdin or stdout in --data and --output.
const stdioPath = "-"

// runRender fills one template and writes the result.
func runRender(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseRenderFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) != 1 {
		printRenderUsage(env.Stderr)
		return fmt.Errorf("%w: render takes exactly one template, got %d", ErrUsage, len(positional))
	}
	templatePath := positional[0]

	cfg, err := loadSettings(&flags.common, &flags.converter, env)
	if err != nil {
		return err
	}

	kind, err := resolveOutputKind(flags.format, flags.output, cfg.Output.Format)
	if err != nil {
		return err
	}

	values, err := readValues(flags.data, env.Stdin)
	if err != nil {
		return err
	}
	if err := applySetValues(values, flags.set); err != nil {
		return err
	}

	opts, err := pipelineOptions(cfg, env)
	if err != nil {
		return err
	}
	p, err := docxtpl.NewPipeline(opts...)
	if err != nil {
		return err
	}

	start := env.Now()
	result, err := p.Run(ctx, docxtpl.Request{
		TemplatePath: templatePath,
		LogoPath:     flags.logo,
		Values:       values,
		Output:       kind,
	})
	if err != nil {
		return err
	}
	elapsed := env.Now().Sub(start)

	outPath := flags.output
	if outPath == "" {
		outPath = defaultOutputPath(templatePath, kind)
	}

	// Status lines go to stderr when stdout carries the document.
	status := env.Stdout
	if outPath == stdioPath {
		status = env.Stderr
		if _, err := env.Stdout.Write(result.Data); err != nil {
			return fmt.Errorf("%w: stdout: %w", ErrWriteOutput, err)
		}
	} else if err := os.WriteFile(outPath, result.Data, filePermissions); err != nil { // #nosec G306 -- output is a user document
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	switch {
	case flags.common.quiet:
	case flags.common.verbose:
		fmt.Fprintf(status, "%s -> %s (%s, %v)\n", templatePath, outPath, kind, elapsed.Round(time.Millisecond))
	default:
		fmt.Fprintf(status, "Created %s\n", outPath)
	}
	return nil
}

// resolveOutputKind picks the output kind: --format, then the extension
// of --output, then output.format, then DOCX.
func resolveOutputKind(format, output, configured string) (docxtpl.OutputKind, error) {
	if format != "" {
		kind, err := docxtpl.ParseOutputKind(format)
		if err != nil {
			return 0, fmt.Errorf("%w: --format: %w", ErrUsage, err)
		}
		return kind, nil
	}
	if output != "" && output != stdioPath {
		if kind, err := docxtpl.ParseOutputKind(filepath.Ext(output)); err == nil {
			return kind, nil
		}
	}
	if configured != "" {
		return docxtpl.ParseOutputKind(configured)
	}
	return docxtpl.OutputDOCX, nil
}

// defaultOutputPath returns <name>-rendered<ext> in the working directory.
func defaultOutputPath(templatePath string, kind docxtpl.OutputKind) string {
	base := filepath.Base(templatePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return name + "-rendered" + kind.Extension()
}

// readValues loads the replacement values named by --data.
// No path or an empty document yields an empty map.
func readValues(path string, stdin io.Reader) (docxtpl.Values, error) {
	if path == "" {
		return docxtpl.Values{}, nil
	}

	var data []byte
	var err error
	if path == stdioPath {
		if stdin == nil {
			return nil, fmt.Errorf("%w: no stdin", ErrReadValues)
		}
		data, err = io.ReadAll(io.LimitReader(stdin, int64(yamlutil.MaxValuesSize)+1))
	} else {
		data, err = os.ReadFile(path) // #nosec G304 -- values path is user-provided
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadValues, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return docxtpl.Values{}, nil
	}

	values, err := yamlutil.DecodeValues(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadValues, path, err)
	}
	return values, nil
}

// applySetValues applies --set key=value pairs over values.
func applySetValues(values docxtpl.Values, pairs []string) error {
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("%w: --set %q: want key=value", ErrUsage, pair)
		}
		values[key] = value
	}
	return nil
}
