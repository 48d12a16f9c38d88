package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// converterFlags holds flags for the PDF converter.
type converterFlags struct {
	soffice string
	timeout string
	workers int
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common    commonFlags
	converter converterFlags
	data      string
	set       []string
	logo      string
	format    string
	output    string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common    commonFlags
	converter converterFlags
	addr      string
	assets    string
}

// inspectFlags holds flags for the inspect command.
type inspectFlags struct {
	json bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addConverterFlags adds converter flags to a FlagSet.
func addConverterFlags(fs *flag.FlagSet, f *converterFlags) {
	fs.StringVar(&f.soffice, "soffice", "", "soffice executable")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF conversion timeout (e.g., 30s, 2m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent conversions (0 = auto)")
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, usage io.Writer) (*renderFlags, []string, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	f := &renderFlags{}

	fs.StringVarP(&f.data, "data", "d", "", "YAML or JSON values file (- = stdin)")
	fs.StringArrayVar(&f.set, "set", nil, "tag value as key=value (repeatable)")
	fs.StringVarP(&f.logo, "logo", "l", "", "image bound to the logo tag")
	fs.StringVarP(&f.format, "format", "f", "", "output format: docx, pdf")
	fs.StringVarP(&f.output, "output", "o", "", "output file (- = stdout)")

	addCommonFlags(fs, &f.common)
	addConverterFlags(fs, &f.converter)

	fs.SetOutput(usage)
	fs.Usage = func() { printRenderUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, usage io.Writer) (*serveFlags, []string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	f := &serveFlags{}

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default :3000)")
	fs.StringVar(&f.assets, "assets", "", "asset base directory")

	addCommonFlags(fs, &f.common)
	addConverterFlags(fs, &f.converter)

	fs.SetOutput(usage)
	fs.Usage = func() { printServeUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseInspectFlags parses inspect command flags and returns positional args.
func parseInspectFlags(args []string, usage io.Writer) (*inspectFlags, []string, error) {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	f := &inspectFlags{}

	fs.BoolVar(&f.json, "json", false, "print tags as JSON")

	fs.SetOutput(usage)
	fs.Usage = func() { printInspectUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
