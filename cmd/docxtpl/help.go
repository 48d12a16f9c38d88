package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docxtpl <command> [flags] [args]")
	fmt.Fprintln(w, "       docxtpl <template.docx> [flags]   (same as render)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  render     Fill a DOCX template and write DOCX or PDF")
	fmt.Fprintln(w, "  serve      Serve POST /docx over HTTP")
	fmt.Fprintln(w, "  inspect    List the tags a template uses")
	fmt.Fprintln(w, "  doctor     Check soffice and the environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'docxtpl help <command>' for details on a specific command.")
}

func printConfigFlags(w io.Writer) {
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --soffice <path>      soffice executable")
	fmt.Fprintln(w, "  -t, --timeout <d>         PDF conversion timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent conversions (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docxtpl render <template.docx> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fill a DOCX template with values and write DOCX or PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Values:")
	fmt.Fprintln(w, "  -d, --data <path>         YAML or JSON values file (- = stdin)")
	fmt.Fprintln(w, "      --set <key=value>     Tag value, repeatable; wins over --data")
	fmt.Fprintln(w, "  -l, --logo <path>         Image bound to the logo tag")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -f, --format <s>          docx or pdf (default: from -o, else docx)")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (- = stdout)")
	fmt.Fprintln(w)
	printConfigFlags(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docxtpl serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve document rendering over HTTP.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  POST /docx    headers tenantid, template; JSON object body")
	fmt.Fprintln(w, "                ?format=docx|pdf or Accept selects the output (default pdf)")
	fmt.Fprintln(w, "  GET /healthz  liveness probe")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <addr>         Listen address (default :3000, or :$PORT)")
	fmt.Fprintln(w, "      --assets <dir>        Asset base directory (default ./assets)")
	fmt.Fprintln(w)
	printConfigFlags(w)
}

// printInspectUsage prints usage for the inspect command.
func printInspectUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docxtpl inspect <template.docx> [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List every tag of every templated part, in document order.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print tags as JSON")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "render":
		printRenderUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "inspect":
		printInspectUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: docxtpl doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check soffice, the temp directory and the asset directory.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: docxtpl version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: docxtpl help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
