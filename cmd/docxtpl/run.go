package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"
)

// ErrUsage reports invalid arguments or flag values.
var ErrUsage = errors.New("invalid usage")

// commands lists the subcommands runMain dispatches.
var commands = []string{"render", "serve", "inspect", "doctor", "version", "help"}

// isCommand reports whether name is a subcommand. Case sensitive.
func isCommand(name string) bool {
	return slices.Contains(commands, name)
}

// runMain dispatches args[1] and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}
	cmd, rest := args[1], args[2:]

	// docxtpl letter.docx ... is shorthand for docxtpl render letter.docx ...
	if !isCommand(cmd) && strings.EqualFold(filepath.Ext(cmd), ".docx") {
		cmd, rest = "render", args[1:]
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	var err error
	switch cmd {
	case "render":
		err = runRender(ctx, rest, env)
	case "serve":
		err = runServe(ctx, rest, env)
	case "inspect":
		err = runInspect(rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "docxtpl %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// usageError wraps a flag parsing error so it maps to ExitUsage.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUsage, err)
}
