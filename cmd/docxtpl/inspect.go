package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alnah/go-docxtpl"
)

// inspectedTag is the JSON form of a template tag.
type inspectedTag struct {
	Part string `json:"part"`
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
}

// runInspect lists the tags of one template.
func runInspect(args []string, env *Environment) error {
	flags, positional, err := parseInspectFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(positional) != 1 {
		printInspectUsage(env.Stderr)
		return fmt.Errorf("%w: inspect takes exactly one template, got %d", ErrUsage, len(positional))
	}

	data, err := os.ReadFile(positional[0]) // #nosec G304 -- template path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", docxtpl.ErrTemplateNotFound, positional[0])
		}
		return err
	}
	tags, err := docxtpl.InspectTags(data)
	if err != nil {
		return fmt.Errorf("%w: %w", docxtpl.ErrRender, err)
	}

	out := make([]inspectedTag, 0, len(tags))
	for _, t := range tags {
		out = append(out, inspectedTag{Part: t.Part, Kind: t.Kind.String(), Name: t.Name})
	}

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if len(out) == 0 {
		fmt.Fprintln(env.Stdout, "No tags found")
		return nil
	}
	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PART\tKIND\tNAME")
	for _, t := range out {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Part, t.Kind, t.Name)
	}
	return tw.Flush()
}
