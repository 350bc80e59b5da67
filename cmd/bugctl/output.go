package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/surya021104/bug-tracker/core/config"
	"github.com/surya021104/bug-tracker/internal/bootstrap"
)

// render writes v as json or yaml, or calls table for the default format.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// withRuntime runs fn against the configured storage and producer.
func withRuntime(cmd *cobra.Command, fn func(rt *bootstrap.Runtime) error) error {
	ctx := cmd.Context()
	rt, err := bootstrap.Start(ctx, config.ServiceTypeCLI)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)
	return fn(rt)
}
