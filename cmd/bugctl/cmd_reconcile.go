package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/surya021104/bug-tracker/internal/bootstrap"
)

var reconcileFlags struct {
	dryRun bool
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Fold duplicate issues into the oldest issue of each group",
	Long: "Groups issues by signature, or by a loose title key when the signature is\n" +
		"missing, keeps the oldest issue of each group and folds the others into it.",
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileFlags.dryRun, "dry-run", false, "report duplicates without changing anything")
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(rt *bootstrap.Runtime) error {
		report, err := rt.Services.Reconcile().Run(cmd.Context(), reconcileFlags.dryRun)
		if err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}

		return render(cmd.OutOrStdout(), rootFlags.output, report, func(tw *tabwriter.Writer) {
			mode := "applied"
			if report.DryRun {
				mode = "dry run"
			}
			fmt.Fprintf(tw, "Scanned %d issues, %d duplicates (%s)\n\n", report.Scanned, report.Removed, mode)

			if len(report.Groups) > 0 {
				fmt.Fprintln(tw, "KEEPER\tREMOVED\tFOLDED\tKEY")
				for _, g := range report.Groups {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", g.Keeper, len(g.Removed), g.Folded, g.Key)
				}
				fmt.Fprintln(tw)
			}

			modules := make([]string, 0, len(report.Modules))
			for m := range report.Modules {
				modules = append(modules, m)
			}
			sort.Strings(modules)
			fmt.Fprintln(tw, "MODULE\tTITLE\tCOUNT")
			for _, m := range modules {
				titles := make([]string, 0, len(report.Modules[m]))
				for t := range report.Modules[m] {
					titles = append(titles, t)
				}
				sort.Strings(titles)
				for _, t := range titles {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", m, t, report.Modules[m][t])
				}
			}
		})
	})
}
