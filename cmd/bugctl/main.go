// bugctl is the operator CLI for the bug tracker.
//
// Usage:
//
//	bugctl reconcile [--dry-run]
//	bugctl keys list | generate --app <name> --env <env> | toggle <id> | delete <id>
//	bugctl signature [-f signal.json] [--url <url>]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	output string
}

var rootCmd = &cobra.Command{
	Use:           "bugctl",
	Short:         "Operate the bug tracker: reconcile duplicates, manage API keys, debug signatures",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootFlags.output, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(signatureCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
