package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/surya021104/bug-tracker/internal/bootstrap"
	"github.com/surya021104/bug-tracker/internal/service"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage tenant API keys",
}

var keysGenerateFlags struct {
	app       string
	env       string
	rateLimit int
	owner     string
	webhook   string
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List keys with their usage over the last hour",
	Args:  cobra.NoArgs,
	RunE:  runKeysList,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a key for an application environment",
	Args:  cobra.NoArgs,
	RunE:  runKeysGenerate,
}

var keysToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Enable or disable a key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysToggle,
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysDelete,
}

func init() {
	f := keysGenerateCmd.Flags()
	f.StringVar(&keysGenerateFlags.app, "app", "", "application name (required)")
	f.StringVar(&keysGenerateFlags.env, "env", "development", "development, staging or production")
	f.IntVar(&keysGenerateFlags.rateLimit, "rate-limit", 0, "issues per hour (0 = environment default)")
	f.StringVar(&keysGenerateFlags.owner, "owner", "", "owning team or person")
	f.StringVar(&keysGenerateFlags.webhook, "webhook", "", "URL notified on issue changes")
	_ = keysGenerateCmd.MarkFlagRequired("app")

	keysCmd.AddCommand(keysListCmd, keysGenerateCmd, keysToggleCmd, keysDeleteCmd)
}

type keyRow struct {
	ID           int64      `json:"id" yaml:"id"`
	Preview      string     `json:"preview" yaml:"preview"`
	AppID        string     `json:"appId" yaml:"appId"`
	AppName      string     `json:"appName" yaml:"appName"`
	Environment  string     `json:"environment" yaml:"environment"`
	Active       bool       `json:"isActive" yaml:"isActive"`
	RateLimit    int        `json:"rateLimit" yaml:"rateLimit"`
	CurrentUsage int64      `json:"currentUsage" yaml:"currentUsage"`
	UsagePercent int        `json:"usagePercent" yaml:"usagePercent"`
	LastUsedAt   *time.Time `json:"lastUsedAt,omitempty" yaml:"lastUsedAt,omitempty"`
}

func runKeysList(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(rt *bootstrap.Runtime) error {
		keys, err := rt.Services.APIKeys().List(cmd.Context())
		if err != nil {
			return err
		}

		rows := make([]keyRow, len(keys))
		for i, k := range keys {
			rows[i] = keyRow{
				ID: k.ID, Preview: k.Preview, AppID: k.AppID, AppName: k.AppName,
				Environment: k.Environment, Active: k.IsActive, RateLimit: k.RateLimit,
				CurrentUsage: k.CurrentUsage, UsagePercent: k.UsagePercent, LastUsedAt: k.LastUsedAt,
			}
		}

		return render(cmd.OutOrStdout(), rootFlags.output, rows, func(tw *tabwriter.Writer) {
			fmt.Fprintln(tw, "ID\tAPP ID\tENV\tACTIVE\tUSAGE\tPREVIEW")
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%d/%d (%d%%)\t%s\n",
					r.ID, r.AppID, r.Environment, r.Active, r.CurrentUsage, r.RateLimit, r.UsagePercent, r.Preview)
			}
		})
	})
}

func runKeysGenerate(cmd *cobra.Command, _ []string) error {
	return withRuntime(cmd, func(rt *bootstrap.Runtime) error {
		generated, err := rt.Services.APIKeys().Generate(cmd.Context(), service.GenerateKeyParams{
			AppName:     keysGenerateFlags.app,
			Environment: keysGenerateFlags.env,
			RateLimit:   keysGenerateFlags.rateLimit,
			Owner:       keysGenerateFlags.owner,
			WebhookURL:  keysGenerateFlags.webhook,
		})
		if err != nil {
			return err
		}

		out := map[string]any{
			"id":        generated.APIKey.ID,
			"apiKey":    generated.Key,
			"appId":     generated.APIKey.AppID,
			"rateLimit": generated.APIKey.RateLimit,
		}
		return render(cmd.OutOrStdout(), rootFlags.output, out, func(tw *tabwriter.Writer) {
			fmt.Fprintf(tw, "Key for %s (id %d):\n\n  %s\n\n", generated.APIKey.AppID, generated.APIKey.ID, generated.Key)
			fmt.Fprintln(tw, "Save this key securely - it is not shown again.")
		})
	})
}

func runKeysToggle(cmd *cobra.Command, args []string) error {
	keyID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid key id %q", args[0])
	}
	return withRuntime(cmd, func(rt *bootstrap.Runtime) error {
		key, err := rt.Services.APIKeys().Toggle(cmd.Context(), keyID)
		if err != nil {
			return err
		}
		state := "disabled"
		if key.IsActive {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", key.AppID, state)
		return nil
	})
}

func runKeysDelete(cmd *cobra.Command, args []string) error {
	keyID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid key id %q", args[0])
	}
	return withRuntime(cmd, func(rt *bootstrap.Runtime) error {
		if err := rt.Services.APIKeys().Delete(cmd.Context(), keyID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "key %d deleted\n", keyID)
		return nil
	})
}
