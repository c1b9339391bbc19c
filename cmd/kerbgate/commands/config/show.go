package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/kerbgate/internal/cli/output"
	"github.com/marmos91/kerbgate/pkg/config"
)

var (
	showOutput string
	showSecret bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective kerbgate configuration, defaults included.

By default outputs YAML format and hides the session secret.

Examples:
  # Show config as YAML
  kerbgate config show

  # Show as JSON
  kerbgate config show --output json`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
	showCmd.Flags().BoolVar(&showSecret, "show-secret", false, "Include the session secret and redis password")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		format = output.FormatYAML
	}

	if !showSecret {
		cfg.Session.Secret = redact(cfg.Session.Secret)
		cfg.Session.Store.Redis.Password = redact(cfg.Session.Store.Redis.Password)
	}

	return output.NewPrinter(cmd.OutOrStdout(), format, false).Print(cfg)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
