package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/kerbgate/internal/cli/output"
	"github.com/marmos91/kerbgate/pkg/auth/kerberos"
	"github.com/marmos91/kerbgate/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the kerbgate configuration file.

Checks for syntax errors, missing required fields, and invalid values, then
prints a summary and any warnings.

Examples:
  # Validate default config
  kerbgate config validate

  # Validate specific config file
  kerbgate config validate --config /etc/kerbgate/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	keytabPath := kerberos.ResolveKeytabPath(cfg.Kerberos.KeytabPath)
	warnings := collectWarnings(cfg, keytabPath)

	out := cmd.OutOrStdout()
	printer := output.NewPrinter(out, output.FormatTable, false)

	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	printer.Success("Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			printer.Warning("  - " + w)
		}
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration summary:")
	return output.SimpleTable(out, [][2]string{
		{"Server port", strconv.Itoa(cfg.Server.Port)},
		{"TLS", strconv.FormatBool(cfg.Server.TLSEnabled())},
		{"Keytab", keytabPath},
		{"Service principal", orAny(kerberos.ResolveServicePrincipal(cfg.Kerberos.ServicePrincipal))},
		{"Session store", cfg.Session.Store.Type},
		{"Sliding window", cfg.Session.SlidingWindow.String()},
		{"Access denied", cfg.AccessDenied.Mode},
		{"Log level", cfg.Logging.Level},
	})
}

func collectWarnings(cfg *config.Config, keytabPath string) []string {
	var warnings []string

	if cfg.Session.Secret == "" {
		warnings = append(warnings, "session secret not configured - an ephemeral secret will be used and sessions will not survive a restart")
	}
	if _, err := os.Stat(keytabPath); err != nil {
		warnings = append(warnings, fmt.Sprintf("keytab %s is not readable (%v) - every Negotiate attempt will fail", keytabPath, err))
	}
	if cfg.Session.Secure() && !cfg.Server.TLSEnabled() {
		warnings = append(warnings, "secure_cookie is set but TLS is not configured - browsers only return the cookie over HTTPS (fine behind a TLS proxy)")
	}
	if !cfg.Session.Secure() {
		warnings = append(warnings, "secure_cookie is disabled - session cookies can be sent over plain HTTP")
	}
	if cfg.Session.AllowNegotiateFallback && !cfg.Kerberos.AutoChallenge() {
		warnings = append(warnings, "negotiate fallback is enabled but auto_send_challenge is off - browsers will not offer a ticket")
	}
	return warnings
}

func orAny(principal string) string {
	if principal == "" {
		return "(any in keytab)"
	}
	return principal
}
