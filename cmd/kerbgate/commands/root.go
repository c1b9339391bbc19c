// Package commands implements the kerbgate command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/kerbgate/cmd/kerbgate/commands/config"
	"github.com/marmos91/kerbgate/cmd/kerbgate/commands/keytab"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "kerbgate",
	Short: "kerbgate - Kerberos Negotiate authentication gateway",
	Long: `kerbgate authenticates HTTP clients with Kerberos tickets sent through the
SPNEGO "Negotiate" scheme and turns a successful login into a cookie session,
so that later requests are authorized without running Kerberos again.

Use "kerbgate [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/kerbgate/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(keytab.Cmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
