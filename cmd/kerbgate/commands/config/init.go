package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/kerbgate/internal/cli/prompt"
	"github.com/marmos91/kerbgate/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default configuration file",
	Long: `Initialize a default kerbgate configuration file with a freshly generated
session secret.

By default, the configuration file is created at $XDG_CONFIG_HOME/kerbgate/config.yaml.
Use --config to specify a custom path. When the file already exists you are
asked before it is replaced, unless --force is given.

Examples:
  # Initialize with default location
  kerbgate config init

  # Initialize with custom path
  kerbgate config init --config /etc/kerbgate/config.yaml

  # Overwrite an existing config without asking
  kerbgate config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	force := initForce
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			ok, err := prompt.Confirm(fmt.Sprintf("%s already exists. Overwrite", configPath), false)
			if err != nil {
				if prompt.IsAborted(err) {
					return nil
				}
				return err
			}
			if !ok {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Aborted, configuration left unchanged.")
				return nil
			}
			force = true
		}
	}

	if err := config.InitConfigToPath(configPath, force); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Set kerberos.keytab_path to the keytab holding your HTTP/<host> key")
	_, _ = fmt.Fprintln(out, "  2. Check it with: kerbgate keytab list")
	_, _ = fmt.Fprintf(out, "  3. Start the server with: kerbgate start --config %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nSecurity note:")
	_, _ = fmt.Fprintln(out, "  A random session secret has been written to the file.")
	_, _ = fmt.Fprintln(out, "  For production, prefer an environment variable:")
	_, _ = fmt.Fprintln(out, "    export KERBGATE_SESSION_SECRET=$(openssl rand -hex 32)")
	return nil
}
