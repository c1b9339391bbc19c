// Package keytab implements keytab inspection subcommands.
package keytab

import (
	"github.com/spf13/cobra"
)

// Cmd is the keytab subcommand.
var Cmd = &cobra.Command{
	Use:   "keytab",
	Short: "Keytab inspection",
	Long: `Inspect the keytab kerbgate uses to decrypt service tickets.

Subcommands:
  list  List the keys in the keytab (key material is never printed)`,
}

func init() {
	Cmd.AddCommand(listCmd)
}
