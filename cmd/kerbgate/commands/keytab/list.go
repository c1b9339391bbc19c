package keytab

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/kerbgate/internal/cli/output"
	"github.com/marmos91/kerbgate/pkg/auth/kerberos"
	"github.com/marmos91/kerbgate/pkg/config"
)

var (
	listKeytab string
	listOutput string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List keytab entries",
	Long: `List the principals, key versions and encryption types in a keytab.

The keytab path is taken from --keytab, otherwise from the configuration
(kerberos.keytab_path, KERBGATE_KERBEROS_KEYTAB or KRB5_KTNAME).

Examples:
  # List the configured keytab
  kerbgate keytab list

  # List a specific keytab as JSON
  kerbgate keytab list --keytab /etc/http.keytab -o json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listKeytab, "keytab", "", "Keytab file (default: from configuration)")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// entryList renders keytab entries as a table.
type entryList []kerberos.KeytabEntry

func (l entryList) Headers() []string {
	return []string{"Principal", "Realm", "KVNO", "Encryption", "Timestamp"}
}

func (l entryList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{
			e.Principal,
			e.Realm,
			strconv.FormatUint(uint64(e.KVNO), 10),
			fmt.Sprintf("%s (%d)", e.EncName, e.EncType),
			e.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(listOutput)
	if err != nil {
		return err
	}

	path, err := resolvePath(cmd)
	if err != nil {
		return err
	}

	entries, err := kerberos.NewKeytabStore(path).Entries()
	if err != nil {
		return err
	}

	return output.NewPrinter(cmd.OutOrStdout(), format, false).Print(entryList(entries))
}

func resolvePath(cmd *cobra.Command) (string, error) {
	if listKeytab != "" {
		return listKeytab, nil
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}

	path := kerberos.ResolveKeytabPath(cfg.Kerberos.KeytabPath)
	if path == "" {
		return "", kerberos.ErrKeytabPathNotConfigured
	}
	return path, nil
}
