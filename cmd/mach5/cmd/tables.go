package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/appsworld/mach5/pkg/rename"
)

func init() {
	rootCmd.AddCommand(tablesCmd)
}

// tablesCmd represents the tables command
var tablesCmd = &cobra.Command{
	Use:   "tables [NAME|FILE]",
	Short: "Show rename tables",
	Long: `With no argument, list the preset rename tables. With a preset name or a
YAML file, print that table as YAML; the output can be edited and passed back
to 'mach5 wrap --table'.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		setup()

		if len(args) == 0 {
			for _, name := range rename.Presets() {
				tbl, err := rename.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Printf("%-12s %s (%d symbols)\n", colorNew(name), tbl.Prefix, len(tbl.Symbols))
			}
			return nil
		}

		tbl, err := loadTable(args[0], "")
		if err != nil {
			return err
		}
		if prefix := viper.GetString("wrap.prefix"); prefix != "" {
			tbl = tbl.WithPrefix(prefix)
		}
		dat, err := tbl.Marshal()
		if err != nil {
			return errors.Wrap(err, "failed to marshal rename table")
		}
		_, err = os.Stdout.WriteString(strings.TrimRight(string(dat), "\n") + "\n")
		return err
	},
}
