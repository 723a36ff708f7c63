package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/appsworld/mach5"
)

var (
	colorExt   = color.New(color.FgGreen).SprintFunc()
	colorUndef = color.New(color.FgYellow).SprintFunc()
	colorStab  = color.New(color.Faint).SprintFunc()
)

func init() {
	rootCmd.AddCommand(symbolsCmd)
}

// symbolsCmd represents the symbols command
var symbolsCmd = &cobra.Command{
	Use:           "symbols <MACHO>",
	Aliases:       []string{"syms"},
	Short:         "List the symbol table of a Mach-O object",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		setup()

		machoPath := filepath.Clean(args[0])
		m, err := macho.Open(machoPath)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", machoPath)
		}
		if m.Symtab == nil {
			return macho.ErrNoSymtab
		}
		fmt.Println(m.FileHeader)
		fmt.Println(m.Symtab)
		if m.Linkedit != nil {
			fmt.Println(m.Linkedit)
		}
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 1, ' ', 0)
		for i, sym := range m.Symbols() {
			typ := sym.Type.String()
			switch {
			case sym.Type.IsDebugSym():
				typ = colorStab(typ)
			case sym.Type.IsUndefinedSym():
				typ = colorUndef(typ)
			case sym.Type.IsExternalSym():
				typ = colorExt(typ)
			}
			fmt.Fprintf(w, "%d:\t%s\t%#016x\t%s\t%s\n", i, colorAddr(fmt.Sprintf("%#06x", sym.Strx)), sym.Value, typ, sym.Name)
		}
		return w.Flush()
	},
}
