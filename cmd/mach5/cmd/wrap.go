package cmd

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/appsworld/mach5"
	"github.com/appsworld/mach5/pkg/rename"
)

var (
	colorOld  = color.New(color.Faint).SprintFunc()
	colorNew  = color.New(color.FgCyan, color.Bold).SprintFunc()
	colorAddr = color.New(color.FgHiBlue).SprintFunc()
)

func init() {
	rootCmd.AddCommand(wrapCmd)
	wrapCmd.Flags().StringP("table", "t", "", "Rename table: preset name or YAML file (default picked from LIBNAME)")
	wrapCmd.Flags().String("prefix", "", "Override the rename table prefix")
	wrapCmd.Flags().StringP("output", "o", macho.DefaultOutput, "Output file")
	wrapCmd.Flags().String("byte-order", "auto", "Byte order: auto, little or big")
	wrapCmd.Flags().Bool("strict", false, "Fail when the file has no __LINKEDIT segment")
	wrapCmd.Flags().String("patch", "", "Also write the edits as a binpatch set to this file")
	wrapCmd.Flags().BoolP("dry-run", "n", false, "Report renames without writing anything")
	viper.BindPFlag("wrap.table", wrapCmd.Flags().Lookup("table"))
	viper.BindPFlag("wrap.prefix", wrapCmd.Flags().Lookup("prefix"))
	viper.BindPFlag("wrap.output", wrapCmd.Flags().Lookup("output"))
	viper.BindPFlag("wrap.byte-order", wrapCmd.Flags().Lookup("byte-order"))
	viper.BindPFlag("wrap.strict", wrapCmd.Flags().Lookup("strict"))
	viper.BindPFlag("wrap.patch", wrapCmd.Flags().Lookup("patch"))
	viper.BindPFlag("wrap.dry-run", wrapCmd.Flags().Lookup("dry-run"))
}

// wrapCmd represents the wrap command
var wrapCmd = &cobra.Command{
	Use:   "wrap <MACHO> [LIBNAME]",
	Short: "Rename wrapped symbols in a Mach-O object",
	Example: `  # prefix libc I/O symbols, writing output.so
  ❯ mach5 wrap libfoo.o

  # the python table is picked for libpython builds
  ❯ mach5 wrap posixmodule.o libpython2.7.a -o posixmodule.wrapped.o`,
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		setup()

		machoPath := filepath.Clean(args[0])
		var lib string
		if len(args) > 1 {
			lib = args[1]
		}

		tbl, err := loadTable(viper.GetString("wrap.table"), lib)
		if err != nil {
			return err
		}
		if prefix := viper.GetString("wrap.prefix"); prefix != "" {
			tbl = tbl.WithPrefix(prefix)
		}
		bo, err := parseByteOrder(viper.GetString("wrap.byte-order"))
		if err != nil {
			return err
		}

		m, err := macho.Open(machoPath, macho.FileConfig{ByteOrder: bo})
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", machoPath)
		}
		log.WithFields(log.Fields{
			"table": tbl.Name,
			"arch":  m.CPU,
			"order": m.ByteOrder,
		}).Info("Wrapping symbols")

		out, err := m.Wrap(tbl, macho.RewriteOptions{RequireLinkedit: viper.GetBool("wrap.strict")})
		if err != nil {
			return errors.Wrapf(err, "failed to wrap %s", machoPath)
		}
		for _, c := range out.Changes() {
			fmt.Printf("%s\t%s -> %s\n", colorAddr(fmt.Sprintf("%#08x", c.Offset)), colorOld(c.Old), colorNew(c.New))
		}
		log.Infof("Renamed %d symbols, string table grew by %d bytes", len(out.Changes()), out.Rewrite.SizeDiff)

		if viper.GetBool("wrap.dry-run") {
			log.Warn("Dry run; nothing written")
			return nil
		}
		output := viper.GetString("wrap.output")
		if err := m.Save(output, out.Data); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"in":  humanize.Bytes(uint64(len(m.Data()))),
			"out": humanize.Bytes(uint64(len(out.Data))),
		}).Infof("Created %s", output)

		if patchPath := viper.GetString("wrap.patch"); patchPath != "" {
			if err := os.WriteFile(patchPath, out.Patch.Dump(), 0644); err != nil {
				return errors.Wrap(err, "failed to write patch set")
			}
			log.Infof("Created %s", patchPath)
		}
		return nil
	},
}

// loadTable resolves --table: a YAML file if one exists at that path, else a
// preset name. With no --table the preset is picked from the library name.
func loadTable(name, lib string) (*rename.Table, error) {
	if name == "" {
		return rename.ForLibrary(lib), nil
	}
	if _, err := os.Stat(name); err == nil {
		tbl, err := rename.Load(name)
		if err != nil {
			return nil, err
		}
		if tbl.Name == "" {
			tbl.Name = filepath.Base(name)
		}
		return tbl, nil
	}
	return rename.Lookup(name)
}

func parseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return nil, nil
	case "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("invalid --byte-order %q; must be one of: auto, little, big", s)
	}
}
