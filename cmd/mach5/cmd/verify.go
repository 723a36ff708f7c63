package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	gomacho "github.com/blacktop/go-macho"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/appsworld/mach5"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:           "verify <MACHO>",
	Short:         "Cross-check a (rewritten) Mach-O with an independent parser",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		setup()

		machoPath := filepath.Clean(args[0])

		m, err := gomacho.Open(machoPath)
		if err != nil {
			return errors.Wrapf(err, "go-macho failed to open %s", machoPath)
		}
		defer m.Close()

		ours, err := macho.Open(machoPath)
		if err != nil {
			return errors.Wrapf(err, "failed to open %s", machoPath)
		}
		return verify(m, ours)
	},
}

func verify(m *gomacho.File, ours *macho.File) error {
	if m.Symtab == nil || ours.Symtab == nil {
		return macho.ErrNoSymtab
	}
	strEnd := uint64(m.Symtab.Stroff) + uint64(m.Symtab.Strsize)
	if le := m.Segment("__LINKEDIT"); le != nil {
		if end := le.Offset + le.Filesz; end != strEnd {
			return fmt.Errorf("__LINKEDIT ends at %#x but the string table ends at %#x", end, strEnd)
		}
	} else {
		log.Warn("no __LINKEDIT segment")
	}
	if got := uint64(len(ours.Data())); got != strEnd {
		log.Warnf("file is %d bytes but the string table ends at %#x", got, strEnd)
	}

	if len(m.Symtab.Syms) != len(ours.Symbols()) {
		return fmt.Errorf("go-macho found %d symbols, mach5 found %d", len(m.Symtab.Syms), len(ours.Symbols()))
	}
	var mismatched int
	for i, sym := range ours.Symbols() {
		if other := m.Symtab.Syms[i].Name; other != sym.Name && other != goName(sym.Name) {
			log.Debugf("symbol %d: go-macho %q, mach5 %q", i, other, sym.Name)
			mismatched++
		}
	}
	if mismatched > 0 {
		return fmt.Errorf("%d symbol names differ between parsers", mismatched)
	}
	log.WithFields(log.Fields{
		"symbols": len(ours.Symbols()),
		"strsize": m.Symtab.Strsize,
	}).Info("OK")
	return nil
}

// goName is name as go-macho reports it: it drops the leading underscore of
// names that contain a dot, taking them for Go symbols.
func goName(name string) string {
	if strings.Contains(name, ".") && strings.HasPrefix(name, "_") {
		return name[1:]
	}
	return name
}
