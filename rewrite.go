package macho

import (
	"errors"
	"fmt"
	"math"

	"github.com/apex/log"
	"github.com/appsworld/mach5/pkg/rename"
	"github.com/appsworld/mach5/types"
)

var (
	// ErrNoSymtab is returned when the file has no LC_SYMTAB to rewrite.
	ErrNoSymtab = errors.New("no LC_SYMTAB load command")
	// ErrNoLinkedit is returned when a __LINKEDIT segment is required but absent.
	ErrNoLinkedit = errors.New("no __LINKEDIT segment")
)

// RewriteOptions control File.Rewrite.
type RewriteOptions struct {
	// RequireLinkedit fails the rewrite when there is no __LINKEDIT
	// segment instead of warning.
	RequireLinkedit bool
}

// A Rewrite is the new symbol and string tables for a File, along with the
// load command values that change with them.
type Rewrite struct {
	Rename *rename.Result

	Symtab   types.SymtabCmd
	Linkedit *SegmentHeader // nil without __LINKEDIT
	Syms     []Symbol
	Strtab   []byte
	// SizeDiff is the growth of the string table in bytes.
	SizeDiff int64
}

// Rewrite applies tbl to the file's string table and recomputes every value
// that depends on it. The File itself is not modified.
func (f *File) Rewrite(tbl *rename.Table, opts RewriteOptions) (*Rewrite, error) {
	if f.Symtab == nil {
		return nil, ErrNoSymtab
	}
	if f.Linkedit == nil {
		if opts.RequireLinkedit {
			return nil, ErrNoLinkedit
		}
		log.Warn("no __LINKEDIT segment; its size will not be updated")
	}

	rr, err := rename.Apply(tbl, f.strtab)
	if err != nil {
		return nil, fmt.Errorf("failed to rename string table: %w", err)
	}
	rw := &Rewrite{
		Rename: rr,
		Symtab: f.Symtab.SymtabCmd,
		Syms:   make([]Symbol, len(f.Symtab.Syms)),
		Strtab: rr.Table().Bytes(),
	}
	if uint64(len(rw.Strtab)) > math.MaxUint32 {
		return nil, fmt.Errorf("rewritten string table is too large (%d bytes)", len(rw.Strtab))
	}
	rw.SizeDiff = int64(len(rw.Strtab)) - int64(f.Symtab.Strsize)
	rw.Symtab.Strsize = uint32(len(rw.Strtab))

	for i, sym := range f.Symtab.Syms {
		if sym.Strx > 1 {
			strx, err := rr.Map.Remap(sym.Strx)
			if err != nil {
				return nil, fmt.Errorf("failed to remap symbol %d (%s): %w", i, sym.Name, err)
			}
			sym.Strx = strx
			sym.Name = types.CString(rw.Strtab[strx:])
		}
		rw.Syms[i] = sym
	}

	if f.Linkedit != nil {
		seg := f.Linkedit.SegmentHeader
		filesz := int64(seg.Filesz) + rw.SizeDiff
		if filesz < 0 {
			return nil, fmt.Errorf("__LINKEDIT filesize %#x cannot shrink by %d", seg.Filesz, -rw.SizeDiff)
		}
		if !f.Is64() && filesz > math.MaxUint32 {
			return nil, fmt.Errorf("__LINKEDIT filesize %#x overflows 32 bits", filesz)
		}
		seg.Filesz = uint64(filesz)
		rw.Linkedit = &seg
	}

	log.WithFields(log.Fields{
		"renamed":   len(rr.Changes),
		"size_diff": rw.SizeDiff,
	}).Debug("rewrote string table")
	return rw, nil
}
