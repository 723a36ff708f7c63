package macho

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/apex/log"
	"github.com/sassoftware/relic/v7/lib/binpatch"

	"github.com/appsworld/mach5/types"
)

// ErrOverwriteInput is returned by Save when asked to write over the file
// the input was read from.
var ErrOverwriteInput = errors.New("refusing to overwrite the input file")

// DefaultOutput is the file Save writes when no path is given.
const DefaultOutput = "output.so"

// Emit builds the rewritten binary: the input up to the string table with
// the LC_SYMTAB, __LINKEDIT and symbol table patched in place, followed by
// the new string table. Bytes after the old string table are dropped.
//
// A stripped LC_SYMTAB (no symbols, no strings) has nothing to move, so the
// input is returned with only its commands rewritten.
//
// The same edits are returned as a patch set against the input.
func (f *File) Emit(rw *Rewrite) ([]byte, *binpatch.PatchSet, error) {
	st := f.Symtab
	if st == nil {
		return nil, nil, ErrNoSymtab
	}
	if st.Nsyms == 0 && st.Strsize == 0 {
		out := append([]byte(nil), f.data...)
		edits, err := f.putCommands(out, rw)
		if err != nil {
			return nil, nil, err
		}
		return out, newPatchSet(edits), nil
	}

	bo := f.ByteOrder
	stroff := int64(st.Stroff)
	symLen := int64(len(rw.Syms)) * int64(f.nlistSize())
	if int64(st.Symoff)+symLen > stroff && len(rw.Syms) > 0 {
		return nil, nil, &FormatError{st.CmdOffset, "symbol table overlaps string table", st.Symoff}
	}

	out := make([]byte, stroff, stroff+int64(len(rw.Strtab)))
	copy(out, f.data[:stroff])
	edits, err := f.putCommands(out, rw)
	if err != nil {
		return nil, nil, err
	}

	if symLen > 0 {
		syms := out[int64(st.Symoff) : int64(st.Symoff)+symLen]
		var o int
		for i := range rw.Syms {
			n := rw.Syms[i].nlist()
			if f.Is64() {
				o += n.Put64(syms[o:], bo)
			} else {
				o += n.Put32(syms[o:], bo)
			}
		}
		edits = append(edits, edit{int64(st.Symoff), symLen, syms})
	}

	oldEnd := stroff + int64(st.Strsize)
	if trailing := int64(len(f.data)) - oldEnd; trailing > 0 {
		log.Warnf("dropping %d bytes that followed the string table", trailing)
	}
	out = append(out, rw.Strtab...)
	edits = append(edits, edit{stroff, int64(len(f.data)) - stroff, rw.Strtab})

	return out, newPatchSet(edits), nil
}

// putCommands writes the new LC_SYMTAB and __LINKEDIT filesize into out,
// which holds the input up to the string table.
func (f *File) putCommands(out []byte, rw *Rewrite) ([]edit, error) {
	st := f.Symtab
	end := int64(len(out))
	if st.CmdOffset+types.SymtabCmdSize > end {
		return nil, &FormatError{st.CmdOffset, "LC_SYMTAB lies inside the string table", st.Stroff}
	}
	cmd := out[st.CmdOffset : st.CmdOffset+types.SymtabCmdSize]
	rw.Symtab.Put(cmd, f.ByteOrder)
	edits := []edit{{st.CmdOffset, types.SymtabCmdSize, cmd}}

	if rw.Linkedit != nil && f.Linkedit != nil {
		off, size := f.Linkedit.filesize()
		if off+size > end {
			return nil, &FormatError{f.Linkedit.CmdOffset, "__LINKEDIT command lies inside the string table", nil}
		}
		b := out[off : off+size]
		if size == 8 {
			f.ByteOrder.PutUint64(b, rw.Linkedit.Filesz)
		} else {
			f.ByteOrder.PutUint32(b, uint32(rw.Linkedit.Filesz))
		}
		edits = append(edits, edit{off, size, b})
	}
	return edits, nil
}

// newPatchSet adds edits front to back, the only order binpatch applies.
func newPatchSet(edits []edit) *binpatch.PatchSet {
	sort.Slice(edits, func(i, j int) bool { return edits[i].off < edits[j].off })
	patch := binpatch.New()
	for _, e := range edits {
		patch.Add(e.off, e.oldSize, e.blob)
	}
	return patch
}

type edit struct {
	off     int64
	oldSize int64
	blob    []byte
}

// Save writes data to path, or DefaultOutput when path is empty. It refuses
// to overwrite the file f was opened from.
func (f *File) Save(path string, data []byte) error {
	if path == "" {
		path = DefaultOutput
	}
	if f.path != "" && samePath(f.path, path) {
		return fmt.Errorf("%s: %w", path, ErrOverwriteInput)
	}
	if err := os.WriteFile(path, data, 0755); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.WithFields(log.Fields{
		"input":  len(f.data),
		"output": len(data),
	}).Infof("wrote %s", path)
	return nil
}

func samePath(a, b string) bool {
	if ia, err := os.Stat(a); err == nil {
		if ib, err := os.Stat(b); err == nil {
			return os.SameFile(ia, ib)
		}
	}
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}
