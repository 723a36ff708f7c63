package macho

import (
	"github.com/appsworld/mach5/pkg/strtab"
	"github.com/appsworld/mach5/types"
)

func (f *File) parseSymtab() error {
	st := f.Symtab
	size := uint64(f.nlistSize())
	symEnd := uint64(st.Symoff) + uint64(st.Nsyms)*size
	if symEnd > uint64(len(f.data)) {
		return &FormatError{st.CmdOffset, "symbol table extends past end of file", symEnd}
	}
	strEnd := uint64(st.Stroff) + uint64(st.Strsize)
	if strEnd > uint64(len(f.data)) {
		return &FormatError{st.CmdOffset, "string table extends past end of file", strEnd}
	}
	blob := f.data[st.Stroff:strEnd]
	f.strtab = strtab.Parse(blob)

	symdat := f.data[st.Symoff:symEnd]
	st.Syms = make([]Symbol, st.Nsyms)
	for i := range st.Syms {
		n, err := types.ReadNlist(symdat[uint64(i)*size:], f.ByteOrder, f.Is64())
		if err != nil {
			return &FormatError{int64(st.Symoff) + int64(uint64(i)*size), "failed to read nlist", err}
		}
		sym := &st.Syms[i]
		if n.Name >= st.Strsize && n.Name > 1 {
			return &FormatError{int64(st.Symoff) + int64(uint64(i)*size), "invalid name in symbol table", n.Name}
		}
		if n.Name < st.Strsize {
			sym.Name = types.CString(blob[n.Name:])
		}
		sym.Strx = n.Name
		sym.Type = n.Type
		sym.Sect = n.Sect
		sym.Desc = n.Desc
		sym.Value = n.Value
	}
	return nil
}

// Symbols returns the symbol table entries in file order, or nil if the
// file has no LC_SYMTAB.
func (f *File) Symbols() []Symbol {
	if f.Symtab == nil {
		return nil
	}
	return f.Symtab.Syms
}

// StringTable returns the parsed string table, or nil if the file has no
// LC_SYMTAB.
func (f *File) StringTable() *strtab.Table {
	return f.strtab
}
