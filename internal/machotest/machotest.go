// Package machotest builds small synthetic Mach-O images for tests.
package machotest

import (
	"encoding/binary"
	"strings"

	"github.com/appsworld/mach5/types"
)

// A Sym is one symbol table entry.
type Sym struct {
	Strx  uint32
	Type  types.NLType
	Sect  uint8
	Desc  uint16
	Value uint64
}

// A Builder describes an image: a header, a __TEXT segment, a __LINKEDIT
// segment, an LC_SYMTAB and an opaque LC_UUID, followed by the symbol and
// string tables.
type Builder struct {
	ByteOrder binary.ByteOrder // default little endian
	Is64      bool
	Strtab    []byte
	Syms      []Sym

	NoLinkedit      bool
	NoSymtab        bool
	DuplicateSymtab bool
	// Stripped writes an all-zero LC_SYMTAB the way strip leaves it. Syms
	// and Strtab should be empty.
	Stripped bool
	// Trailing is appended after the string table and counted in __LINKEDIT.
	Trailing []byte
	// SizeofcmdsSlack is added to sizeofcmds as zero padding after the
	// last command.
	SizeofcmdsSlack uint32
}

// StringTable lays out names the way ld does: a leading " \x00" so that
// index 1 is the empty string, then each name NUL terminated. It returns the
// blob and the offset of every name.
func StringTable(names ...string) ([]byte, []uint32) {
	var sb strings.Builder
	sb.WriteString(" \x00")
	offs := make([]uint32, len(names))
	for i, n := range names {
		offs[i] = uint32(sb.Len())
		sb.WriteString(n)
		sb.WriteByte(0)
	}
	return []byte(sb.String()), offs
}

// Layout records where Build placed things.
type Layout struct {
	SymtabCmd   int64
	LinkeditCmd int64
	Symoff      int64
	Stroff      int64
	Linkedit    uint64 // __LINKEDIT fileoff
}

func align(n, a int64) int64 { return (n + a - 1) &^ (a - 1) }

// Build returns the image bytes.
func (b *Builder) Build() []byte {
	dat, _ := b.BuildLayout()
	return dat
}

// BuildLayout returns the image bytes and where each part went.
func (b *Builder) BuildLayout() ([]byte, Layout) {
	o := b.ByteOrder
	if o == nil {
		o = binary.LittleEndian
	}
	hdr := types.FileHeader{
		Magic:  types.Magic32,
		CPU:    types.CPU386,
		SubCPU: 3,
		Type:   types.MH_OBJECT,
	}
	segCmd, segSize, nlSize := types.LC_SEGMENT, int64(types.Segment32Size), int64(types.Nlist32Size)
	if b.Is64 {
		hdr.Magic = types.Magic64
		hdr.CPU = types.CPUAmd64
		segCmd, segSize, nlSize = types.LC_SEGMENT_64, types.Segment64Size, types.Nlist64Size
	}

	const uuidSize = types.LoadCmdHeaderSize + 16
	ncmds := uint32(2) // __TEXT, LC_UUID
	cmdsLen := segSize + uuidSize
	if !b.NoLinkedit {
		ncmds++
		cmdsLen += segSize
	}
	if !b.NoSymtab {
		ncmds++
		cmdsLen += types.SymtabCmdSize
	}
	if b.DuplicateSymtab {
		ncmds++
		cmdsLen += types.SymtabCmdSize
	}
	hdr.NCommands = ncmds
	hdr.SizeCommands = uint32(cmdsLen) + b.SizeofcmdsSlack

	var l Layout
	cmdStart := int64(hdr.Size())
	l.Symoff = align(cmdStart+int64(hdr.SizeCommands), 8)
	l.Stroff = l.Symoff + int64(len(b.Syms))*nlSize
	l.Linkedit = uint64(l.Symoff)
	total := l.Stroff + int64(len(b.Strtab)) + int64(len(b.Trailing))
	buf := make([]byte, total)

	hdr.Put(buf, o)
	off := cmdStart
	putSeg := func(name string, fileoff, filesz uint64) {
		if b.Is64 {
			s := types.Segment64{LoadCmd: segCmd, Len: uint32(segSize), Offset: fileoff, Filesz: filesz, Addr: fileoff, Memsz: filesz, Maxprot: 7, Prot: 5}
			types.PutAtMost16Bytes(s.Name[:], name)
			s.Put(buf[off:], o)
		} else {
			s := types.Segment32{LoadCmd: segCmd, Len: uint32(segSize), Offset: uint32(fileoff), Filesz: uint32(filesz), Addr: uint32(fileoff), Memsz: uint32(filesz), Maxprot: 7, Prot: 5}
			types.PutAtMost16Bytes(s.Name[:], name)
			s.Put(buf[off:], o)
		}
		off += segSize
	}
	putSymtab := func() {
		s := types.SymtabCmd{
			LoadCmd: types.LC_SYMTAB,
			Len:     types.SymtabCmdSize,
			Symoff:  uint32(l.Symoff),
			Nsyms:   uint32(len(b.Syms)),
			Stroff:  uint32(l.Stroff),
			Strsize: uint32(len(b.Strtab)),
		}
		if b.Stripped {
			s = types.SymtabCmd{LoadCmd: types.LC_SYMTAB, Len: types.SymtabCmdSize}
		}
		s.Put(buf[off:], o)
		off += types.SymtabCmdSize
	}

	putSeg("__TEXT", 0, uint64(l.Symoff))
	if !b.NoLinkedit {
		l.LinkeditCmd = off
		putSeg("__LINKEDIT", l.Linkedit, uint64(total)-l.Linkedit)
	}
	if !b.NoSymtab {
		l.SymtabCmd = off
		putSymtab()
	}
	if b.DuplicateSymtab {
		putSymtab()
	}
	uuid := types.LoadCmdHeader{LoadCmd: types.LC_UUID, Len: uuidSize}
	uuid.Put(buf[off:], o)
	for i := 0; i < 16; i++ {
		buf[off+types.LoadCmdHeaderSize+int64(i)] = byte(0xa0 + i)
	}

	so := l.Symoff
	for _, s := range b.Syms {
		n := types.Nlist64{Name: s.Strx, Type: s.Type, Sect: s.Sect, Desc: s.Desc, Value: s.Value}
		if b.Is64 {
			so += int64(n.Put64(buf[so:], o))
		} else {
			so += int64(n.Put32(buf[so:], o))
		}
	}
	copy(buf[l.Stroff:], b.Strtab)
	copy(buf[l.Stroff+int64(len(b.Strtab)):], b.Trailing)
	return buf, l
}
