package macho

import (
	"fmt"
	"strings"

	"github.com/appsworld/mach5/types"
)

// A Load represents any Mach-O load command.
type Load interface {
	Raw() []byte
	String() string
	Command() types.LoadCmd
}

// LoadCmdBytes is a command-tagged sequence of bytes.
// This is used for Load Commands that the rewriter
// never changes; they are carried through opaquely.
type LoadCmdBytes struct {
	types.LoadCmd
	LoadBytes
}

func (s LoadCmdBytes) String() string {
	return s.LoadCmd.String() + ": " + s.LoadBytes.String()
}

// A LoadBytes is the uninterpreted bytes of a Mach-O load command.
type LoadBytes []byte

func (b LoadBytes) String() string {
	s := "["
	for i, a := range b {
		if i > 0 {
			s += " "
			if len(b) > 48 && i >= 16 {
				s += fmt.Sprintf("... (%d bytes)", len(b))
				break
			}
		}
		s += fmt.Sprintf("%x", a)
	}
	s += "]"
	return s
}
func (b LoadBytes) Raw() []byte { return b }

/*******************************************************************************
 * SEGMENT
 *******************************************************************************/

// A SegmentHeader is the header for a Mach-O 32-bit or 64-bit load segment command.
type SegmentHeader struct {
	types.LoadCmd
	Len     uint32
	Name    string
	Addr    uint64
	Memsz   uint64
	Offset  uint64
	Filesz  uint64
	Maxprot types.VmProtection
	Prot    types.VmProtection
	Nsect   uint32
	Flag    types.SegFlag
}

func (s *SegmentHeader) String() string {
	return fmt.Sprintf(
		"Seg %s, len=%#x, addr=%#x, memsz=%#x, offset=%#x, filesz=%#x, maxprot=%#x, prot=%#x, nsect=%d, flag=%#x",
		s.Name, s.Len, s.Addr, s.Memsz, s.Offset, s.Filesz, s.Maxprot, s.Prot, s.Nsect, s.Flag)
}

// A Segment represents a Mach-O 32-bit or 64-bit load segment command.
type Segment struct {
	SegmentHeader
	LoadBytes
	// CmdOffset is the absolute file offset of the load command.
	CmdOffset int64
}

func (s *Segment) String() string {
	return fmt.Sprintf("%s: sz=0x%08x off=0x%08x-0x%08x addr=0x%09x-0x%09x %s/%s   %s%s",
		s.LoadCmd, s.Filesz, s.Offset, s.Offset+s.Filesz, s.Addr, s.Addr+s.Memsz, s.Prot, s.Maxprot, s.Name, pad(20-len(s.Name)))
}

// filesize returns the file offset and width of the command's filesize
// field. Only that field is rewritten so the rest of the command, padding
// after the segment name included, is carried through untouched.
func (s *Segment) filesize() (off, size int64) {
	if s.LoadCmd == types.LC_SEGMENT_64 {
		return s.CmdOffset + 48, 8
	}
	return s.CmdOffset + 36, 4
}

/*******************************************************************************
 * LC_SYMTAB
 *******************************************************************************/

// A Symtab represents a Mach-O LC_SYMTAB command.
type Symtab struct {
	LoadBytes
	types.SymtabCmd
	// CmdOffset is the absolute file offset of the load command.
	CmdOffset int64
	Syms      []Symbol
}

func (s *Symtab) String() string {
	if s.Nsyms == 0 && s.Strsize == 0 {
		return "Symbols stripped"
	}
	return fmt.Sprintf("Symbol offset=0x%08X, Num Syms: %d, String offset=0x%08X-0x%08X", s.Symoff, s.Nsyms, s.Stroff, s.Stroff+s.Strsize)
}

// A Symbol is a Mach-O 32-bit or 64-bit symbol table entry.
type Symbol struct {
	// Strx is the raw string table index; Name is the string found there.
	Strx  uint32
	Name  string
	Type  types.NLType
	Sect  uint8
	Desc  uint16
	Value uint64
}

func (s Symbol) String() string {
	return fmt.Sprintf("0x%016X \t <type:%s,sect:%d,desc:%#x> \t %s", s.Value, s.Type, s.Sect, s.Desc, s.Name)
}

func (s *Symbol) nlist() types.Nlist64 {
	return types.Nlist64{
		Name:  s.Strx,
		Type:  s.Type,
		Sect:  s.Sect,
		Desc:  s.Desc,
		Value: s.Value,
	}
}

func pad(length int) string {
	if length > 0 {
		return strings.Repeat(" ", length)
	}
	return " "
}
