package types

import (
	"encoding/binary"
	"fmt"
)

// A LoadCmd is a Mach-O load command.
type LoadCmd uint32

func (c LoadCmd) Command() LoadCmd { return c }

const (
	LC_REQ_DYLD            LoadCmd = 0x80000000
	LC_SEGMENT             LoadCmd = 0x1                  // segment of this file to be mapped
	LC_SYMTAB              LoadCmd = 0x2                  // link-edit stab symbol table info
	LC_SYMSEG              LoadCmd = 0x3                  // link-edit gdb symbol table info (obsolete)
	LC_THREAD              LoadCmd = 0x4                  // thread
	LC_UNIXTHREAD          LoadCmd = 0x5                  // thread+stack
	LC_DYSYMTAB            LoadCmd = 0xb                  // dynamic link-edit symbol table info
	LC_LOAD_DYLIB          LoadCmd = 0xc                  // load dylib command
	LC_ID_DYLIB            LoadCmd = 0xd                  // id dylib command
	LC_LOAD_DYLINKER       LoadCmd = 0xe                  // load a dynamic linker
	LC_ID_DYLINKER         LoadCmd = 0xf                  // id dylinker command (not load dylinker command)
	LC_ROUTINES            LoadCmd = 0x11                 // image routines
	LC_TWOLEVEL_HINTS      LoadCmd = 0x16                 // two-level namespace lookup hints
	LC_LOAD_WEAK_DYLIB     LoadCmd = (0x18 | LC_REQ_DYLD) // load a dylib that is allowed to be missing
	LC_SEGMENT_64          LoadCmd = 0x19                 // 64-bit segment of this file to be mapped
	LC_ROUTINES_64         LoadCmd = 0x1a                 // 64-bit image routines
	LC_UUID                LoadCmd = 0x1b                 // the uuid
	LC_RPATH               LoadCmd = (0x1c | LC_REQ_DYLD) // runpath additions
	LC_CODE_SIGNATURE      LoadCmd = 0x1d                 // local of code signature
	LC_SEGMENT_SPLIT_INFO  LoadCmd = 0x1e                 // local of info to split segments
	LC_REEXPORT_DYLIB      LoadCmd = (0x1f | LC_REQ_DYLD) // load and re-export dylib
	LC_DYLD_INFO           LoadCmd = 0x22                 // compressed dyld information
	LC_DYLD_INFO_ONLY      LoadCmd = (0x22 | LC_REQ_DYLD) // compressed dyld information only
	LC_VERSION_MIN_MACOSX  LoadCmd = 0x24                 // build for MacOSX min OS version
	LC_FUNCTION_STARTS     LoadCmd = 0x26                 // compressed table of function start addresses
	LC_MAIN                LoadCmd = (0x28 | LC_REQ_DYLD) // replacement for LC_UNIXTHREAD
	LC_DATA_IN_CODE        LoadCmd = 0x29                 // table of non-instructions in __text
	LC_SOURCE_VERSION      LoadCmd = 0x2A                 // source version used to build binary
	LC_BUILD_VERSION       LoadCmd = 0x32                 // build for platform min OS version
	LC_DYLD_EXPORTS_TRIE   LoadCmd = (0x33 | LC_REQ_DYLD) // used with linkedit_data_command, payload is trie
	LC_DYLD_CHAINED_FIXUPS LoadCmd = (0x34 | LC_REQ_DYLD) // used with linkedit_data_command
)

var loadCmdStrings = []intName{
	{uint32(LC_SEGMENT), "LC_SEGMENT"},
	{uint32(LC_SYMTAB), "LC_SYMTAB"},
	{uint32(LC_SYMSEG), "LC_SYMSEG"},
	{uint32(LC_THREAD), "LC_THREAD"},
	{uint32(LC_UNIXTHREAD), "LC_UNIXTHREAD"},
	{uint32(LC_DYSYMTAB), "LC_DYSYMTAB"},
	{uint32(LC_LOAD_DYLIB), "LC_LOAD_DYLIB"},
	{uint32(LC_ID_DYLIB), "LC_ID_DYLIB"},
	{uint32(LC_LOAD_DYLINKER), "LC_LOAD_DYLINKER"},
	{uint32(LC_ID_DYLINKER), "LC_ID_DYLINKER"},
	{uint32(LC_ROUTINES), "LC_ROUTINES"},
	{uint32(LC_TWOLEVEL_HINTS), "LC_TWOLEVEL_HINTS"},
	{uint32(LC_LOAD_WEAK_DYLIB), "LC_LOAD_WEAK_DYLIB"},
	{uint32(LC_SEGMENT_64), "LC_SEGMENT_64"},
	{uint32(LC_ROUTINES_64), "LC_ROUTINES_64"},
	{uint32(LC_UUID), "LC_UUID"},
	{uint32(LC_RPATH), "LC_RPATH"},
	{uint32(LC_CODE_SIGNATURE), "LC_CODE_SIGNATURE"},
	{uint32(LC_SEGMENT_SPLIT_INFO), "LC_SEGMENT_SPLIT_INFO"},
	{uint32(LC_REEXPORT_DYLIB), "LC_REEXPORT_DYLIB"},
	{uint32(LC_DYLD_INFO), "LC_DYLD_INFO"},
	{uint32(LC_DYLD_INFO_ONLY), "LC_DYLD_INFO_ONLY"},
	{uint32(LC_VERSION_MIN_MACOSX), "LC_VERSION_MIN_MACOSX"},
	{uint32(LC_FUNCTION_STARTS), "LC_FUNCTION_STARTS"},
	{uint32(LC_MAIN), "LC_MAIN"},
	{uint32(LC_DATA_IN_CODE), "LC_DATA_IN_CODE"},
	{uint32(LC_SOURCE_VERSION), "LC_SOURCE_VERSION"},
	{uint32(LC_BUILD_VERSION), "LC_BUILD_VERSION"},
	{uint32(LC_DYLD_EXPORTS_TRIE), "LC_DYLD_EXPORTS_TRIE"},
	{uint32(LC_DYLD_CHAINED_FIXUPS), "LC_DYLD_CHAINED_FIXUPS"},
}

func (c LoadCmd) String() string   { return stringName(uint32(c), loadCmdStrings, false) }
func (c LoadCmd) GoString() string { return stringName(uint32(c), loadCmdStrings, true) }

// Fixed on-disk sizes of the commands the rewriter decodes.
const (
	LoadCmdHeaderSize = 2 * 4
	Segment32Size     = 14 * 4
	Segment64Size     = 10*4 + 4*8
	SymtabCmdSize     = 6 * 4
	SegNameSize       = 16
)

// A LoadCmdHeader is the cmd/cmdsize prefix every load command starts with.
type LoadCmdHeader struct {
	LoadCmd
	Len uint32
}

func (h *LoadCmdHeader) Read(b []byte, o binary.ByteOrder) error {
	if len(b) < LoadCmdHeaderSize {
		return fmt.Errorf("load command needs %d bytes, have %d", LoadCmdHeaderSize, len(b))
	}
	h.LoadCmd = LoadCmd(o.Uint32(b[0:]))
	h.Len = o.Uint32(b[4:])
	return nil
}

func (h *LoadCmdHeader) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0:], uint32(h.LoadCmd))
	o.PutUint32(b[4:], h.Len)
	return LoadCmdHeaderSize
}

type SegFlag uint32

// A Segment32 is a 32-bit Mach-O segment load command.
type Segment32 struct {
	LoadCmd              /* LC_SEGMENT */
	Len     uint32       /* includes sizeof section structs */
	Name    [16]byte     /* segment name */
	Addr    uint32       /* memory address of this segment */
	Memsz   uint32       /* memory size of this segment */
	Offset  uint32       /* file offset of this segment */
	Filesz  uint32       /* amount to map from the file */
	Maxprot VmProtection /* maximum VM protection */
	Prot    VmProtection /* initial VM protection */
	Nsect   uint32       /* number of sections in segment */
	Flag    SegFlag      /* flags */
}

func (s *Segment32) Read(b []byte, o binary.ByteOrder) error {
	if len(b) < Segment32Size {
		return fmt.Errorf("LC_SEGMENT needs %d bytes, have %d", Segment32Size, len(b))
	}
	s.LoadCmd = LoadCmd(o.Uint32(b[0*4:]))
	s.Len = o.Uint32(b[1*4:])
	copy(s.Name[:], b[2*4:2*4+SegNameSize])
	s.Addr = o.Uint32(b[6*4:])
	s.Memsz = o.Uint32(b[7*4:])
	s.Offset = o.Uint32(b[8*4:])
	s.Filesz = o.Uint32(b[9*4:])
	s.Maxprot = VmProtection(o.Uint32(b[10*4:]))
	s.Prot = VmProtection(o.Uint32(b[11*4:]))
	s.Nsect = o.Uint32(b[12*4:])
	s.Flag = SegFlag(o.Uint32(b[13*4:]))
	return nil
}

func (s *Segment32) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0*4:], uint32(s.LoadCmd))
	o.PutUint32(b[1*4:], s.Len)
	copy(b[2*4:2*4+SegNameSize], s.Name[:])
	o.PutUint32(b[6*4:], s.Addr)
	o.PutUint32(b[7*4:], s.Memsz)
	o.PutUint32(b[8*4:], s.Offset)
	o.PutUint32(b[9*4:], s.Filesz)
	o.PutUint32(b[10*4:], uint32(s.Maxprot))
	o.PutUint32(b[11*4:], uint32(s.Prot))
	o.PutUint32(b[12*4:], s.Nsect)
	o.PutUint32(b[13*4:], uint32(s.Flag))
	return Segment32Size
}

// A Segment64 is a 64-bit Mach-O segment load command.
type Segment64 struct {
	LoadCmd              /* LC_SEGMENT_64 */
	Len     uint32       /* includes sizeof section_64 structs */
	Name    [16]byte     /* segment name */
	Addr    uint64       /* memory address of this segment */
	Memsz   uint64       /* memory size of this segment */
	Offset  uint64       /* file offset of this segment */
	Filesz  uint64       /* amount to map from the file */
	Maxprot VmProtection /* maximum VM protection */
	Prot    VmProtection /* initial VM protection */
	Nsect   uint32       /* number of sections in segment */
	Flag    SegFlag      /* flags */
}

func (s *Segment64) Read(b []byte, o binary.ByteOrder) error {
	if len(b) < Segment64Size {
		return fmt.Errorf("LC_SEGMENT_64 needs %d bytes, have %d", Segment64Size, len(b))
	}
	s.LoadCmd = LoadCmd(o.Uint32(b[0*4:]))
	s.Len = o.Uint32(b[1*4:])
	copy(s.Name[:], b[2*4:2*4+SegNameSize])
	s.Addr = o.Uint64(b[6*4+0*8:])
	s.Memsz = o.Uint64(b[6*4+1*8:])
	s.Offset = o.Uint64(b[6*4+2*8:])
	s.Filesz = o.Uint64(b[6*4+3*8:])
	s.Maxprot = VmProtection(o.Uint32(b[6*4+4*8:]))
	s.Prot = VmProtection(o.Uint32(b[7*4+4*8:]))
	s.Nsect = o.Uint32(b[8*4+4*8:])
	s.Flag = SegFlag(o.Uint32(b[9*4+4*8:]))
	return nil
}

func (s *Segment64) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0*4:], uint32(s.LoadCmd))
	o.PutUint32(b[1*4:], s.Len)
	copy(b[2*4:2*4+SegNameSize], s.Name[:])
	o.PutUint64(b[6*4+0*8:], s.Addr)
	o.PutUint64(b[6*4+1*8:], s.Memsz)
	o.PutUint64(b[6*4+2*8:], s.Offset)
	o.PutUint64(b[6*4+3*8:], s.Filesz)
	o.PutUint32(b[6*4+4*8:], uint32(s.Maxprot))
	o.PutUint32(b[7*4+4*8:], uint32(s.Prot))
	o.PutUint32(b[8*4+4*8:], s.Nsect)
	o.PutUint32(b[9*4+4*8:], uint32(s.Flag))
	return Segment64Size
}

// A SymtabCmd is a Mach-O symbol table command.
type SymtabCmd struct {
	LoadCmd // LC_SYMTAB
	Len     uint32
	Symoff  uint32
	Nsyms   uint32
	Stroff  uint32
	Strsize uint32
}

func (s *SymtabCmd) Read(b []byte, o binary.ByteOrder) error {
	if len(b) < SymtabCmdSize {
		return fmt.Errorf("LC_SYMTAB needs %d bytes, have %d", SymtabCmdSize, len(b))
	}
	s.LoadCmd = LoadCmd(o.Uint32(b[0*4:]))
	s.Len = o.Uint32(b[1*4:])
	s.Symoff = o.Uint32(b[2*4:])
	s.Nsyms = o.Uint32(b[3*4:])
	s.Stroff = o.Uint32(b[4*4:])
	s.Strsize = o.Uint32(b[5*4:])
	return nil
}

func (s *SymtabCmd) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0*4:], uint32(s.LoadCmd))
	o.PutUint32(b[1*4:], s.Len)
	o.PutUint32(b[2*4:], s.Symoff)
	o.PutUint32(b[3*4:], s.Nsyms)
	o.PutUint32(b[4*4:], s.Stroff)
	o.PutUint32(b[5*4:], s.Strsize)
	return SymtabCmdSize
}
