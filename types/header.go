package types

import (
	"encoding/binary"
	"fmt"
)

// A FileHeader represents a Mach-O file header.
type FileHeader struct {
	Magic        Magic
	CPU          CPU
	SubCPU       uint32
	Type         HeaderFileType
	NCommands    uint32
	SizeCommands uint32
	Flags        uint32
	Reserved     uint32 // 64-bit only
}

const (
	FileHeaderSize32 = 7 * 4
	FileHeaderSize64 = 8 * 4
)

// Size returns the on-disk size of the header for its magic.
func (h *FileHeader) Size() int {
	if h.Magic == Magic64 {
		return FileHeaderSize64
	}
	return FileHeaderSize32
}

// Read decodes the header from b. The magic must already be known to be
// Magic32 or Magic64 in byte order o.
func (h *FileHeader) Read(b []byte, o binary.ByteOrder) error {
	if len(b) < FileHeaderSize32 {
		return fmt.Errorf("header needs %d bytes, have %d", FileHeaderSize32, len(b))
	}
	h.Magic = Magic(o.Uint32(b[0:]))
	h.CPU = CPU(o.Uint32(b[4:]))
	h.SubCPU = o.Uint32(b[8:])
	h.Type = HeaderFileType(o.Uint32(b[12:]))
	h.NCommands = o.Uint32(b[16:])
	h.SizeCommands = o.Uint32(b[20:])
	h.Flags = o.Uint32(b[24:])
	h.Reserved = 0
	if h.Magic == Magic64 {
		if len(b) < FileHeaderSize64 {
			return fmt.Errorf("64-bit header needs %d bytes, have %d", FileHeaderSize64, len(b))
		}
		h.Reserved = o.Uint32(b[28:])
	}
	return nil
}

func (h *FileHeader) Put(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0:], uint32(h.Magic))
	o.PutUint32(b[4:], uint32(h.CPU))
	o.PutUint32(b[8:], h.SubCPU)
	o.PutUint32(b[12:], uint32(h.Type))
	o.PutUint32(b[16:], h.NCommands)
	o.PutUint32(b[20:], h.SizeCommands)
	o.PutUint32(b[24:], h.Flags)
	if h.Magic != Magic64 {
		return FileHeaderSize32
	}
	o.PutUint32(b[28:], h.Reserved)
	return FileHeaderSize64
}

type Magic uint32

const (
	Magic32  Magic = 0xfeedface
	Magic64  Magic = 0xfeedfacf
	MagicFat Magic = 0xcafebabe
)

var magicStrings = []intName{
	{uint32(Magic32), "32-bit MachO"},
	{uint32(Magic64), "64-bit MachO"},
	{uint32(MagicFat), "Fat MachO"},
}

func (i Magic) Int() uint32      { return uint32(i) }
func (i Magic) String() string   { return stringName(uint32(i), magicStrings, false) }
func (i Magic) GoString() string { return stringName(uint32(i), magicStrings, true) }

// A HeaderFileType is the Mach-O file type, e.g. an object file, executable, or dynamic library.
type HeaderFileType uint32

const (
	MH_OBJECT     HeaderFileType = 0x1 /* relocatable object file */
	MH_EXECUTE    HeaderFileType = 0x2 /* demand paged executable file */
	MH_FVMLIB     HeaderFileType = 0x3 /* fixed VM shared library file */
	MH_CORE       HeaderFileType = 0x4 /* core file */
	MH_PRELOAD    HeaderFileType = 0x5 /* preloaded executable file */
	MH_DYLIB      HeaderFileType = 0x6 /* dynamically bound shared library */
	MH_DYLINKER   HeaderFileType = 0x7 /* dynamic link editor */
	MH_BUNDLE     HeaderFileType = 0x8 /* dynamically bound bundle file */
	MH_DYLIB_STUB HeaderFileType = 0x9 /* shared library stub for static linking only, no section contents */
	MH_DSYM       HeaderFileType = 0xa /* companion file with only debug sections */
)

var fileTypeStrings = []intName{
	{uint32(MH_OBJECT), "OBJECT"},
	{uint32(MH_EXECUTE), "EXECUTE"},
	{uint32(MH_FVMLIB), "FVMLIB"},
	{uint32(MH_CORE), "CORE"},
	{uint32(MH_PRELOAD), "PRELOAD"},
	{uint32(MH_DYLIB), "DYLIB"},
	{uint32(MH_DYLINKER), "DYLINKER"},
	{uint32(MH_BUNDLE), "BUNDLE"},
	{uint32(MH_DYLIB_STUB), "DYLIB_STUB"},
	{uint32(MH_DSYM), "DSYM"},
}

func (t HeaderFileType) String() string   { return stringName(uint32(t), fileTypeStrings, false) }
func (t HeaderFileType) GoString() string { return stringName(uint32(t), fileTypeStrings, true) }

func (h FileHeader) String() string {
	return fmt.Sprintf(
		"Magic         = %s\n"+
			"Type          = %s\n"+
			"CPU           = %s\n"+
			"Commands      = %d (Size: %d)\n"+
			"Flags         = %#x\n",
		h.Magic,
		h.Type,
		h.CPU,
		h.NCommands,
		h.SizeCommands,
		h.Flags,
	)
}
