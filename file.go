package macho

// High level access to the parts of a Mach-O file the rewriter touches.

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/appsworld/mach5/pkg/strtab"
	"github.com/appsworld/mach5/types"
)

// ErrFat is returned for universal binaries; extract a slice first.
var ErrFat = errors.New("universal (fat) Mach-O files are not supported")

// A File represents a Mach-O file held in memory.
type File struct {
	types.FileHeader
	ByteOrder binary.ByteOrder
	Loads     []Load

	// Symtab and Linkedit are nil when the file has no LC_SYMTAB or
	// __LINKEDIT segment.
	Symtab   *Symtab
	Linkedit *Segment

	data   []byte
	strtab *strtab.Table
	path   string
}

// FormatError is returned by some operations if the data does
// not have the correct format for an object file.
type FormatError struct {
	off int64
	msg string
	val interface{}
}

func (e *FormatError) Error() string {
	msg := e.msg
	if e.val != nil {
		msg += fmt.Sprintf(" '%v'", e.val)
	}
	msg += fmt.Sprintf(" in record at byte %#x", e.off)
	return msg
}

// FileConfig is a MachO file config object
type FileConfig struct {
	// ByteOrder forces the byte order instead of detecting it from the
	// magic. The magic must still match in that order.
	ByteOrder binary.ByteOrder
}

// Open reads the named file into memory and parses it as a Mach-O binary.
func Open(name string, config ...FileConfig) (*File, error) {
	dat, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	f, err := NewFile(dat, config...)
	if err != nil {
		return nil, err
	}
	f.path = name
	return f, nil
}

// NewFile parses the Mach-O binary in data. The returned File refers to
// data and never modifies it.
func NewFile(data []byte, config ...FileConfig) (*File, error) {
	f, _, err := newFile(data, config...)
	return f, err
}

// newFile parses data and reports the last pipeline stage it completed.
func newFile(data []byte, config ...FileConfig) (*File, Stage, error) {
	var cfg FileConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	f := &File{data: data}
	if err := f.readHeader(cfg); err != nil {
		return nil, StageStart, err
	}
	if err := f.walkCommands(); err != nil {
		return nil, StageHeaderParsed, err
	}
	if f.Symtab != nil {
		if err := f.parseSymtab(); err != nil {
			return nil, StageCommandsWalked, err
		}
	}
	return f, StageTablesParsed, nil
}

func (f *File) readHeader(cfg FileConfig) error {
	// Read and decode Mach magic to determine byte order, size.
	// Magic32 and Magic64 differ only in the bottom bit.
	if len(f.data) < 4 {
		return &FormatError{0, "file too small for magic", len(f.data)}
	}
	ident := f.data[0:4]
	be := binary.BigEndian.Uint32(ident)
	le := binary.LittleEndian.Uint32(ident)
	if be == types.MagicFat.Int() || le == types.MagicFat.Int() {
		return ErrFat
	}
	switch {
	case cfg.ByteOrder != nil:
		m := cfg.ByteOrder.Uint32(ident)
		if m&^1 != types.Magic32.Int()&^1 {
			return &FormatError{0, fmt.Sprintf("invalid magic number for %s", cfg.ByteOrder), fmt.Sprintf("%#x", m)}
		}
		f.ByteOrder = cfg.ByteOrder
	case be&^1 == types.Magic32.Int()&^1:
		f.ByteOrder = binary.BigEndian
	case le&^1 == types.Magic32.Int()&^1:
		f.ByteOrder = binary.LittleEndian
	default:
		return &FormatError{0, "invalid magic number", nil}
	}

	if err := f.FileHeader.Read(f.data, f.ByteOrder); err != nil {
		return &FormatError{0, "truncated header", err}
	}
	log.WithFields(log.Fields{
		"magic": f.Magic,
		"cpu":   f.CPU,
		"type":  f.Type,
		"ncmds": f.NCommands,
	}).Debug("parsed header")
	return nil
}

func (f *File) walkCommands() error {
	offset := int64(f.FileHeader.Size())
	end := offset + int64(f.SizeCommands)
	if end > int64(len(f.data)) {
		return &FormatError{offset, "load commands extend past end of file", f.SizeCommands}
	}
	dat := f.data[offset:end]
	bo := f.ByteOrder
	var total uint64

	f.Loads = make([]Load, f.NCommands)
	for i := range f.Loads {
		// Each load command begins with uint32 command and length.
		var hdr types.LoadCmdHeader
		if err := hdr.Read(dat, bo); err != nil {
			return &FormatError{offset, "command block too small", nil}
		}
		cmd, siz := hdr.LoadCmd, hdr.Len
		if siz < types.LoadCmdHeaderSize || siz > uint32(len(dat)) {
			return &FormatError{offset, "invalid command block size", siz}
		}

		var cmddat []byte
		cmddat, dat = dat[0:siz], dat[siz:]
		total += uint64(siz)

		switch cmd {
		default:
			f.Loads[i] = LoadCmdBytes{cmd, LoadBytes(cmddat)}
		case types.LC_SEGMENT:
			var seg32 types.Segment32
			if err := seg32.Read(cmddat, bo); err != nil {
				return &FormatError{offset, "failed to read LC_SEGMENT", err}
			}
			s := &Segment{LoadBytes: cmddat, CmdOffset: offset}
			s.LoadCmd = cmd
			s.Len = siz
			s.Name = types.CString(seg32.Name[0:])
			s.Addr = uint64(seg32.Addr)
			s.Memsz = uint64(seg32.Memsz)
			s.Offset = uint64(seg32.Offset)
			s.Filesz = uint64(seg32.Filesz)
			s.Maxprot = seg32.Maxprot
			s.Prot = seg32.Prot
			s.Nsect = seg32.Nsect
			s.Flag = seg32.Flag
			f.Loads[i] = s
			f.noteSegment(s)
		case types.LC_SEGMENT_64:
			var seg64 types.Segment64
			if err := seg64.Read(cmddat, bo); err != nil {
				return &FormatError{offset, "failed to read LC_SEGMENT_64", err}
			}
			s := &Segment{LoadBytes: cmddat, CmdOffset: offset}
			s.LoadCmd = cmd
			s.Len = siz
			s.Name = types.CString(seg64.Name[0:])
			s.Addr = seg64.Addr
			s.Memsz = seg64.Memsz
			s.Offset = seg64.Offset
			s.Filesz = seg64.Filesz
			s.Maxprot = seg64.Maxprot
			s.Prot = seg64.Prot
			s.Nsect = seg64.Nsect
			s.Flag = seg64.Flag
			f.Loads[i] = s
			f.noteSegment(s)
		case types.LC_SYMTAB:
			if f.Symtab != nil {
				return &FormatError{offset, "duplicate LC_SYMTAB", nil}
			}
			var hdr types.SymtabCmd
			if err := hdr.Read(cmddat, bo); err != nil {
				return &FormatError{offset, "failed to read LC_SYMTAB", err}
			}
			st := &Symtab{LoadBytes: cmddat, SymtabCmd: hdr, CmdOffset: offset}
			f.Symtab = st
			f.Loads[i] = st
		}
		offset += int64(siz)
	}
	if total != uint64(f.SizeCommands) {
		log.Warnf("sizeofcmds is %#x but load commands add up to %#x", f.SizeCommands, total)
	}
	return nil
}

func (f *File) noteSegment(s *Segment) {
	if s.Name != "__LINKEDIT" {
		return
	}
	if f.Linkedit != nil {
		log.Warnf("ignoring second __LINKEDIT segment at %#x", s.CmdOffset)
		return
	}
	f.Linkedit = s
}

// Is64 reports whether the file uses the 64-bit layout.
func (f *File) Is64() bool {
	return f.Magic == types.Magic64
}

func (f *File) nlistSize() int {
	if f.Is64() {
		return types.Nlist64Size
	}
	return types.Nlist32Size
}

// Data returns the bytes the File was parsed from.
func (f *File) Data() []byte { return f.data }

// Path returns the name the File was opened from, if any.
func (f *File) Path() string { return f.path }

// Segment returns the first Segment with the given name, or nil if no such segment exists.
func (f *File) Segment(name string) *Segment {
	for _, l := range f.Loads {
		if s, ok := l.(*Segment); ok && s.Name == name {
			return s
		}
	}
	return nil
}

// Segments returns all Segments.
func (f *File) Segments() []*Segment {
	var segs []*Segment
	for _, l := range f.Loads {
		if s, ok := l.(*Segment); ok {
			segs = append(segs, s)
		}
	}
	return segs
}
