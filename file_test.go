package macho

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/appsworld/mach5/internal/machotest"
	"github.com/appsworld/mach5/types"
)

type layout struct {
	name string
	bo   binary.ByteOrder
	is64 bool
}

var layouts = []layout{
	{"le32", binary.LittleEndian, false},
	{"be32", binary.BigEndian, false},
	{"le64", binary.LittleEndian, true},
	{"be64", binary.BigEndian, true},
}

// sample is a small object referencing _open, _custom, _fopen$UNIX2003 and
// _main, plus the two unnamed indices.
func sample(l layout) *machotest.Builder {
	blob, offs := machotest.StringTable("_open", "_custom", "_fopen$UNIX2003", "_main")
	return &machotest.Builder{
		ByteOrder: l.bo,
		Is64:      l.is64,
		Strtab:    blob,
		Syms: []machotest.Sym{
			{Strx: offs[0], Type: types.N_UNDF | types.N_EXT},
			{Strx: offs[3], Type: types.N_SECT | types.N_EXT, Sect: 1, Value: 0x10},
			{Strx: 1, Type: types.N_SECT, Sect: 1, Value: 0x20},
			{Strx: offs[2], Type: types.N_UNDF | types.N_EXT},
			{Strx: offs[1], Type: types.N_UNDF | types.N_EXT, Desc: 0x100},
			{Strx: 0, Type: types.N_ABS},
		},
	}
}

func TestNewFile(t *testing.T) {
	for _, l := range layouts {
		t.Run(l.name, func(t *testing.T) {
			dat, lay := sample(l).BuildLayout()
			f, err := NewFile(dat)
			if err != nil {
				t.Fatalf("NewFile() error = %v", err)
			}
			if f.ByteOrder != l.bo {
				t.Errorf("ByteOrder = %v, want %v", f.ByteOrder, l.bo)
			}
			if f.Is64() != l.is64 {
				t.Errorf("Is64() = %v, want %v", f.Is64(), l.is64)
			}
			if f.NCommands != 4 || len(f.Loads) != 4 {
				t.Fatalf("NCommands = %d, %d loads; want 4", f.NCommands, len(f.Loads))
			}
			if c := f.Loads[3].Command(); c != types.LC_UUID {
				t.Errorf("Loads[3] = %s, want LC_UUID", c)
			}
			if _, ok := f.Loads[3].(LoadCmdBytes); !ok {
				t.Errorf("Loads[3] is %T, want LoadCmdBytes", f.Loads[3])
			}
			if f.Linkedit == nil || f.Linkedit.CmdOffset != lay.LinkeditCmd {
				t.Fatalf("Linkedit = %v, want command at %#x", f.Linkedit, lay.LinkeditCmd)
			}
			if f.Segment("__LINKEDIT") != f.Linkedit || len(f.Segments()) != 2 {
				t.Errorf("Segment lookup disagrees with Linkedit")
			}
			if f.Symtab == nil || f.Symtab.CmdOffset != lay.SymtabCmd {
				t.Fatalf("Symtab = %v, want command at %#x", f.Symtab, lay.SymtabCmd)
			}
			if f.Symtab.Stroff != uint32(lay.Stroff) || f.Symtab.Symoff != uint32(lay.Symoff) {
				t.Errorf("Symtab = %s", f.Symtab)
			}
			want := []Symbol{
				{Strx: 2, Name: "_open", Type: types.N_UNDF | types.N_EXT},
				{Strx: 32, Name: "_main", Type: types.N_SECT | types.N_EXT, Sect: 1, Value: 0x10},
				{Strx: 1, Name: "", Type: types.N_SECT, Sect: 1, Value: 0x20},
				{Strx: 16, Name: "_fopen$UNIX2003", Type: types.N_UNDF | types.N_EXT},
				{Strx: 8, Name: "_custom", Type: types.N_UNDF | types.N_EXT, Desc: 0x100},
				{Strx: 0, Name: " ", Type: types.N_ABS},
			}
			if diff := cmp.Diff(want, f.Symbols()); diff != "" {
				t.Errorf("Symbols() mismatch (-want +got):\n%s", diff)
			}
			if got := f.StringTable().Len(); got != int(f.Symtab.Strsize) {
				t.Errorf("StringTable().Len() = %d, want %d", got, f.Symtab.Strsize)
			}
		})
	}
}

func TestNewFileByteOrder(t *testing.T) {
	dat := sample(layouts[0]).Build()
	if _, err := NewFile(dat, FileConfig{ByteOrder: binary.LittleEndian}); err != nil {
		t.Errorf("forced little endian: %v", err)
	}
	var fe *FormatError
	if _, err := NewFile(dat, FileConfig{ByteOrder: binary.BigEndian}); !errors.As(err, &fe) {
		t.Errorf("forced big endian on a little endian file: error = %v, want *FormatError", err)
	}
}

func TestNewFileSizeofcmdsSlack(t *testing.T) {
	b := sample(layouts[1])
	b.SizeofcmdsSlack = 8
	f, err := NewFile(b.Build())
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if len(f.Symbols()) != 6 {
		t.Errorf("got %d symbols, want 6", len(f.Symbols()))
	}
}

func TestNewFileNoSymtab(t *testing.T) {
	b := sample(layouts[0])
	b.NoSymtab = true
	f, err := NewFile(b.Build())
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	if f.Symtab != nil || f.Symbols() != nil || f.StringTable() != nil {
		t.Error("expected no symbol table")
	}
}

func TestNewFileErrors(t *testing.T) {
	good := sample(layouts[0]).Build()
	hdrSize := types.FileHeaderSize32

	badCmdSize := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(badCmdSize[hdrSize+4:], 4)

	dup := sample(layouts[0])
	dup.DuplicateSymtab = true

	tests := []struct {
		name   string
		data   []byte
		fat    bool
		format bool
	}{
		{name: "empty", data: nil, format: true},
		{name: "short magic", data: []byte{0xce, 0xfa}, format: true},
		{name: "fat", data: []byte{0xca, 0xfe, 0xba, 0xbe, 0, 0, 0, 2}, fat: true},
		{name: "elf", data: []byte("\x7fELF\x01\x01\x01\x00"), format: true},
		{name: "truncated header", data: good[:20], format: true},
		{name: "truncated commands", data: good[:hdrSize+40], format: true},
		{name: "truncated string table", data: good[:len(good)-1], format: true},
		{name: "small cmdsize", data: badCmdSize, format: true},
		{name: "duplicate symtab", data: dup.Build(), format: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFile(tt.data)
			if err == nil {
				t.Fatal("NewFile() succeeded")
			}
			var fe *FormatError
			if tt.format && !errors.As(err, &fe) {
				t.Errorf("error = %v, want *FormatError", err)
			}
			if tt.fat && !errors.Is(err, ErrFat) {
				t.Errorf("error = %v, want ErrFat", err)
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	err := &FormatError{0x1c, "invalid command block size", uint32(4)}
	if got, want := err.Error(), "invalid command block size '4' in record at byte 0x1c"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
