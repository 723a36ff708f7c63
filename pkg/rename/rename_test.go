package rename

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/appsworld/mach5/pkg/strtab"
	"github.com/google/go-cmp/cmp"
)

func openOnly() *Table {
	return &Table{
		Prefix:   DefaultPrefix,
		Suffixes: []string{UNIX2003},
		Symbols:  map[string]Policy{"open": Prefix},
	}
}

func TestApplyRenamesMatches(t *testing.T) {
	st := strtab.Parse([]byte("_open\x00_custom\x00"))
	r, err := Apply(openOnly(), st)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got, want := string(r.Table().Bytes()), "___wrap_open\x00_custom\x00"; got != want {
		t.Errorf("new table = %q, want %q", got, want)
	}
	if r.SizeDiff != 7 {
		t.Errorf("SizeDiff = %d, want 7", r.SizeDiff)
	}
	want := []strtab.Mapping{
		{Old: 0, New: 0, OldName: "_open", NewName: "___wrap_open"},
		{Old: 6, New: 13, OldName: "_custom", NewName: "_custom"},
		{Old: 14, New: 21, OldName: "", NewName: ""},
	}
	if diff := cmp.Diff(want, r.Map.Mappings()); diff != "" {
		t.Errorf("offset map mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Change{{Offset: 0, NewOffset: 0, Old: "_open", New: "___wrap_open"}}, r.Changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	// the input table is untouched
	if st.Entries[0].Name != "_open" {
		t.Errorf("Apply() modified its input: %q", st.Entries[0].Name)
	}
}

func TestApplyShrinks(t *testing.T) {
	tbl := &Table{Prefix: DefaultPrefix, Symbols: map[string]Policy{"fopen": Replace("_f")}}
	r, err := Apply(tbl, strtab.Parse([]byte(" \x00_fopen\x00_main\x00")))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got, want := string(r.Table().Bytes()), " \x00_f\x00_main\x00"; got != want {
		t.Errorf("new table = %q, want %q", got, want)
	}
	if r.SizeDiff != -4 {
		t.Errorf("SizeDiff = %d, want -4", r.SizeDiff)
	}
	if diff := cmp.Diff([]Change{{Offset: 2, NewOffset: 2, Old: "_fopen", New: "_f"}}, r.Changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	if got := r.Changes[0].Delta(); got != -4 {
		t.Errorf("Delta() = %d, want -4", got)
	}
	for old, want := range map[uint32]uint32{2: 2, 9: 5, 15: 11} {
		got, err := r.Map.Remap(old)
		if err != nil || got != want {
			t.Errorf("Remap(%d) = %d, %v; want %d", old, got, err, want)
		}
	}
}

func TestApplyNoMatch(t *testing.T) {
	blob := " \x00_main\x00_helper\x00\x00"
	r, err := Apply(LibC(), strtab.Parse([]byte(blob)))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := string(r.Table().Bytes()); got != blob {
		t.Errorf("new table = %q, want %q", got, blob)
	}
	if len(r.Changes) != 0 || r.SizeDiff != 0 {
		t.Errorf("got %d changes, diff %d; want none", len(r.Changes), r.SizeDiff)
	}
	for _, m := range r.Map.Mappings() {
		if m.Old != m.New {
			t.Errorf("offset %#x moved to %#x", m.Old, m.New)
		}
	}
}

func TestApplyShortNames(t *testing.T) {
	tbl := &Table{Prefix: "X", Symbols: map[string]Policy{"": Prefix}}
	r, err := Apply(tbl, strtab.Parse([]byte("_\x00a\x00")))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Changes) != 0 {
		t.Errorf("names of length <= 1 were renamed: %v", r.Changes)
	}
}

func TestApplySortsEntries(t *testing.T) {
	shuffled := &strtab.Table{Entries: []strtab.Entry{
		{Offset: 13, Name: "_read"},
		{Offset: 0, Name: " "},
		{Offset: 7, Name: "_main"},
		{Offset: 2, Name: "_fopen"},
	}}
	r, err := Apply(LibC(), shuffled)
	if err != nil {
		t.Fatal(err)
	}
	want := []strtab.Mapping{
		{Old: 0, New: 0, OldName: " ", NewName: " "},
		{Old: 2, New: 2, OldName: "_fopen", NewName: "___wrap_fopen"},
		{Old: 7, New: 14, OldName: "_main", NewName: "_main"},
		{Old: 13, New: 20, OldName: "_read", NewName: "___wrap_read"},
	}
	if diff := cmp.Diff(want, r.Map.Mappings()); diff != "" {
		t.Errorf("offset map mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyMonotonic(t *testing.T) {
	var names []string
	for i, s := range []string{"open", "x", "close", "fprintf", "y", "getc", "main", "putc", "write"} {
		if i%2 == 0 {
			names = append(names, "_"+s+UNIX2003)
		} else {
			names = append(names, "_"+s)
		}
	}
	rand.New(rand.NewSource(1)).Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	st := strtab.Parse([]byte(strings.Join(names, "\x00")))
	r, err := Apply(LibC(), st)
	if err != nil {
		t.Fatal(err)
	}
	ms := r.Map.Mappings()
	for i := 1; i < len(ms); i++ {
		if ms[i].New <= ms[i-1].New {
			t.Errorf("offset map not increasing at %#x: %#x <= %#x", ms[i].Old, ms[i].New, ms[i-1].New)
		}
	}
	if got, want := r.Table().Len(), st.Len()+r.SizeDiff; got != want {
		t.Errorf("new table length = %d, want %d", got, want)
	}
	// every new offset must point at the renamed name in the new table
	nt := strtab.Parse(r.Table().Bytes())
	for _, m := range ms {
		if name, ok := nt.Lookup(m.New); !ok || name != m.NewName {
			t.Errorf("new table at %#x = %q, %v; want %q", m.New, name, ok, m.NewName)
		}
	}
}

func TestRename(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"_open", "___wrap_open", true},
		{"_open$UNIX2003", "___wrap_open", true},
		{"_fopen$UNIX2003", "___wrap_fopen", true},
		{"_putc", "___wrap__IO_putc", true},
		{"_getc_unlocked", "___wrap__IO_getc_unlocked", true},
		{"_getcwd", "_getcwd", false},
		{"_main", "_main", false},
		{"open", "open", false}, // first character is always dropped
		{"_", "_", false},
		{"", "", false},
	}
	tbl := LibC()
	for _, tt := range tests {
		got, ok := tbl.Rename(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Rename(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}
