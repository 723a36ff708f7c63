package strtab

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want []Entry
	}{
		{
			name: "empty",
			blob: "",
			want: []Entry{{0, ""}},
		},
		{
			name: "typical",
			blob: " \x00_open\x00_close\x00",
			want: []Entry{{0, " "}, {2, "_open"}, {8, "_close"}, {15, ""}},
		},
		{
			name: "padding",
			blob: "\x00_a\x00\x00\x00",
			want: []Entry{{0, ""}, {1, "_a"}, {4, ""}, {5, ""}, {6, ""}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := Parse([]byte(tt.blob))
			if diff := cmp.Diff(tt.want, tab.Entries); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
			if got := tab.Len(); got != len(tt.blob) {
				t.Errorf("Len() = %d, want %d", got, len(tt.blob))
			}
			if got := tab.Bytes(); !bytes.Equal(got, []byte(tt.blob)) {
				t.Errorf("Bytes() = %q, want %q", got, tt.blob)
			}
		})
	}
}

func TestBytesSortsByOffset(t *testing.T) {
	tab := &Table{Entries: []Entry{{8, "_close"}, {0, " "}, {2, "_open"}}}
	if got, want := string(tab.Bytes()), " \x00_open\x00_close"; got != want {
		t.Errorf("Bytes() = %q, want %q", got, want)
	}
	if tab.Entries[0].Offset != 8 {
		t.Error("Bytes() reordered the receiver's entries")
	}
}

func TestNameAt(t *testing.T) {
	tab := Parse([]byte(" \x00_fopen\x00"))
	tests := []struct {
		off     uint32
		want    string
		wantErr bool
	}{
		{0, " ", false},
		{2, "_fopen", false},
		{3, "fopen", false},
		{4, "open", false},
		{8, "", false},
		{9, "", false},
		{10, "", true},
	}
	for _, tt := range tests {
		got, err := tab.NameAt(tt.off)
		if (err != nil) != tt.wantErr {
			t.Errorf("NameAt(%#x) error = %v, wantErr %v", tt.off, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NameAt(%#x) = %q, want %q", tt.off, got, tt.want)
		}
	}
	if _, ok := tab.Lookup(3); ok {
		t.Error("Lookup(3) found an entry that starts mid-name")
	}
	if name, ok := tab.Lookup(2); !ok || name != "_fopen" {
		t.Errorf("Lookup(2) = %q, %v", name, ok)
	}
}

func TestOffsetMapRemap(t *testing.T) {
	var om OffsetMap
	for _, mp := range []Mapping{
		{Old: 0, New: 0, OldName: " ", NewName: " "},
		{Old: 2, New: 2, OldName: "_fopen", NewName: "___wrap_fopen"},
		{Old: 9, New: 16, OldName: "_main", NewName: "_main"},
		{Old: 15, New: 22, OldName: "_read", NewName: "___wrap_read"},
	} {
		if err := om.Add(mp); err != nil {
			t.Fatal(err)
		}
	}
	tests := []struct {
		off     uint32
		want    uint32
		wantErr error
	}{
		{off: 2, want: 2},
		{off: 9, want: 16},
		{off: 4, want: 11},  // "open" suffix of "_fopen"
		{off: 8, want: 15},  // terminator of "_fopen"
		{off: 10, want: 17}, // "main" of unchanged "_main"
		{off: 15, want: 22},
	}
	for _, tt := range tests {
		got, err := om.Remap(tt.off)
		if err != nil {
			t.Errorf("Remap(%#x) error = %v", tt.off, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Remap(%#x) = %#x, want %#x", tt.off, got, tt.want)
		}
	}
	if _, err := om.Remap(100); err == nil {
		t.Error("Remap(100) expected an out of range error")
	}
	if err := om.Add(Mapping{Old: 15}); err == nil {
		t.Error("Add() accepted a duplicate offset")
	}
	if v, ok := om.Get(9); !ok || v != 16 {
		t.Errorf("Get(9) = %#x, %v", v, ok)
	}
}

func TestOffsetMapBrokenSuffix(t *testing.T) {
	var om OffsetMap
	if err := om.Add(Mapping{Old: 0, New: 0, OldName: "_getc", NewName: "___wrap__IO_getc"}); err != nil {
		t.Fatal(err)
	}
	// "etc" is still a suffix of the new name
	if got, err := om.Remap(2); err != nil || got != 13 {
		t.Errorf("Remap(2) = %d, %v; want 13", got, err)
	}
	om = OffsetMap{}
	if err := om.Add(Mapping{Old: 0, New: 0, OldName: "_open$UNIX2003", NewName: "___wrap_open"}); err != nil {
		t.Fatal(err)
	}
	if _, err := om.Remap(5); !errors.Is(err, ErrBrokenStrx) {
		t.Errorf("Remap(5) error = %v, want ErrBrokenStrx", err)
	}
}
