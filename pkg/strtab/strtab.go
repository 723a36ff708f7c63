// Package strtab models a Mach-O string table as an ordered list of
// NUL-separated names keyed by their byte offset.
package strtab

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrBrokenStrx is returned when a symbol refers into the middle of a name
// whose tail did not survive renaming.
var ErrBrokenStrx = errors.New("string table index points into a renamed name")

// An Entry is one NUL-separated fragment of a string table.
type Entry struct {
	Offset uint32
	Name   string
}

// A Table is a parsed string table. Entries are in ascending offset order.
type Table struct {
	Entries []Entry
}

// Parse splits blob on NUL, keeping empty fields, and records where every
// fragment starts. Joining the fragments with NUL reproduces blob exactly.
func Parse(blob []byte) *Table {
	parts := bytes.Split(blob, []byte{0})
	t := &Table{Entries: make([]Entry, 0, len(parts))}
	var off uint32
	for _, p := range parts {
		t.Entries = append(t.Entries, Entry{Offset: off, Name: string(p)})
		off += uint32(len(p)) + 1
	}
	return t
}

// Len returns the byte length of the serialized table.
func (t *Table) Len() int {
	if len(t.Entries) == 0 {
		return 0
	}
	n := len(t.Entries) - 1 // separators
	for _, e := range t.Entries {
		n += len(e.Name)
	}
	return n
}

// Bytes joins the entries in ascending offset order with NUL separators.
func (t *Table) Bytes() []byte {
	ents := t.sorted()
	var buf bytes.Buffer
	buf.Grow(t.Len())
	for i, e := range ents {
		if i > 0 {
			buf.WriteByte(0)
		}
		buf.WriteString(e.Name)
	}
	return buf.Bytes()
}

// Lookup returns the name that starts at off.
func (t *Table) Lookup(off uint32) (string, bool) {
	i := sort.Search(len(t.Entries), func(i int) bool { return t.Entries[i].Offset >= off })
	if i < len(t.Entries) && t.Entries[i].Offset == off {
		return t.Entries[i].Name, true
	}
	return "", false
}

// NameAt returns the NUL-terminated string at off, which may start inside a
// fragment.
func (t *Table) NameAt(off uint32) (string, error) {
	i := t.containing(off)
	if i < 0 {
		return "", fmt.Errorf("offset %#x is outside the string table", off)
	}
	e := t.Entries[i]
	return e.Name[off-e.Offset:], nil
}

// containing returns the index of the entry whose bytes (or terminator)
// cover off, or -1.
func (t *Table) containing(off uint32) int {
	i := sort.Search(len(t.Entries), func(i int) bool { return t.Entries[i].Offset > off }) - 1
	if i < 0 {
		return -1
	}
	if off > t.Entries[i].Offset+uint32(len(t.Entries[i].Name)) {
		return -1
	}
	return i
}

func (t *Table) sorted() []Entry {
	if sort.SliceIsSorted(t.Entries, func(i, j int) bool { return t.Entries[i].Offset < t.Entries[j].Offset }) {
		return t.Entries
	}
	ents := append([]Entry(nil), t.Entries...)
	sort.SliceStable(ents, func(i, j int) bool { return ents[i].Offset < ents[j].Offset })
	return ents
}

func (t *Table) String() string {
	var sb strings.Builder
	for _, e := range t.Entries {
		fmt.Fprintf(&sb, "%#08x: %q\n", e.Offset, e.Name)
	}
	return sb.String()
}
