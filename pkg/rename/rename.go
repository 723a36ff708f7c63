package rename

import (
	"fmt"
	"sort"

	"github.com/apex/log"
	"github.com/appsworld/mach5/pkg/strtab"
)

// A Change records one renamed string table entry.
type Change struct {
	Offset    uint32 // original offset
	NewOffset uint32
	Old       string
	New       string
}

func (c Change) Delta() int { return len(c.New) - len(c.Old) }

func (c Change) String() string {
	return fmt.Sprintf("%#08x -> %#08x %s -> %s", c.Offset, c.NewOffset, c.Old, c.New)
}

// A Result is the outcome of applying a table to a string table.
type Result struct {
	// Entries keep their original offsets; only names change.
	Entries []strtab.Entry
	Map     strtab.OffsetMap
	Changes []Change
	// SizeDiff is the total growth of the string table in bytes.
	SizeDiff int
}

// Table returns the rewritten string table.
func (r *Result) Table() *strtab.Table {
	return &strtab.Table{Entries: r.Entries}
}

// Apply renames the entries of st that t matches. Entries are processed in
// ascending original offset order; each entry's new offset is its original
// offset plus the growth of every entry before it.
func Apply(t *Table, st *strtab.Table) (*Result, error) {
	ents := append([]strtab.Entry(nil), st.Entries...)
	sort.SliceStable(ents, func(i, j int) bool { return ents[i].Offset < ents[j].Offset })

	r := &Result{Entries: ents}
	var diff int64
	for i, e := range ents {
		newOff := int64(e.Offset) + diff
		if newOff < 0 || newOff > int64(^uint32(0)) {
			return nil, fmt.Errorf("string table offset %#x moves out of range (%d)", e.Offset, newOff)
		}
		name, ok := t.Rename(e.Name)
		if err := r.Map.Add(strtab.Mapping{
			Old:     e.Offset,
			New:     uint32(newOff),
			OldName: e.Name,
			NewName: name,
		}); err != nil {
			return nil, fmt.Errorf("failed to map string table entry %q: %w", e.Name, err)
		}
		if !ok {
			continue
		}
		c := Change{Offset: e.Offset, NewOffset: uint32(newOff), Old: e.Name, New: name}
		log.WithFields(log.Fields{
			"offset": fmt.Sprintf("%#x", c.Offset),
			"delta":  c.Delta(),
		}).Debugf("%s -> %s", c.Old, c.New)
		r.Changes = append(r.Changes, c)
		ents[i].Name = name
		diff += int64(c.Delta())
	}
	r.SizeDiff = int(diff)
	return r, nil
}
