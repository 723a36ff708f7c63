package strtab

import (
	"fmt"
	"sort"
	"strings"
)

// A Mapping records where one string table fragment moved to.
type Mapping struct {
	Old     uint32
	New     uint32
	OldName string
	NewName string
}

// An OffsetMap maps original string table offsets to rewritten ones.
// Mappings must be added in ascending Old order.
type OffsetMap struct {
	m []Mapping
}

// Add appends a mapping. Old must be greater than every Old already added.
func (om *OffsetMap) Add(mp Mapping) error {
	if n := len(om.m); n > 0 && om.m[n-1].Old >= mp.Old {
		return fmt.Errorf("offset %#x added out of order (last %#x)", mp.Old, om.m[n-1].Old)
	}
	om.m = append(om.m, mp)
	return nil
}

func (om *OffsetMap) Len() int { return len(om.m) }

// Mappings returns the mappings in ascending original offset order.
func (om *OffsetMap) Mappings() []Mapping { return om.m }

// Get returns the new offset of the fragment that started at old.
func (om *OffsetMap) Get(old uint32) (uint32, bool) {
	i := sort.Search(len(om.m), func(i int) bool { return om.m[i].Old >= old })
	if i < len(om.m) && om.m[i].Old == old {
		return om.m[i].New, true
	}
	return 0, false
}

// Remap translates an arbitrary string table index. Indices that start a
// fragment map directly; indices into the middle of a fragment (a shared
// suffix) map to the same suffix of the rewritten name.
func (om *OffsetMap) Remap(off uint32) (uint32, error) {
	i := sort.Search(len(om.m), func(i int) bool { return om.m[i].Old > off }) - 1
	if i < 0 {
		return 0, fmt.Errorf("offset %#x precedes the string table", off)
	}
	mp := om.m[i]
	if off == mp.Old {
		return mp.New, nil
	}
	rel := off - mp.Old
	if rel > uint32(len(mp.OldName)) {
		return 0, fmt.Errorf("offset %#x is past the end of the string table", off)
	}
	suffix := mp.OldName[rel:]
	if !strings.HasSuffix(mp.NewName, suffix) {
		return 0, fmt.Errorf("offset %#x (%q inside %q renamed to %q): %w", off, suffix, mp.OldName, mp.NewName, ErrBrokenStrx)
	}
	return mp.New + uint32(len(mp.NewName)-len(suffix)), nil
}
