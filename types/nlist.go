package types

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	Nlist32Size = 4 + 1 + 1 + 2 + 4
	Nlist64Size = 4 + 1 + 1 + 2 + 8
)

// An Nlist32 is a Mach-O 32-bit symbol table entry.
type Nlist32 struct {
	Name  uint32
	Type  NLType
	Sect  uint8
	Desc  uint16
	Value uint32
}

// An Nlist64 is a Mach-O 64-bit symbol table entry.
type Nlist64 struct {
	Name  uint32
	Type  NLType
	Sect  uint8
	Desc  uint16
	Value uint64
}

// ReadNlist decodes one symbol table entry. 32-bit entries are widened.
func ReadNlist(b []byte, o binary.ByteOrder, is64 bool) (Nlist64, error) {
	var n Nlist64
	if is64 {
		if len(b) < Nlist64Size {
			return n, fmt.Errorf("nlist_64 needs %d bytes, have %d", Nlist64Size, len(b))
		}
		n.Value = o.Uint64(b[8:])
	} else {
		if len(b) < Nlist32Size {
			return n, fmt.Errorf("nlist needs %d bytes, have %d", Nlist32Size, len(b))
		}
		n.Value = uint64(o.Uint32(b[8:]))
	}
	n.Name = o.Uint32(b[0:])
	n.Type = NLType(b[4])
	n.Sect = b[5]
	n.Desc = o.Uint16(b[6:])
	return n, nil
}

func (n *Nlist64) Put32(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0:], n.Name)
	b[4] = byte(n.Type)
	b[5] = byte(n.Sect)
	o.PutUint16(b[6:], n.Desc)
	o.PutUint32(b[8:], uint32(n.Value))
	return Nlist32Size
}

func (n *Nlist64) Put64(b []byte, o binary.ByteOrder) int {
	o.PutUint32(b[0:], n.Name)
	b[4] = byte(n.Type)
	b[5] = byte(n.Sect)
	o.PutUint16(b[6:], n.Desc)
	o.PutUint64(b[8:], n.Value)
	return Nlist64Size
}

type NLType uint8

/*
 * The n_type field really contains four fields:
 *	unsigned char N_STAB:3,
 *		      N_PEXT:1,
 *		      N_TYPE:3,
 *		      N_EXT:1;
 * which are used via the following masks.
 */
const (
	N_STAB NLType = 0xe0 /* if any of these bits set, a symbolic debugging entry */
	N_PEXT NLType = 0x10 /* private external symbol bit */
	N_TYPE NLType = 0x0e /* mask for the type bits */
	N_EXT  NLType = 0x01 /* external symbol bit, set for external symbols */
)

/*
 * Values for N_TYPE bits of the n_type field.
 */
const (
	N_UNDF NLType = 0x0 /* undefined, n_sect == NO_SECT */
	N_ABS  NLType = 0x2 /* absolute, n_sect == NO_SECT */
	N_SECT NLType = 0xe /* defined in section number n_sect */
	N_PBUD NLType = 0xc /* prebound undefined (defined in a dylib) */
	N_INDR NLType = 0xa /* indirect */
)

// Stab returns the 3 debugging-entry bits.
func (t NLType) Stab() uint8 { return uint8(t&N_STAB) >> 5 }

// Kind returns the 3 type bits.
func (t NLType) Kind() NLType { return t & N_TYPE }

func (t NLType) IsDebugSym() bool {
	return (t & N_STAB) != 0
}

func (t NLType) IsPrivateExternalSym() bool {
	return (t & N_PEXT) != 0
}

func (t NLType) IsExternalSym() bool {
	return (t & N_EXT) != 0
}

func (t NLType) IsUndefinedSym() bool {
	return (t & N_TYPE) == N_UNDF
}
func (t NLType) IsAbsoluteSym() bool {
	return (t & N_TYPE) == N_ABS
}
func (t NLType) IsDefinedInSection() bool {
	return (t & N_TYPE) == N_SECT
}
func (t NLType) IsPreboundUndefinedSym() bool {
	return (t & N_TYPE) == N_PBUD
}
func (t NLType) IsIndirectSym() bool {
	return (t & N_TYPE) == N_INDR
}

func (t NLType) String() string {
	if t.IsDebugSym() {
		return fmt.Sprintf("stab(%#02x)", uint8(t))
	}
	var flags []string
	if t.IsPrivateExternalSym() {
		flags = append(flags, "private_external")
	}
	if t.IsExternalSym() {
		flags = append(flags, "external")
	}
	switch t.Kind() {
	case N_UNDF:
		flags = append(flags, "undefined")
	case N_ABS:
		flags = append(flags, "absolute")
	case N_SECT:
		flags = append(flags, "section")
	case N_PBUD:
		flags = append(flags, "prebound")
	case N_INDR:
		flags = append(flags, "indirect")
	}
	return strings.Join(flags, "|")
}
