package types

import "unsafe"

// The on-disk sizes below must match the Go struct layouts; each line fails
// to compile if they drift apart.
var (
	_ = [1]struct{}{}[unsafe.Sizeof(LoadCmdHeader{})-LoadCmdHeaderSize]
	_ = [1]struct{}{}[unsafe.Sizeof(SymtabCmd{})-SymtabCmdSize]
	_ = [1]struct{}{}[unsafe.Sizeof(Segment32{})-Segment32Size]
	_ = [1]struct{}{}[unsafe.Sizeof(Segment64{})-Segment64Size]
	_ = [1]struct{}{}[unsafe.Sizeof(Nlist32{})-Nlist32Size]
	_ = [1]struct{}{}[unsafe.Sizeof(Nlist64{})-Nlist64Size]
	_ = [1]struct{}{}[unsafe.Sizeof(FileHeader{})-FileHeaderSize64]
)
