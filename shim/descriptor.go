package shim

import "github.com/dbielich/slate/comm"

// Descriptor mirrors the legacy matrix descriptor array spec.md §6
// names: (context, global rows, global cols, block rows, block cols,
// row source, col source, local leading dim). A real collaborator
// decodes its own wire format into this shape before calling the core
// driver; this package performs no such decoding.
type Descriptor struct {
	Context         int
	GlobalRows      int
	GlobalCols      int
	BlockRows       int
	BlockCols       int
	RowSource       int
	ColSource       int
	LocalLeadingDim int
}

// GridInfo is what a Descriptor's Context resolves to via the
// collaborator's own grid-info callback: the process grid shape and the
// communicator bound to it.
type GridInfo struct {
	P, Q int
	Comm comm.Communicator
}

// SubMatrixOffset is the (ia, ja) one-based offset spec.md §6 says the
// shim constructs a sub-matrix view at before invoking the core driver.
type SubMatrixOffset struct {
	IA, JA int
}
