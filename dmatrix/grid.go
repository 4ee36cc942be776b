package dmatrix

import "github.com/dbielich/slate/comm"

// ProcessGrid describes a logical P x Q arrangement of processes over
// which tiles are distributed block-cyclically (spec.md §3, Glossary).
//
// Rank flattening is column-major (rank = pcol*P + prow): spec.md §9
// leaves "row-major or column-major" as a TODO in the original source and
// directs this specification to assume the ambient convention of the
// numerical ecosystem, which is column-major (as ScaLAPACK and its
// descendants use). See DESIGN.md Open Question #2.
type ProcessGrid struct {
	P, Q int
}

// RankOf flattens a (prow, pcol) grid coordinate to a comm.Rank under the
// column-major convention.
func (g ProcessGrid) RankOf(prow, pcol int) comm.Rank {
	return comm.Rank(pcol*g.P + prow)
}

// Size returns the total number of processes in the grid.
func (g ProcessGrid) Size() int { return g.P * g.Q }

// OwnerFunc maps a tile index (i,j) to the (prow, pcol) grid coordinate
// that owns it. Pluggable but fixed per Matrix instance (spec.md §3).
type OwnerFunc func(i, j, P, Q int) (prow, pcol int)

// BlockCyclic is the default OwnerFunc: tile (i,j) is owned by process
// ((i mod P), (j mod Q)).
func BlockCyclic(i, j, P, Q int) (prow, pcol int) {
	return i % P, j % Q
}
