package lu

import "github.com/dbielich/slate/comm"

// Tag assignment (spec.md §4.3, §4.6): within one driver iteration the
// set of (src, dst, tag) triples used by broadcasts must be collision-
// free. Three disjoint ranges cover every broadcast this driver issues:
//
//   - panelDiagTag(k), k in [0, min(Mt,Nt)): the initial A(k,k)
//     broadcast, in the range [Mt+Nt, Mt+Nt+min(Mt,Nt)).
//   - rowTag(i) = i, for the panel row broadcast (step 3), i in [0, Mt).
//   - lookaheadTag(j) = j, for lookahead column broadcasts (step 4a),
//     j in [0, Nt).
//   - trailingTag(j) = j + Mt, for trailing column broadcasts (step
//     5b), j in [0, Nt).
//
// rowTag and lookaheadTag share numeric range [0, max(Mt,Nt)) but never
// collide in practice: a row broadcast's (src, dst) pair is keyed by
// row i's owners, a lookahead broadcast's by column j's owners, and
// within one iteration a row index and a column index name disjoint
// broadcast operations even when numerically equal.
func rowTag(i int) comm.Tag { return comm.Tag(i) }

func lookaheadTag(j int) comm.Tag { return comm.Tag(j) }

func trailingTag(j, mt int) comm.Tag { return comm.Tag(j + mt) }

func panelDiagTag(k, mt, nt int) comm.Tag { return comm.Tag(mt + nt + k) }
