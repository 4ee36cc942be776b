package dmatrix

import (
	"github.com/dbielich/slate/comm"
	"github.com/dbielich/slate/tile"
)

// MatrixView is a sub-matrix window over a Matrix's tile grid. It never
// copies storage: Sub, Transpose, and ConjTranspose all return new
// MatrixView values that alias the same parent and compose in O(1)
// (spec.md §4.2).
//
// i0,i1,j0,j1 always bound the view in the PARENT's storage tile-index
// space. trans only changes how logical (row, col) coordinates map onto
// that storage window; it never moves the window itself.
type MatrixView[S tile.Scalar] struct {
	parent         *Matrix[S]
	i0, i1, j0, j1 int
	trans          Trans
}

// Shape returns the view's logical (rows, cols) extent in tiles, after
// accounting for any transpose.
func (v *MatrixView[S]) Shape() (int, int) {
	if v.trans == NoTrans {
		return v.i1 - v.i0, v.j1 - v.j0
	}

	return v.j1 - v.j0, v.i1 - v.i0
}

// Transpose returns a view over the same window with TransposeOp
// composed on top of the current transform.
func (v *MatrixView[S]) Transpose() *MatrixView[S] {
	return &MatrixView[S]{parent: v.parent, i0: v.i0, i1: v.i1, j0: v.j0, j1: v.j1, trans: compose(v.trans, TransposeOp)}
}

// ConjTranspose returns a view over the same window with ConjTransposeOp
// composed on top of the current transform.
func (v *MatrixView[S]) ConjTranspose() *MatrixView[S] {
	return &MatrixView[S]{parent: v.parent, i0: v.i0, i1: v.i1, j0: v.j0, j1: v.j1, trans: compose(v.trans, ConjTransposeOp)}
}

// Trans reports the view's composed transpose/conjugate-transpose state.
func (v *MatrixView[S]) Trans() Trans { return v.trans }

// Sub returns a further sub-view, with li0,li1,lj0,lj1 expressed in this
// view's own logical (post-transpose) coordinate space. Sub is idempotent
// under re-expression: v.Sub(i0,i1,j0,j1).Sub(0,i1-i0,0,j1-j0) aliases the
// identical storage window as v.Sub(i0,i1,j0,j1) (spec.md §8, scenario D).
func (v *MatrixView[S]) Sub(li0, li1, lj0, lj1 int) (*MatrixView[S], error) {
	rows, cols := v.Shape()
	if li0 < 0 || lj0 < 0 || li0 > li1 || lj0 > lj1 || li1 > rows || lj1 > cols {
		return nil, ErrBadViewBounds
	}

	var ni0, ni1, nj0, nj1 int
	if v.trans == NoTrans {
		ni0, ni1 = v.i0+li0, v.i0+li1
		nj0, nj1 = v.j0+lj0, v.j0+lj1
	} else {
		ni0, ni1 = v.i0+lj0, v.i0+lj1
		nj0, nj1 = v.j0+li0, v.j0+li1
	}

	return &MatrixView[S]{parent: v.parent, i0: ni0, i1: ni1, j0: nj0, j1: nj1, trans: v.trans}, nil
}

// storageCoord maps a logical (row, col) tile coordinate within the view
// to the parent's storage (i, j) tile coordinate.
func (v *MatrixView[S]) storageCoord(row, col int) (int, int) {
	if v.trans == NoTrans {
		return v.i0 + row, v.j0 + col
	}

	return v.i0 + col, v.j0 + row
}

// TileAt returns the origin-or-replica tile at logical (row, col) on
// device, following the parent's ownership and replica rules. When the
// view's composed transform is ConjTransposeOp, the returned tile is a
// freshly conjugated scratch copy (spec.md §4.2: "conjTranspose ...
// conjugates reads"); the parent's own replica is never mutated, so a
// real-valued parent always returns its replica unchanged and a
// ConjTranspose().ConjTranspose() view never copies at all since the
// composed transform cancels back to NoTrans/TransposeOp (see compose
// in types.go).
func (v *MatrixView[S]) TileAt(row, col int, device tile.Device) (*tile.Tile[S], error) {
	if v.parent.isReleased() {
		return nil, ErrParentReleased
	}
	i, j := v.storageCoord(row, col)
	t, err := v.parent.Replica(i, j, device)
	if err != nil {
		return nil, err
	}
	if v.trans != ConjTransposeOp {
		return t, nil
	}

	return conjugateCopy(t), nil
}

// conjugateCopy returns a new, arena-unbound tile holding the complex
// conjugate of every element of t (a no-op value copy for a real S, per
// tile.Conj). Built via tile.Wrap, the same escape hatch the wire codec
// uses for a buffer with no arena to return to.
func conjugateCopy[S tile.Scalar](t *tile.Tile[S]) *tile.Tile[S] {
	rows, cols := t.Rows(), t.Cols()
	buf := make([]S, rows*cols)
	out := tile.Wrap(buf, rows, cols, rows, tile.ColumnMajor, t.Device())
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			elem, _ := t.At(r, c)
			_ = out.Set(r, c, tile.Conj(elem))
		}
	}

	return out
}

// DestinationRanks returns the set of ranks that own at least one tile
// within the view's storage window, used to derive a broadcast's
// destination set. Order is unspecified.
func (v *MatrixView[S]) DestinationRanks() []comm.Rank {
	seen := make(map[comm.Rank]bool)
	var out []comm.Rank
	for i := v.i0; i < v.i1; i++ {
		for j := v.j0; j < v.j1; j++ {
			if !v.parent.stores(i, j) {
				continue
			}
			r := v.parent.OwnerRank(i, j)
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}

	return out
}
