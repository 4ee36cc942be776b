package kernel

import (
	"fmt"

	"github.com/dbielich/slate/errtax"
	"github.com/dbielich/slate/tile"
)

// GetrfNoPivot factors t in place: right-looking Doolittle recurrence
// with no partial pivoting, generalized from the single-tile Doolittle
// decomposition of the teacher's matrix/ops/lu.go to an in-place
// triangular overwrite (L's unit diagonal is implicit and never stored,
// matching spec.md §3's pivot-vector-present-but-empty model for the
// non-pivoted variant). ib is the inner blocking width; it must be
// positive and does not otherwise affect the loop order or the result.
//
// Returns the column index of the first exactly-zero pivot encountered,
// or -1 if none. A zero pivot is NOT an error (spec.md §4.6 "the
// factorization proceeds but the result is singular") — callers consult
// the returned index to drive the diagnostic channel.
func GetrfNoPivot[S tile.Scalar](t *tile.Tile[S], ib int) (int, error) {
	n := t.Rows()
	if n != t.Cols() {
		return -1, fmt.Errorf("kernel.GetrfNoPivot: %dx%d: %w: %w", t.Rows(), t.Cols(), ErrNonSquare, errtax.ErrInvalidArgument)
	}
	if ib <= 0 {
		return -1, fmt.Errorf("kernel.GetrfNoPivot: inner blocking %d <= 0: %w", ib, errtax.ErrInvalidArgument)
	}

	singularCol := -1
	var zero S
	for i := 0; i < n; i++ {
		pivot, err := t.At(i, i)
		if err != nil {
			return singularCol, err
		}
		if pivot == zero {
			if singularCol < 0 {
				singularCol = i
			}
			continue // leave the column as-is; no multipliers are formed from a zero pivot, and the factorization goes on with the next column
		}
		for j := i + 1; j < n; j++ {
			aji, err := t.At(j, i)
			if err != nil {
				return singularCol, err
			}
			lji := aji / pivot
			if err := t.Set(j, i, lji); err != nil {
				return singularCol, err
			}
			for k := i + 1; k < n; k++ {
				ajk, _ := t.At(j, k)
				aik, _ := t.At(i, k)
				if err := t.Set(j, k, ajk-lji*aik); err != nil {
					return singularCol, err
				}
			}
		}
	}
	t.MarkModified()
	t.SetOrigin()

	return singularCol, nil
}

// GetrfNoPivotStrict wraps GetrfNoPivot for a caller that wants to fail
// fast on a singular pivot instead of going through the driver's
// diagnostic channel (spec.md §7's ErrNumericSingular is reserved for
// exactly this direct, lower-level entry point; lu.Run itself never
// returns it, since its own panelFactor step reports through diag.Hook
// and completes normally per spec.md §4.6).
func GetrfNoPivotStrict[S tile.Scalar](t *tile.Tile[S], ib int) error {
	col, err := GetrfNoPivot(t, ib)
	if err != nil {
		return err
	}
	if col >= 0 {
		return fmt.Errorf("kernel.GetrfNoPivotStrict: zero pivot at column %d: %w", col, errtax.ErrNumericSingular)
	}

	return nil
}

// TrsmLeftLowerUnit solves L*X = B in place on m (B overwritten with X),
// where l is an m x m unit-lower-triangular tile (diagonal implicitly 1,
// never read). Used by the lu driver's lookahead and trailing-block
// trsm-left steps (spec.md §4.6 steps 4a, 5a).
func TrsmLeftLowerUnit[S tile.Scalar](l, m *tile.Tile[S]) error {
	if l.Rows() != l.Cols() {
		return fmt.Errorf("kernel.TrsmLeftLowerUnit: L is %dx%d: %w: %w", l.Rows(), l.Cols(), ErrNonSquare, errtax.ErrInvalidArgument)
	}
	if l.Rows() != m.Rows() {
		return fmt.Errorf("kernel.TrsmLeftLowerUnit: L rows %d != M rows %d: %w: %w", l.Rows(), m.Rows(), ErrShapeMismatch, errtax.ErrInvalidArgument)
	}

	rows, cols := m.Rows(), m.Cols()
	for c := 0; c < cols; c++ {
		for i := 0; i < rows; i++ {
			b, err := m.At(i, c)
			if err != nil {
				return err
			}
			for k := 0; k < i; k++ {
				lik, _ := l.At(i, k)
				xk, _ := m.At(k, c)
				b -= lik * xk
			}
			if err := m.Set(i, c, b); err != nil {
				return err
			}
		}
	}
	m.MarkModified()
	m.SetOrigin()

	return nil
}

// TrsmRightUpperNonUnit solves X*U = B in place on m (B overwritten with
// X), where u is an n x n upper-triangular non-unit tile. Used by the
// panel trsm-right step (spec.md §4.6 step 2): A(k+1:,k) treated as B,
// A(k,k) as U.
func TrsmRightUpperNonUnit[S tile.Scalar](u, m *tile.Tile[S]) error {
	if u.Rows() != u.Cols() {
		return fmt.Errorf("kernel.TrsmRightUpperNonUnit: U is %dx%d: %w: %w", u.Rows(), u.Cols(), ErrNonSquare, errtax.ErrInvalidArgument)
	}
	if u.Rows() != m.Cols() {
		return fmt.Errorf("kernel.TrsmRightUpperNonUnit: U rows %d != M cols %d: %w: %w", u.Rows(), m.Cols(), ErrShapeMismatch, errtax.ErrInvalidArgument)
	}

	rows, cols := m.Rows(), m.Cols()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			b, err := m.At(i, j)
			if err != nil {
				return err
			}
			for k := 0; k < j; k++ {
				xik, _ := m.At(i, k)
				ukj, _ := u.At(k, j)
				b -= xik * ukj
			}
			ujj, err := u.At(j, j)
			if err != nil {
				return err
			}
			if err := m.Set(i, j, b/ujj); err != nil {
				return err
			}
		}
	}
	m.MarkModified()
	m.SetOrigin()

	return nil
}

// GemmSub computes c ← c - a*b in place, where a is m x p, b is p x n,
// and c is m x n. Used by the lu driver's trailing-update steps (spec.md
// §4.6 steps 4b, 5c).
func GemmSub[S tile.Scalar](c, a, b *tile.Tile[S]) error {
	if a.Rows() != c.Rows() || b.Cols() != c.Cols() || a.Cols() != b.Rows() {
		return fmt.Errorf("kernel.GemmSub: shapes a=%dx%d b=%dx%d c=%dx%d: %w: %w",
			a.Rows(), a.Cols(), b.Rows(), b.Cols(), c.Rows(), c.Cols(), ErrShapeMismatch, errtax.ErrInvalidArgument)
	}

	m, p, n := a.Rows(), a.Cols(), b.Cols()
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			cij, err := c.At(i, j)
			if err != nil {
				return err
			}
			for k := 0; k < p; k++ {
				aik, _ := a.At(i, k)
				bkj, _ := b.At(k, j)
				cij -= aik * bkj
			}
			if err := c.Set(i, j, cij); err != nil {
				return err
			}
		}
	}
	c.MarkModified()
	c.SetOrigin()

	return nil
}
