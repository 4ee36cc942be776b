package kernel

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dbielich/slate/errtax"
	"github.com/dbielich/slate/tile"
)

// trsmLeftCols runs TrsmLeftLowerUnit's column loop restricted to
// [j0, j1); each column of m is solved independently, so column chunks
// may run concurrently without synchronization.
func trsmLeftCols[S tile.Scalar](l, m *tile.Tile[S], j0, j1 int) error {
	rows := m.Rows()
	for c := j0; c < j1; c++ {
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

// trsmRightRows runs TrsmRightUpperNonUnit's row loop restricted to
// [i0, i1); each row of m is solved independently of every other row.
func trsmRightRows[S tile.Scalar](u, m *tile.Tile[S], i0, i1 int) error {
	cols := m.Cols()
	for i := i0; i < i1; i++ {
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

// gemmSubCols runs GemmSub's update restricted to output columns
// [j0, j1); each column of c is updated independently.
func gemmSubCols[S tile.Scalar](c, a, b *tile.Tile[S], j0, j1 int) error {
	m, p := a.Rows(), a.Cols()
	for j := j0; j < j1; j++ {
		for i := 0; i < m; i++ {
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

// getrfNoPivotNested runs GetrfNoPivot's recurrence with the inner
// trailing-update loop (fixed i, varying j > i) fanned out across up to
// maxThreads goroutines: for a fixed pivot row i, each j's update is
// independent of every other j.
func getrfNoPivotNested[S tile.Scalar](ctx context.Context, t *tile.Tile[S], ib, maxThreads int) (int, error) {
	n := t.Rows()
	if n != t.Cols() {
		return -1, fmt.Errorf("kernel.getrfNoPivotNested: %dx%d: %w: %w", t.Rows(), t.Cols(), ErrNonSquare, errtax.ErrInvalidArgument)
	}
	if maxThreads < 1 {
		maxThreads = 1
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
			continue
		}

		rows := n - (i + 1)
		if rows <= 0 {
			continue
		}
		chunks := maxThreads
		if chunks > rows {
			chunks = rows
		}
		g, _ := errgroup.WithContext(ctx)
		size := (rows + chunks - 1) / chunks
		for start := 0; start < rows; start += size {
			start := start
			end := start + size
			if end > rows {
				end = rows
			}
			i, pivot := i, pivot
			g.Go(func() error {
				for jj := start; jj < end; jj++ {
					j := i + 1 + jj
					aji, err := t.At(j, i)
					if err != nil {
						return err
					}
					lji := aji / pivot
					if err := t.Set(j, i, lji); err != nil {
						return err
					}
					for k := i + 1; k < n; k++ {
						ajk, _ := t.At(j, k)
						aik, _ := t.At(i, k)
						if err := t.Set(j, k, ajk-lji*aik); err != nil {
							return err
						}
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return singularCol, err
		}
	}
	t.MarkModified()
	t.SetOrigin()

	return singularCol, nil
}
