package kernel

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/dbielich/slate/errtax"
	"github.com/dbielich/slate/tile"
)

// HostBatch's real64 fast path wraps gonum's blas64 Level-3 routines
// (dtrsm/dgemm) for the trsm and gemm kernels. getrf has no batched
// acceleration here: gonum's lapack64.Getrf always returns partial
// pivots, which would silently change this engine's explicitly
// non-pivoted factorization semantics, so Getrf uses the generic
// recurrence on every target, including HostBatch (see DESIGN.md).
//
// Only real64 is wired to gonum: blas64/lapack64 operate on float64
// only, so real32/complex64/complex128 always fall back to the generic
// loop kernels regardless of target — a genuine upstream constraint of
// the gonum API, not an omission.

func toGeneral(t *tile.Tile[float64]) blas64.General {
	return blas64.General{Rows: t.Rows(), Cols: t.Cols(), Stride: t.LeadingDim(), Data: t.Buffer()}
}

// runBlas64 recovers a panic from the underlying gonum blas64 call:
// gonum panics rather than errors on a malformed operand (e.g. a
// stride/extent mismatch our own shape checks above it didn't catch),
// and that is exactly the "fatal code returned by an underlying
// numerical kernel" spec.md §7's ErrKernelFailure names.
func runBlas64(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kernel.%s: blas64 panic: %v: %w", op, r, errtax.ErrKernelFailure)
		}
	}()
	fn()

	return nil
}

func gemmBlas64(c, a, b *tile.Tile[float64]) error {
	if a.Rows() != c.Rows() || b.Cols() != c.Cols() || a.Cols() != b.Rows() {
		return fmt.Errorf("kernel.gemmBlas64: %w: %w", ErrShapeMismatch, errtax.ErrInvalidArgument)
	}
	if err := runBlas64("gemmBlas64", func() {
		blas64.Gemm(blas.NoTrans, blas.NoTrans, -1, toGeneral(a), toGeneral(b), 1, toGeneral(c))
	}); err != nil {
		return err
	}
	c.MarkModified()
	c.SetOrigin()

	return nil
}

func trsmLeftLowerUnitBlas64(l, m *tile.Tile[float64]) error {
	if l.Rows() != l.Cols() || l.Rows() != m.Rows() {
		return fmt.Errorf("kernel.trsmLeftLowerUnitBlas64: %w: %w", ErrShapeMismatch, errtax.ErrInvalidArgument)
	}
	tri := blas64.Triangular{
		Uplo: blas.Lower, Diag: blas.Unit, N: l.Rows(), Stride: l.LeadingDim(), Data: l.Buffer(),
	}
	if err := runBlas64("trsmLeftLowerUnitBlas64", func() {
		blas64.Trsm(blas.Left, blas.NoTrans, 1, tri, toGeneral(m))
	}); err != nil {
		return err
	}
	m.MarkModified()
	m.SetOrigin()

	return nil
}

func trsmRightUpperNonUnitBlas64(u, m *tile.Tile[float64]) error {
	if u.Rows() != u.Cols() || u.Rows() != m.Cols() {
		return fmt.Errorf("kernel.trsmRightUpperNonUnitBlas64: %w: %w", ErrShapeMismatch, errtax.ErrInvalidArgument)
	}
	tri := blas64.Triangular{
		Uplo: blas.Upper, Diag: blas.NonUnit, N: u.Rows(), Stride: u.LeadingDim(), Data: u.Buffer(),
	}
	if err := runBlas64("trsmRightUpperNonUnitBlas64", func() {
		blas64.Trsm(blas.Right, blas.NoTrans, 1, tri, toGeneral(m))
	}); err != nil {
		return err
	}
	m.MarkModified()
	m.SetOrigin()

	return nil
}
