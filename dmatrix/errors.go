// Package dmatrix: sentinel error set (unified, consistent).
// Every algorithm in this package returns these sentinels rather than
// panicking on caller-triggered conditions; tests check them via
// errors.Is. Panics are reserved for programmer errors (broken
// invariants); a view used after its parent was released reports
// ErrParentReleased rather than panicking.
package dmatrix

import "errors"

var (
	// ErrInvalidShape indicates non-positive global or tile dimensions.
	ErrInvalidShape = errors.New("dmatrix: invalid shape")

	// ErrInvalidGrid indicates a non-positive process grid dimension.
	ErrInvalidGrid = errors.New("dmatrix: invalid process grid")

	// ErrOutOfRange indicates a tile index outside [0, Mt) x [0, Nt).
	ErrOutOfRange = errors.New("dmatrix: tile index out of range")

	// ErrBadViewBounds indicates contradictory or out-of-range view bounds.
	ErrBadViewBounds = errors.New("dmatrix: contradictory view bounds")

	// ErrNotLocal indicates an operation required local ownership of a
	// tile that is owned by a different process.
	ErrNotLocal = errors.New("dmatrix: tile not owned by this process")

	// ErrNoReplica indicates a tile was requested from the replica table
	// but no replica (and no local origin) has ever been received.
	ErrNoReplica = errors.New("dmatrix: no replica available")

	// ErrParentReleased indicates a MatrixView was used after its parent
	// Matrix was released, violating invariant I4 ("a sub-matrix view
	// never outlives its parent").
	ErrParentReleased = errors.New("dmatrix: parent matrix was released")

	// ErrRestrictedTile indicates an access to a tile that a
	// specialization (Triangular/Hermitian/Band) does not materially
	// store, e.g. the strict lower triangle of an Upper-triangular
	// matrix.
	ErrRestrictedTile = errors.New("dmatrix: tile not stored by this specialization")

	// ErrUnsupportedLayout indicates a FromUserLayout call whose lld is
	// smaller than the tile's row extent, or whose buffer is too short to
	// hold a local tile.
	ErrUnsupportedLayout = errors.New("dmatrix: leading dimension too small for block-cyclic layout")

	// ErrInvalidBatchSize indicates a negative batch size or operand
	// count passed to AllocateBatchArrays.
	ErrInvalidBatchSize = errors.New("dmatrix: invalid batch array size")
)
