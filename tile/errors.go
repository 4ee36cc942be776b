// Package tile: sentinel error set (unified, consistent).
// This file defines ONLY package-level sentinel errors used across the tile
// package. All operations MUST return these sentinels and tests MUST check
// them via errors.Is. No operation panics on caller-triggered error
// conditions; panics are reserved for programmer errors (invariant breaks).
package tile

import "errors"

var (
	// ErrInvalidDimensions indicates a requested tile shape is non-positive.
	ErrInvalidDimensions = errors.New("tile: rows/cols must be > 0")

	// ErrInvalidLeadingDim indicates lda < rows for a ColumnMajor tile (or
	// lda < cols for RowMajor).
	ErrInvalidLeadingDim = errors.New("tile: leading dimension smaller than extent")

	// ErrOutOfRange indicates an (row, col) index outside the tile's extent.
	ErrOutOfRange = errors.New("tile: index out of range")

	// ErrArenaExhausted is returned by Arena.Allocate when the device pool is
	// full and no freeable buffer exists.
	ErrArenaExhausted = errors.New("tile: arena exhausted")

	// ErrHeldTile indicates an operation was attempted on a tile with a
	// positive hold count. No function in this package returns it:
	// Arena.Free on a held tile returns nil and leaves the tile in place.
	ErrHeldTile = errors.New("tile: tile is held")

	// ErrForeignTile indicates a Tile was returned to an Arena that did not
	// allocate it.
	ErrForeignTile = errors.New("tile: tile not owned by this arena")

	// ErrNegativeHold indicates ReleaseHold was called more times than
	// AcquireHold.
	ErrNegativeHold = errors.New("tile: hold count would go negative")
)
