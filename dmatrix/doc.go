// Package dmatrix implements the tile-addressable distributed matrix
// substrate (spec.md §4.2): a two-dimensional grid of tiles over a
// process grid, with a per-tile ownership map, a per-tile per-device
// replica table, and sub-matrix views.
//
// Matrix[S] owns the tiles it is responsible for (one process per owner,
// per the block-cyclic distribution); every other process that has
// received a tile via a broadcast holds a non-origin replica in the same
// Matrix's replica table. A MatrixView never copies storage: it aliases
// its parent's tiles and composes transpose/conjugate-transpose state in
// O(1).
package dmatrix
