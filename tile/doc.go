// Package tile defines the unit of ownership, placement, and communication
// for the distributed factorization engine: a contiguous rectangular block
// of scalars with a known stride, device placement, and mutability flags.
//
// A Tile is created either by a distributed matrix factory (dmatrix) or by a
// kernel adapter asking for scratch space, and is destroyed once its hold
// count reaches zero and no pending task references it (see Arena).
//
// Tiles are generic over the four supported scalar types: real32, real64,
// complex64, complex128. The Scalar constraint lives here so every other
// package (dmatrix, kernel, lu) can share one type parameter.
package tile
