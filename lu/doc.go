// Package lu drives the right-looking LU factorization without pivoting
// (spec.md §4.6) over a dmatrix.Matrix: for each panel column k it
// factors the diagonal tile, solves the panel below and to the right,
// broadcasts the results, and updates the trailing submatrix, eagerly
// solving and broadcasting Lookahead trailing columns to overlap
// communication with the current panel's compute.
//
// Run submits one scheduler.Task per spec.md §4.6 step per iteration,
// uniformly on every process: a task's body is a no-op for any tile the
// calling process does not own, and dmatrix.Matrix.TileBcast is already
// safe to call from every process (it resolves its own role — owner,
// recipient, or bystander — from the caller's rank). This keeps the
// local dependency graph identical across processes while letting each
// process actually execute only the work it owns, the same "every
// process calls identically" discipline dmatrix itself follows.
//
// Options resolution (spec.md §4.7) follows the teacher's
// validate-then-default functional-options shape (matrix/types.go's
// NewMatrixOptions): invalid values fail at Run's entry, before any
// task is submitted.
package lu
