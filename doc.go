// Package slate is a distributed, tile-based dense linear-algebra
// factorization engine: a right-looking LU factorization without
// pivoting, modeled on the SLATE project's tile/process-grid design.
//
// Everything lives in subpackages; this root package is documentation
// only.
//
//	tile/      — Tile and per-device memory Arena, the unit of storage
//	dmatrix/   — distributed Matrix, sub-matrix views, tile broadcast
//	comm/      — point-to-point and multicast transport between processes
//	kernel/    — getrf/trsm/gemm kernels dispatched across HostTask,
//	             HostNest, HostBatch, and Devices targets
//	scheduler/ — token-based dataflow task pool with priority scheduling
//	diag/      — the non-fatal diagnostic channel for singular pivots
//	errtax/    — the shared cross-cutting error taxonomy
//	shim/      — interface-only compatibility surface for legacy
//	             dense-linear-algebra ABI collaborators
//	lu/        — the right-looking LU driver composing all of the above
//
// Start at lu.Run.
package slate
