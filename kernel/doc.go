// Package kernel implements the thin, target-dispatched wrappers around
// per-tile math that spec.md §4.4 calls kernel adapters: getrf (no
// pivoting), trsm, and gemm, each runnable under one of four targets
// (HostTask, HostNest, HostBatch, Devices).
//
// Kernel adapters are deliberately lower-level than dmatrix: they accept
// already-resident tile.Tile[S] handles and never move data between
// devices themselves — "all input/output tiles are resident on target's
// device" (spec.md §4.4) is a precondition the caller (the lu driver,
// via dmatrix's replica table and Arena) must satisfy before calling in.
// What an Adapter does own is: clamping the process-wide BLAS thread
// count to 1 for the call's duration, picking the per-target execution
// strategy (serial, nested-parallel, batched, or device-dispatched), and
// marking the output tile modified with its origin updated to the
// adapter's target.
package kernel
