// Package errtax holds the cross-cutting error taxonomy of spec.md §7.
// Unlike the narrower, package-local sentinel files elsewhere in this
// module (tile/errors.go, comm/errors.go, dmatrix/errors.go — each scoped
// to that package's own failure modes), these five sentinels classify
// failures at the level a caller of the engine actually cares about:
// kernel, scheduler, and lu wrap their local errors with one of these via
// fmt.Errorf's multi-%w support, so callers can errors.Is against either
// the precise cause or the coarse category.
package errtax

import "errors"

var (
	// ErrInvalidArgument covers bad dimensions, unknown enum values,
	// contradictory view bounds, and out-of-range option values. Always
	// surfaced at the entry point, before any work is submitted.
	ErrInvalidArgument = errors.New("slate: invalid argument")

	// ErrOutOfMemory covers arena exhaustion. Surfaced from the offending
	// task; the enclosing driver call fails after in-flight tasks drain.
	ErrOutOfMemory = errors.New("slate: out of memory")

	// ErrCommunicationFailure covers unrecoverable transport errors. The
	// driver call aborts; the matrix's local origins stay coherent but
	// remote replicas are undefined.
	ErrCommunicationFailure = errors.New("slate: communication failure")

	// ErrNumericSingular covers a zero pivot or zero diagonal. Non-fatal:
	// recorded on the diagnostic channel, the driver completes normally.
	ErrNumericSingular = errors.New("slate: numeric singular")

	// ErrKernelFailure covers a fatal code returned by an underlying
	// numerical kernel. The driver call aborts.
	ErrKernelFailure = errors.New("slate: kernel failure")
)
