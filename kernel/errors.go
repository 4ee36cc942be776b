// Package kernel: sentinel error set (unified, consistent). Every
// operation returns these sentinels — wrapped with errtax's coarser
// taxonomy where spec.md §7 names one — rather than panicking on
// caller-triggered conditions.
package kernel

import "errors"

var (
	// ErrNonSquare indicates Getrf was asked to factor a non-square tile.
	ErrNonSquare = errors.New("kernel: tile is not square")

	// ErrShapeMismatch indicates operand tiles have incompatible extents
	// for the requested operation (trsm, gemm).
	ErrShapeMismatch = errors.New("kernel: operand shape mismatch")

	// ErrUnsupportedTarget indicates a Target value outside the sealed
	// {HostTask, HostNest, HostBatch, Devices} variant set.
	ErrUnsupportedTarget = errors.New("kernel: unsupported target")

	// ErrNoDevices indicates a Devices-target call with no accelerator
	// registered in the Adapter's device count.
	ErrNoDevices = errors.New("kernel: no devices registered")
)
