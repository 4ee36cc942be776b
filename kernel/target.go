package kernel

import "fmt"

// Target is the sealed variant of execution locations a kernel adapter
// call may run under (spec.md §4.4). The driver core takes a Target
// parameter and adapters branch on it internally; there is deliberately
// no per-target driver duplication (spec.md §9).
type Target int

const (
	// HostTask runs on one host thread with a scalar kernel call.
	HostTask Target = iota
	// HostNest runs on the host with nested parallelism over inner tiles.
	HostNest
	// HostBatch runs on the host via a batched API over many small tiles.
	HostBatch
	// Devices runs accelerator-batched kernels, round-robined across
	// visible devices.
	Devices
)

// String renders the target name, used in diagnostic log fields.
func (t Target) String() string {
	switch t {
	case HostTask:
		return "HostTask"
	case HostNest:
		return "HostNest"
	case HostBatch:
		return "HostBatch"
	case Devices:
		return "Devices"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

func (t Target) valid() bool {
	return t >= HostTask && t <= Devices
}

// Priority is a task's scheduling priority (spec.md §4.5).
type Priority int

const (
	// Normal is the default priority.
	Normal Priority = iota
	// High priority runs ahead of Normal-priority runnable tasks, without
	// starving them.
	High
)

// BLASThreadController abstracts the process-wide "set the underlying
// BLAS library's thread count" knob (spec.md §4.4, §5: "the underlying
// BLAS thread-count setting, treated as process-wide state"). No vendor
// BLAS binding is in scope here (spec.md §1 lists kernel-library
// selection as an external collaborator); NoopThreadController is the
// default and a real binding implements this interface without touching
// kernel's call sites.
type BLASThreadController interface {
	// SetThreads sets the thread count to n and returns the previous
	// value.
	SetThreads(n int) (previous int, err error)
}

// NoopThreadController is a BLASThreadController that performs no actual
// clamping; it exists so the scoped-acquisition call pattern in spec.md
// §9 ("save at entry, set to 1, restore on every exit path") is always
// exercised even when no real vendor BLAS library is linked in.
type NoopThreadController struct{}

// SetThreads implements BLASThreadController by reporting n back as the
// previous value; it performs no actual clamping.
func (NoopThreadController) SetThreads(n int) (int, error) { return n, nil }

// clampThreads acquires a single-threaded BLAS context, returning a
// restore func that must run on every exit path (including errors).
func clampThreads(c BLASThreadController) (func(), error) {
	prev, err := c.SetThreads(1)
	if err != nil {
		return nil, fmt.Errorf("kernel: clamp BLAS threads: %w", err)
	}

	return func() {
		_, _ = c.SetThreads(prev)
	}, nil
}
