package tile

import "fmt"

// Scalar is the set of scalar types the factorization engine is generic
// over: real32, real64, complex64, complex128 (spec.md §3).
type Scalar interface {
	~float32 | ~float64 | complex64 | complex128
}

// Real returns the real-type projection of a scalar value: the value
// itself for a real S, its real part for a complex S.
func Real[S Scalar](v S) float64 {
	switch x := any(v).(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	case complex64:
		return float64(real(x))
	case complex128:
		return real(x)
	default:
		return 0 // unreachable: Scalar is a closed set
	}
}

// Conj returns the complex conjugate of v, or v unchanged for a
// real-valued S (conjTranspose degenerates to transpose on a real
// matrix, spec.md §4.2).
func Conj[S Scalar](v S) S {
	switch x := any(v).(type) {
	case complex64:
		return any(complex(real(x), -imag(x))).(S)
	case complex128:
		return any(complex(real(x), -imag(x))).(S)
	default:
		return v
	}
}

// Layout is the in-memory element ordering of a Tile's buffer.
type Layout int

const (
	// ColumnMajor stores element (r,c) at offset c*lda + r.
	ColumnMajor Layout = iota
	// RowMajor stores element (r,c) at offset r*lda + c.
	RowMajor
)

// Device identifies where a Tile's buffer lives. HostDevice (-1) is the
// host; any value >= 0 names an accelerator visible to the Arena.
type Device int

// HostDevice is the sentinel Device value for host (CPU) memory.
const HostDevice Device = -1

// Tile is a contiguous rectangular block of scalars: the unit of
// ownership, placement, and communication (spec.md §3).
//
// Invariant: a tile has exactly one origin replica at any time; non-origin
// replicas are read-only unless promoted via SetOrigin. Lifetime: created
// by an Arena (directly, or via dmatrix's factory); destroyed when its
// hold count reaches zero and no pending task references it.
type Tile[S Scalar] struct {
	mb, nb   int    // rows, cols
	lda      int    // leading dimension, >= mb (ColumnMajor) or >= nb (RowMajor)
	buf      []S    // backing buffer, length >= lda * (secondary extent - 1) + primary extent
	device   Device // -1 for host, >=0 for an accelerator
	layout   Layout
	origin   bool // true if this replica is the canonical copy
	modified bool // true if written since last coherence sync
	holds    int  // stacked hold count; Free is a no-op while holds > 0
	arena    *Arena[S]
}

// Wrap constructs a Tile directly over an externally owned buffer without
// registering it with any Arena. It is the escape hatch FromUserLayout
// callers and dmatrix's broadcast wire codec use to address a caller-supplied slice
// in place: the returned tile is its own origin, has no arena, and
// Arena.Free never touches it. Callers must keep buf alive for the
// tile's lifetime.
func Wrap[S Scalar](buf []S, rows, cols, lda int, layout Layout, device Device) *Tile[S] {
	return &Tile[S]{
		mb: rows, nb: cols, lda: lda,
		buf: buf, device: device, layout: layout,
		origin: true,
	}
}

// Rows returns the tile's row extent (mb).
func (t *Tile[S]) Rows() int { return t.mb }

// Cols returns the tile's column extent (nb).
func (t *Tile[S]) Cols() int { return t.nb }

// LeadingDim returns the tile's stride between consecutive columns
// (ColumnMajor) or rows (RowMajor).
func (t *Tile[S]) LeadingDim() int { return t.lda }

// Device returns the device this tile's buffer is resident on.
func (t *Tile[S]) Device() Device { return t.device }

// Layout returns the tile's in-memory element ordering.
func (t *Tile[S]) Layout() Layout { return t.layout }

// IsOrigin reports whether this replica is the canonical copy.
func (t *Tile[S]) IsOrigin() bool { return t.origin }

// Modified reports whether the tile has been written since the last
// coherence sync on its current device.
func (t *Tile[S]) Modified() bool { return t.modified }

// Holds reports the current hold count.
func (t *Tile[S]) Holds() int { return t.holds }

// offset computes the flat buffer index for (r, c), or ErrOutOfRange.
func (t *Tile[S]) offset(r, c int) (int, error) {
	if r < 0 || r >= t.mb || c < 0 || c >= t.nb {
		return 0, fmt.Errorf("tile.offset(%d,%d): %w", r, c, ErrOutOfRange)
	}
	if t.layout == RowMajor {
		return r*t.lda + c, nil
	}

	return c*t.lda + r, nil
}

// At returns the element at (r, c).
func (t *Tile[S]) At(r, c int) (S, error) {
	idx, err := t.offset(r, c)
	if err != nil {
		var zero S
		return zero, err
	}

	return t.buf[idx], nil
}

// Set assigns v at (r, c) and marks the tile modified.
func (t *Tile[S]) Set(r, c int, v S) error {
	idx, err := t.offset(r, c)
	if err != nil {
		return err
	}
	t.buf[idx] = v
	t.modified = true

	return nil
}

// Buffer exposes the raw backing slice for kernel adapters that need a
// flat view (e.g. to hand to a BLAS call). Callers must respect Layout and
// LeadingDim when interpreting offsets.
func (t *Tile[S]) Buffer() []S { return t.buf }

// AcquireHold increments the tile's hold count, pinning it against
// Arena.Free.
func (t *Tile[S]) AcquireHold() {
	t.holds++
}

// ReleaseHold decrements the tile's hold count. Returns ErrNegativeHold if
// the count would go below zero.
func (t *Tile[S]) ReleaseHold() error {
	if t.holds <= 0 {
		return ErrNegativeHold
	}
	t.holds--

	return nil
}

// SetOrigin marks this tile as the canonical replica. Idempotent per
// device: calling it twice on a tile already on this device is a no-op.
// Transferring origin from the previous origin device requires the caller
// to have already copied the modified bytes synchronously (for example
// with CopyTo; dmatrix's TileUpdateOrigin copies a replica back into the
// host origin that way and does not call SetOrigin); tile itself does not
// perform cross-device copies, it only records the flag flip.
func (t *Tile[S]) SetOrigin() {
	t.origin = true
}

// ClearOrigin demotes this replica to non-canonical, e.g. after the
// canonical copy moved to another device.
func (t *Tile[S]) ClearOrigin() {
	t.origin = false
}

// MarkModified flags the tile as written on its current device, making its
// replicas on other devices stale per invariant I3.
func (t *Tile[S]) MarkModified() {
	t.modified = true
}

// ClearModified clears the modified flag, e.g. after a coherence sync has
// propagated the bytes elsewhere.
func (t *Tile[S]) ClearModified() {
	t.modified = false
}
