// Package tile: per-device memory arena.
//
// Arena vends tile-sized buffers and reclaims them (spec.md §4.1). Each
// device (host or accelerator) owns one Arena; internally it is protected
// by a single mutex, following the teacher's habit of a focused lock per
// concern (core.Graph separates muVert from muEdgeAdj; here there is only
// one concern — the free-list and the element budget — so one mutex suffices).
package tile

import "sync"

// Arena is a per-device pool that allocates Tile buffers up to an element
// budget and reclaims freed ones for reuse, avoiding repeated host/device
// allocation churn across driver iterations.
type Arena[S Scalar] struct {
	mu        sync.Mutex
	device    Device
	limit     int                // max elements outstanding; 0 means unbounded
	used      int                // elements currently held by live tiles
	freeList  map[int][][]S      // bucketed by capacity (mb*lda), LIFO reuse
	scratch   map[*Tile[S]]bool  // live tiles allocated by this arena
}

// NewArena creates an Arena for the given device. A limit of 0 means the
// arena never reports ErrArenaExhausted on element-count grounds (the
// caller relies on the underlying allocator / accelerator driver for real
// exhaustion signals).
func NewArena[S Scalar](device Device, limit int) *Arena[S] {
	return &Arena[S]{
		device:   device,
		limit:    limit,
		freeList: make(map[int][][]S),
		scratch:  make(map[*Tile[S]]bool),
	}
}

// Device returns the device this arena serves.
func (a *Arena[S]) Device() Device { return a.device }

// InUse returns the number of scalar elements currently held by live tiles.
func (a *Arena[S]) InUse() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.used
}

// Allocate returns a Tile[S] of shape (mb, nb) resident on this arena's
// device, reusing a freed buffer of the right capacity when one exists.
// Fails with ErrArenaExhausted when the arena has a nonzero limit and no
// freeable buffer can satisfy the request.
func (a *Arena[S]) Allocate(mb, nb int, layout Layout) (*Tile[S], error) {
	if mb <= 0 || nb <= 0 {
		return nil, ErrInvalidDimensions
	}
	lda := mb
	if layout == RowMajor {
		lda = nb
	}
	capacity := lda * otherExtent(mb, nb, layout)

	a.mu.Lock()
	defer a.mu.Unlock()

	var buf []S
	if bucket := a.freeList[capacity]; len(bucket) > 0 {
		buf = bucket[len(bucket)-1]
		a.freeList[capacity] = bucket[:len(bucket)-1]
		for i := range buf {
			var zero S
			buf[i] = zero
		}
	} else {
		if a.limit > 0 && a.used+capacity > a.limit {
			return nil, ErrArenaExhausted
		}
		buf = make([]S, capacity)
	}

	a.used += capacity
	t := &Tile[S]{
		mb: mb, nb: nb, lda: lda, buf: buf,
		device: a.device, layout: layout, origin: true, arena: a,
	}
	a.scratch[t] = true

	return t, nil
}

// otherExtent returns the non-leading extent of a tile's buffer: cols for
// ColumnMajor, rows for RowMajor.
func otherExtent(mb, nb int, layout Layout) int {
	if layout == RowMajor {
		return mb
	}

	return nb
}

// Free returns a tile's buffer to the arena's free list. It is a no-op
// while the tile's hold count is positive (spec.md §4.1: "holds stack;
// free is a no-op while holds > 0"). Returns ErrForeignTile if t was not
// allocated by this arena.
func (a *Arena[S]) Free(t *Tile[S]) error {
	if t.holds > 0 {
		return nil // no-op: still held
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.scratch[t] {
		return ErrForeignTile
	}
	delete(a.scratch, t)

	capacity := len(t.buf)
	a.used -= capacity
	a.freeList[capacity] = append(a.freeList[capacity], t.buf)
	t.buf = nil

	return nil
}

// AcquireHold pins t against Arena.Free (delegates to Tile.AcquireHold;
// kept on Arena too so callers can pin/release without importing both
// call sites separately).
func (a *Arena[S]) AcquireHold(t *Tile[S]) { t.AcquireHold() }

// ReleaseHold unpins t (see Tile.ReleaseHold).
func (a *Arena[S]) ReleaseHold(t *Tile[S]) error { return t.ReleaseHold() }

// CopyTo copies src's modified bytes into dst, which must have identical
// shape and layout. This is the synchronous "copy modified bytes a→b"
// step spec.md §4.1 requires before SetOrigin moves between devices; tile
// buffers are plain Go slices so this is always a same-process memcpy —
// a real accelerator backend would instead DMA and block until complete.
func CopyTo[S Scalar](dst, src *Tile[S]) error {
	if dst.mb != src.mb || dst.nb != src.nb || dst.layout != src.layout {
		return ErrInvalidDimensions
	}
	copy(dst.buf, src.buf)
	dst.modified = src.modified

	return nil
}
