package kernel

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/dbielich/slate/errtax"
	"github.com/dbielich/slate/tile"
)

// Adapter dispatches getrf/trsm/gemm calls to one of the four targets of
// spec.md §4.4, clamping the BLAS thread count to 1 for the call's
// duration and restoring it on every exit path (spec.md §9).
type Adapter[S tile.Scalar] struct {
	target          Target
	threads         BLASThreadController
	maxPanelThreads int
	deviceCount     int
	next            uint64 // atomic round-robin counter for Devices target
}

// AdapterOption configures an Adapter at construction time.
type AdapterOption func(*adapterConfig)

type adapterConfig struct {
	threads         BLASThreadController
	maxPanelThreads int
	deviceCount     int
}

// WithBLASThreadController overrides the default NoopThreadController.
func WithBLASThreadController(c BLASThreadController) AdapterOption {
	return func(cfg *adapterConfig) { cfg.threads = c }
}

// WithMaxPanelThreads bounds HostNest's inner fan-out (spec.md §4.6
// option MaxPanelThreads).
func WithMaxPanelThreads(n int) AdapterOption {
	return func(cfg *adapterConfig) { cfg.maxPanelThreads = n }
}

// WithDeviceCount sets the number of visible accelerators the Devices
// target round-robins across.
func WithDeviceCount(n int) AdapterOption {
	return func(cfg *adapterConfig) { cfg.deviceCount = n }
}

// NewAdapter constructs an Adapter bound to target.
func NewAdapter[S tile.Scalar](target Target, opts ...AdapterOption) (*Adapter[S], error) {
	if !target.valid() {
		return nil, fmt.Errorf("kernel.NewAdapter: %d: %w: %w", int(target), ErrUnsupportedTarget, errtax.ErrInvalidArgument)
	}
	cfg := adapterConfig{threads: NoopThreadController{}, maxPanelThreads: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Adapter[S]{
		target: target, threads: cfg.threads,
		maxPanelThreads: cfg.maxPanelThreads, deviceCount: cfg.deviceCount,
	}, nil
}

// Target reports the adapter's bound target.
func (ad *Adapter[S]) Target() Target { return ad.target }

// DeviceCount reports the number of accelerators the Devices target
// round-robins across, as configured via WithDeviceCount.
func (ad *Adapter[S]) DeviceCount() int { return ad.deviceCount }

func (ad *Adapter[S]) nextDevice() (tile.Device, error) {
	if ad.deviceCount <= 0 {
		return 0, fmt.Errorf("kernel: %w: %w", ErrNoDevices, errtax.ErrInvalidArgument)
	}
	idx := atomic.AddUint64(&ad.next, 1) - 1

	return tile.Device(idx % uint64(ad.deviceCount)), nil
}

// Getrf factors t in place (spec.md §4.6 step 1's inner kernel).
func (ad *Adapter[S]) Getrf(ctx context.Context, t *tile.Tile[S], ib int, priority Priority) (int, error) {
	restore, err := clampThreads(ad.threads)
	if err != nil {
		return -1, err
	}
	defer restore()

	switch ad.target {
	case HostTask, HostBatch:
		// HostBatch has no gonum no-pivot getrf (see batch.go); falls
		// back to the same generic recurrence as HostTask.
		return GetrfNoPivot(t, ib)
	case HostNest:
		return getrfNoPivotNested(ctx, t, ib, ad.maxPanelThreads)
	case Devices:
		if _, err := ad.nextDevice(); err != nil {
			return -1, err
		}
		return GetrfNoPivot(t, ib)
	default:
		return -1, ErrUnsupportedTarget
	}
}

// TrsmLeft solves L*X = B in place on m (spec.md §4.6 steps 4a, 5a).
func (ad *Adapter[S]) TrsmLeft(ctx context.Context, l, m *tile.Tile[S], priority Priority) error {
	restore, err := clampThreads(ad.threads)
	if err != nil {
		return err
	}
	defer restore()

	switch ad.target {
	case HostTask:
		return TrsmLeftLowerUnit(l, m)
	case HostNest:
		return parallelCols(ctx, m.Cols(), ad.maxPanelThreads, func(j0, j1 int) error {
			return trsmLeftCols(l, m, j0, j1)
		})
	case HostBatch:
		if ll, okL := any(l).(*tile.Tile[float64]); okL {
			mm := any(m).(*tile.Tile[float64])
			return trsmLeftLowerUnitBlas64(ll, mm)
		}
		return TrsmLeftLowerUnit(l, m)
	case Devices:
		if _, err := ad.nextDevice(); err != nil {
			return err
		}
		return TrsmLeftLowerUnit(l, m)
	default:
		return ErrUnsupportedTarget
	}
}

// TrsmRight solves X*U = B in place on m (spec.md §4.6 step 2).
func (ad *Adapter[S]) TrsmRight(ctx context.Context, u, m *tile.Tile[S], priority Priority) error {
	restore, err := clampThreads(ad.threads)
	if err != nil {
		return err
	}
	defer restore()

	switch ad.target {
	case HostTask:
		return TrsmRightUpperNonUnit(u, m)
	case HostNest:
		return parallelRows(ctx, m.Rows(), ad.maxPanelThreads, func(i0, i1 int) error {
			return trsmRightRows(u, m, i0, i1)
		})
	case HostBatch:
		if uu, okU := any(u).(*tile.Tile[float64]); okU {
			mm := any(m).(*tile.Tile[float64])
			return trsmRightUpperNonUnitBlas64(uu, mm)
		}
		return TrsmRightUpperNonUnit(u, m)
	case Devices:
		if _, err := ad.nextDevice(); err != nil {
			return err
		}
		return TrsmRightUpperNonUnit(u, m)
	default:
		return ErrUnsupportedTarget
	}
}

// Gemm computes c ← c - a*b in place (spec.md §4.6 steps 4b, 5c).
func (ad *Adapter[S]) Gemm(ctx context.Context, c, a, b *tile.Tile[S], priority Priority) error {
	restore, err := clampThreads(ad.threads)
	if err != nil {
		return err
	}
	defer restore()

	switch ad.target {
	case HostTask:
		return GemmSub(c, a, b)
	case HostNest:
		return parallelCols(ctx, c.Cols(), ad.maxPanelThreads, func(j0, j1 int) error {
			return gemmSubCols(c, a, b, j0, j1)
		})
	case HostBatch:
		if aa, okA := any(a).(*tile.Tile[float64]); okA {
			bb := any(b).(*tile.Tile[float64])
			cc := any(c).(*tile.Tile[float64])
			return gemmBlas64(cc, aa, bb)
		}
		return GemmSub(c, a, b)
	case Devices:
		if _, err := ad.nextDevice(); err != nil {
			return err
		}
		return GemmSub(c, a, b)
	default:
		return ErrUnsupportedTarget
	}
}

// parallelCols splits [0, n) into up to maxThreads column chunks and runs
// fn over each concurrently via an errgroup, following the same
// goroutine-fan-out idiom dmatrix.ListBcastMT and scheduler use.
func parallelCols(ctx context.Context, n, maxThreads int, fn func(j0, j1 int) error) error {
	return parallelChunks(ctx, n, maxThreads, fn)
}

// parallelRows splits [0, n) into up to maxThreads row chunks.
func parallelRows(ctx context.Context, n, maxThreads int, fn func(i0, i1 int) error) error {
	return parallelChunks(ctx, n, maxThreads, fn)
}

func parallelChunks(ctx context.Context, n, maxThreads int, fn func(a, b int) error) error {
	if maxThreads < 1 {
		maxThreads = 1
	}
	chunks := maxThreads
	if chunks > n {
		chunks = n
	}
	if chunks <= 1 {
		return fn(0, n)
	}

	g, _ := errgroup.WithContext(ctx)
	size := (n + chunks - 1) / chunks
	for start := 0; start < n; start += size {
		start := start
		end := start + size
		if end > n {
			end = n
		}
		g.Go(func() error { return fn(start, end) })
	}

	return g.Wait()
}
