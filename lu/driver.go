package lu

import (
	"context"
	"fmt"

	"github.com/dbielich/slate/diag"
	"github.com/dbielich/slate/dmatrix"
	"github.com/dbielich/slate/kernel"
	"github.com/dbielich/slate/scheduler"
	"github.com/dbielich/slate/tile"
)

// Run factors A in place via right-looking LU without pivoting
// (spec.md §4.6). Every process sharing A must call Run with equivalent
// options; the driver submits the same sequence of tasks on every
// process, but a task's body only performs real compute for tiles the
// calling process owns, and broadcasts no-op on processes neither
// sending nor receiving (spec.md §9).
//
// On return (whether or not a singular pivot was encountered — that is
// non-fatal per spec.md §7), every device replica has been pulled back
// to its host origin.
func Run[S tile.Scalar](ctx context.Context, A *dmatrix.Matrix[S], opts ...Option) error {
	o, err := Resolve(opts...)
	if err != nil {
		return err
	}

	adapterOpts := []kernel.AdapterOption{
		kernel.WithMaxPanelThreads(o.MaxPanelThreads),
	}
	if o.Target == kernel.Devices {
		adapterOpts = append(adapterOpts, kernel.WithDeviceCount(o.DeviceCount))
	}
	adapter, err := kernel.NewAdapter[S](o.Target, adapterOpts...)
	if err != nil {
		return err
	}

	sched, err := scheduler.New(ctx, o.Workers)
	if err != nil {
		return err
	}

	Mt, Nt := A.Shape()
	kmax := Mt
	if Nt < kmax {
		kmax = Nt
	}

	d := &driver[S]{A: A, adapter: adapter, sched: sched, opts: o, Mt: Mt, Nt: Nt}
	for k := 0; k < kmax; k++ {
		if err := d.submitIteration(ctx, k); err != nil {
			return err
		}
	}

	if err := sched.Wait(); err != nil {
		return err
	}

	return A.TileUpdateAllOrigin()
}

type driver[S tile.Scalar] struct {
	A       *dmatrix.Matrix[S]
	adapter *kernel.Adapter[S]
	sched   *scheduler.Scheduler
	opts    Options
	Mt, Nt  int
}

func (d *driver[S]) submitIteration(ctx context.Context, k int) error {
	A := d.A

	if _, err := d.sched.Submit(scheduler.Task{
		Name:     fmt.Sprintf("panel-factor-%d", k),
		Priority: kernel.High,
		Deps: []scheduler.TokenRef{
			{Token: scheduler.DiagToken(k), Mode: scheduler.Out},
			{Token: scheduler.ColumnToken(k), Mode: scheduler.Out},
		},
		Run: func(ctx context.Context) error { return d.panelFactor(ctx, k) },
	}); err != nil {
		return err
	}

	if _, err := d.sched.Submit(scheduler.Task{
		Name:     fmt.Sprintf("panel-trsm-right-%d", k),
		Priority: kernel.High,
		Deps: []scheduler.TokenRef{
			{Token: scheduler.DiagToken(k), Mode: scheduler.In},
			{Token: scheduler.ColumnToken(k), Mode: scheduler.Out},
		},
		Run: func(ctx context.Context) error { return d.panelTrsmRight(ctx, k) },
	}); err != nil {
		return err
	}

	if _, err := d.sched.Submit(scheduler.Task{
		Name:     fmt.Sprintf("panel-row-bcast-%d", k),
		Priority: kernel.High,
		Deps: []scheduler.TokenRef{
			{Token: scheduler.ColumnToken(k), Mode: scheduler.Out},
			{Token: scheduler.BandwidthToken(), Mode: scheduler.Out},
		},
		Run: func(ctx context.Context) error { return d.panelRowBcast(ctx, k) },
	}); err != nil {
		return err
	}

	lmax := k + d.opts.Lookahead
	if lmax > d.Nt-1 {
		lmax = d.Nt - 1
	}
	for j := k + 1; j <= lmax; j++ {
		if _, err := d.sched.Submit(scheduler.Task{
			Name:     fmt.Sprintf("lookahead-trsm-left-%d-%d", k, j),
			Priority: kernel.High,
			Deps: []scheduler.TokenRef{
				{Token: scheduler.DiagToken(k), Mode: scheduler.In},
				{Token: scheduler.ColumnToken(j), Mode: scheduler.Out},
			},
			Run: func(ctx context.Context) error { return d.lookaheadTrsmLeft(ctx, k, j) },
		}); err != nil {
			return err
		}

		if _, err := d.sched.Submit(scheduler.Task{
			Name:     fmt.Sprintf("lookahead-gemm-%d-%d", k, j),
			Priority: kernel.High,
			Deps: []scheduler.TokenRef{
				{Token: scheduler.ColumnToken(k), Mode: scheduler.In},
				{Token: scheduler.ColumnToken(j), Mode: scheduler.Out},
			},
			Run: func(ctx context.Context) error { return d.lookaheadGemm(ctx, k, j) },
		}); err != nil {
			return err
		}
	}

	trailStart := k + 1 + d.opts.Lookahead
	if trailStart < d.Nt {
		trailDeps := make([]scheduler.TokenRef, 0, 2+(d.Nt-trailStart))
		trailDeps = append(trailDeps, scheduler.TokenRef{Token: scheduler.DiagToken(k), Mode: scheduler.In})
		for j := trailStart; j < d.Nt; j++ {
			trailDeps = append(trailDeps, scheduler.TokenRef{Token: scheduler.ColumnToken(j), Mode: scheduler.Out})
		}

		if _, err := d.sched.Submit(scheduler.Task{
			Name:     fmt.Sprintf("trailing-trsm-left-%d", k),
			Priority: kernel.Normal,
			Deps:     trailDeps,
			Run:      func(ctx context.Context) error { return d.trailingTrsmLeft(ctx, k, trailStart) },
		}); err != nil {
			return err
		}

		bcastDeps := append([]scheduler.TokenRef{{Token: scheduler.BandwidthToken(), Mode: scheduler.Out}}, trailDeps[1:]...)
		if _, err := d.sched.Submit(scheduler.Task{
			Name:     fmt.Sprintf("trailing-row-bcast-%d", k),
			Priority: kernel.Normal,
			Deps:     bcastDeps,
			Run:      func(ctx context.Context) error { return d.trailingRowBcast(ctx, k, trailStart) },
		}); err != nil {
			return err
		}

		gemmDeps := append([]scheduler.TokenRef{{Token: scheduler.ColumnToken(k), Mode: scheduler.In}}, trailDeps[1:]...)
		if _, err := d.sched.Submit(scheduler.Task{
			Name:     fmt.Sprintf("trailing-gemm-%d", k),
			Priority: kernel.Normal,
			Deps:     gemmDeps,
			Run:      func(ctx context.Context) error { return d.trailingGemm(ctx, k, trailStart) },
		}); err != nil {
			return err
		}
	}

	if d.opts.Target == kernel.Devices {
		// InOut, not In: release must run after every reader of
		// column[k] already submitted this iteration (lookahead and
		// trailing gemm), not just after the last writer, since it
		// invalidates the device replicas those readers consume.
		if _, err := d.sched.Submit(scheduler.Task{
			Name:     fmt.Sprintf("release-%d", k),
			Priority: kernel.Normal,
			Deps: []scheduler.TokenRef{
				{Token: scheduler.ColumnToken(k), Mode: scheduler.InOut},
			},
			Run: func(ctx context.Context) error { return d.release(k) },
		}); err != nil {
			return err
		}
	}

	return nil
}

func (d *driver[S]) panelFactor(ctx context.Context, k int) error {
	A := d.A
	if A.IsLocal(k, k) {
		t, err := A.LocalTile(k, k)
		if err != nil {
			return err
		}
		col, err := d.adapter.Getrf(ctx, t, d.opts.InnerBlocking, kernel.High)
		if err != nil {
			return err
		}
		if col >= 0 {
			_, nb, err := A.TileShape(0, 0)
			if err != nil {
				return err
			}
			diag.SingularPivot(d.opts.Logger, k*nb+col)
		}
	}

	dest, err := A.Sub(k, d.Mt, k, d.Nt)
	if err != nil {
		return err
	}

	return A.TileBcast(ctx, k, k, dest, panelDiagTag(k, d.Mt, d.Nt))
}

func (d *driver[S]) panelTrsmRight(ctx context.Context, k int) error {
	A := d.A
	for i := k + 1; i < d.Mt; i++ {
		if !A.IsLocal(i, k) {
			continue
		}
		u, err := A.Replica(k, k, tile.HostDevice)
		if err != nil {
			return err
		}
		m, err := A.LocalTile(i, k)
		if err != nil {
			return err
		}
		if err := d.adapter.TrsmRight(ctx, u, m, kernel.High); err != nil {
			return err
		}
	}

	return nil
}

func (d *driver[S]) panelRowBcast(ctx context.Context, k int) error {
	A := d.A
	for i := k + 1; i < d.Mt; i++ {
		dest, err := A.Sub(i, i+1, k+1, d.Nt)
		if err != nil {
			return err
		}
		if err := A.TileBcast(ctx, i, k, dest, rowTag(i)); err != nil {
			return err
		}
	}

	return nil
}

func (d *driver[S]) lookaheadTrsmLeft(ctx context.Context, k, j int) error {
	A := d.A
	if A.IsLocal(k, j) {
		l, err := A.Replica(k, k, tile.HostDevice)
		if err != nil {
			return err
		}
		t, err := A.LocalTile(k, j)
		if err != nil {
			return err
		}
		if err := d.adapter.TrsmLeft(ctx, l, t, kernel.High); err != nil {
			return err
		}
	}

	dest, err := A.Sub(k+1, d.Mt, j, j+1)
	if err != nil {
		return err
	}

	return A.TileBcast(ctx, k, j, dest, lookaheadTag(j))
}

func (d *driver[S]) lookaheadGemm(ctx context.Context, k, j int) error {
	A := d.A
	for i := k + 1; i < d.Mt; i++ {
		if !A.IsLocal(i, j) {
			continue
		}
		a, err := A.Replica(i, k, tile.HostDevice)
		if err != nil {
			return err
		}
		b, err := A.Replica(k, j, tile.HostDevice)
		if err != nil {
			return err
		}
		c, err := A.LocalTile(i, j)
		if err != nil {
			return err
		}
		if err := d.adapter.Gemm(ctx, c, a, b, kernel.High); err != nil {
			return err
		}
	}

	return nil
}

func (d *driver[S]) trailingTrsmLeft(ctx context.Context, k, trailStart int) error {
	A := d.A
	for j := trailStart; j < d.Nt; j++ {
		if !A.IsLocal(k, j) {
			continue
		}
		l, err := A.Replica(k, k, tile.HostDevice)
		if err != nil {
			return err
		}
		t, err := A.LocalTile(k, j)
		if err != nil {
			return err
		}
		if err := d.adapter.TrsmLeft(ctx, l, t, kernel.Normal); err != nil {
			return err
		}
	}

	return nil
}

func (d *driver[S]) trailingRowBcast(ctx context.Context, k, trailStart int) error {
	A := d.A
	for j := trailStart; j < d.Nt; j++ {
		dest, err := A.Sub(k+1, d.Mt, j, j+1)
		if err != nil {
			return err
		}
		if err := A.TileBcast(ctx, k, j, dest, trailingTag(j, d.Mt)); err != nil {
			return err
		}
	}

	return nil
}

func (d *driver[S]) trailingGemm(ctx context.Context, k, trailStart int) error {
	A := d.A
	if d.opts.Target == kernel.HostBatch {
		bs := (d.Mt - k - 1) * (d.Nt - trailStart)
		if err := A.AllocateBatchArrays(bs, 2); err != nil {
			return err
		}
	}
	for j := trailStart; j < d.Nt; j++ {
		for i := k + 1; i < d.Mt; i++ {
			if !A.IsLocal(i, j) {
				continue
			}
			a, err := A.Replica(i, k, tile.HostDevice)
			if err != nil {
				return err
			}
			b, err := A.Replica(k, j, tile.HostDevice)
			if err != nil {
				return err
			}
			c, err := A.LocalTile(i, j)
			if err != nil {
				return err
			}
			if err := d.adapter.Gemm(ctx, c, a, b, kernel.Normal); err != nil {
				return err
			}
			if d.opts.Target == kernel.HostBatch {
				A.RecordBatchDescriptor(i, j, [2]int{i, k}, [2]int{k, j})
			}
		}
	}

	return nil
}

// release drops this process's device holds on column k (spec.md §4.6
// step 6, device target only): the panel tiles column[k] covers will
// not be referenced again once the trailing update reading them has run.
func (d *driver[S]) release(k int) error {
	A := d.A
	for idx := 0; idx < d.adapter.DeviceCount(); idx++ {
		dev := tile.Device(idx)
		for i := k; i < d.Mt; i++ {
			if err := A.DropReplica(i, k, dev); err != nil {
				return fmt.Errorf("lu: release column %d: %w", k, err)
			}
		}
	}

	return nil
}
