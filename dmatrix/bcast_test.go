package dmatrix_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbielich/slate/comm"
	"github.com/dbielich/slate/dmatrix"
	"github.com/dbielich/slate/errtax"
)

// newDistributed builds one Matrix per rank over a shared LocalNetwork,
// mirroring how the lu driver's SPMD ranks each construct their own
// Matrix handle bound to the same process grid.
func newDistributed(t *testing.T, mg, ng, mb, nb, p, q int) ([]*dmatrix.Matrix[float64], *comm.LocalNetwork) {
	t.Helper()
	net := comm.NewLocalNetwork(p * q)
	grid := dmatrix.ProcessGrid{P: p, Q: q}
	mats := make([]*dmatrix.Matrix[float64], p*q)
	for r := 0; r < p*q; r++ {
		m, err := dmatrix.New[float64](mg, ng, mb, nb, grid, net.Communicator(comm.Rank(r)))
		require.NoError(t, err)
		mats[r] = m
	}

	return mats, net
}

func TestTileBcastDeliversToAllDestinations(t *testing.T) {
	mats, _ := newDistributed(t, 8, 8, 2, 2, 2, 2)

	owner := mats[0].OwnerRank(0, 0)
	ownerM := mats[owner]
	origin, err := ownerM.LocalTile(0, 0)
	require.NoError(t, err)
	require.NoError(t, origin.Set(0, 0, 9.25))

	var wg sync.WaitGroup
	errs := make([]error, len(mats))
	for r, m := range mats {
		wg.Add(1)
		go func(r int, m *dmatrix.Matrix[float64]) {
			defer wg.Done()
			dest, err := m.Sub(0, 2, 0, 2)
			if err != nil {
				errs[r] = err
				return
			}
			errs[r] = m.TileBcast(context.Background(), 0, 0, dest, comm.Tag(0))
		}(r, m)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	for r, m := range mats {
		repl, err := m.Replica(0, 0, -1) // tile.HostDevice
		require.NoError(t, err, "rank %d should hold a replica", r)
		v, err := repl.At(0, 0)
		require.NoError(t, err)
		require.InDelta(t, 9.25, v, 1e-12)
	}
}

func TestTileBcastWrapsCommunicationFailureOnRecvTimeout(t *testing.T) {
	mats, _ := newDistributed(t, 4, 4, 2, 2, 1, 2)
	recipient := mats[1]

	dest, err := recipient.Sub(0, 2, 0, 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // no sender will ever run; Recv must see ctx.Done() immediately

	err = recipient.TileBcast(ctx, 0, 0, dest, comm.Tag(0))
	require.ErrorIs(t, err, comm.ErrCommunicationFailure)
	require.ErrorIs(t, err, errtax.ErrCommunicationFailure)
}

func TestTileBcastEmptyDestIsNoOp(t *testing.T) {
	mats, _ := newDistributed(t, 4, 4, 2, 2, 1, 1)
	m := mats[0]
	origin, err := m.LocalTile(0, 0)
	require.NoError(t, err)
	require.NoError(t, origin.Set(0, 0, 1))

	empty, err := m.Sub(0, 0, 0, 0)
	require.NoError(t, err)
	require.NoError(t, m.TileBcast(context.Background(), 0, 0, empty, comm.Tag(0)))
}

func TestListBcastMTDeliversDisjointTiles(t *testing.T) {
	mats, _ := newDistributed(t, 4, 4, 2, 2, 2, 1)

	for i := 0; i < 2; i++ {
		owner := mats[0].OwnerRank(i, 0)
		origin, err := mats[owner].LocalTile(i, 0)
		require.NoError(t, err)
		require.NoError(t, origin.Set(0, 0, float64(i+1)))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(mats))
	for r, m := range mats {
		wg.Add(1)
		go func(r int, m *dmatrix.Matrix[float64]) {
			defer wg.Done()
			dest, err := m.Sub(0, 2, 0, 1)
			if err != nil {
				errs[r] = err
				return
			}
			records := []dmatrix.BcastRecord[float64]{
				{SrcI: 0, SrcJ: 0, Dest: dest, Tag: comm.Tag(100)},
				{SrcI: 1, SrcJ: 0, Dest: dest, Tag: comm.Tag(101)},
			}
			errs[r] = m.ListBcastMT(context.Background(), records)
		}(r, m)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	for r, m := range mats {
		r0, err := m.Replica(0, 0, -1)
		require.NoError(t, err, "rank %d tile(0,0)", r)
		v0, _ := r0.At(0, 0)
		require.InDelta(t, 1.0, v0, 1e-12)

		r1, err := m.Replica(1, 0, -1)
		require.NoError(t, err, "rank %d tile(1,0)", r)
		v1, _ := r1.At(0, 0)
		require.InDelta(t, 2.0, v1, 1e-12)
	}
}
