package comm_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dbielich/slate/comm"
	"github.com/stretchr/testify/require"
)

func TestLocalSendRecv(t *testing.T) {
	net := comm.NewLocalNetwork(2)
	a := net.Communicator(0)
	b := net.Communicator(1)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, a.Send(context.Background(), 7, 1, []byte("hello")))
	}()

	got, err := b.Recv(context.Background(), 7, 0)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
	wg.Wait()
}

func TestLocalMulticastFansOut(t *testing.T) {
	net := comm.NewLocalNetwork(4)
	src := net.Communicator(0)

	var wg sync.WaitGroup
	results := make([][]byte, 4)
	for r := 1; r < 4; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := net.Communicator(comm.Rank(r)).Recv(context.Background(), 42, 0)
			require.NoError(t, err)
			results[r] = got
		}()
	}

	require.NoError(t, src.Multicast(context.Background(), 42, 0, []comm.Rank{1, 2, 3}, []byte("tile-data")))
	wg.Wait()
	for r := 1; r < 4; r++ {
		require.Equal(t, "tile-data", string(results[r]))
	}
}

func TestLocalMulticastEmptyDestsIsNoOp(t *testing.T) {
	net := comm.NewLocalNetwork(2)
	src := net.Communicator(0)
	require.NoError(t, src.Multicast(context.Background(), 1, 0, nil, []byte("x")))
}

func TestLocalMulticastRequiresCallerIsSrc(t *testing.T) {
	net := comm.NewLocalNetwork(2)
	notSrc := net.Communicator(1)
	err := notSrc.Multicast(context.Background(), 1, 0, []comm.Rank{0}, []byte("x"))
	require.Error(t, err)
}

func TestLocalUnknownRank(t *testing.T) {
	net := comm.NewLocalNetwork(2)
	c := net.Communicator(0)
	_, err := c.Recv(context.Background(), 1, 5)
	require.ErrorIs(t, err, comm.ErrUnknownRank)
}

func TestLocalDistinctTagsDoNotCollide(t *testing.T) {
	net := comm.NewLocalNetwork(2)
	a := net.Communicator(0)
	b := net.Communicator(1)

	require.NoError(t, a.Send(context.Background(), 1, 1, []byte("first")))
	require.NoError(t, a.Send(context.Background(), 2, 1, []byte("second")))

	got2, err := b.Recv(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Equal(t, "second", string(got2))
	got1, err := b.Recv(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Equal(t, "first", string(got1))
}
