package dmatrix_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbielich/slate/comm"
	"github.com/dbielich/slate/dmatrix"
)

func TestFromUserLayoutAliasesBuffer(t *testing.T) {
	// 4x4 global, 2x2 tiles, single-process grid: local buffer is just the
	// whole matrix, column-major with lld=4.
	net := comm.NewLocalNetwork(1)
	buf := make([]float64, 16)
	m, err := dmatrix.FromUserLayout[float64](4, 4, buf, 4, 2, 2, dmatrix.ProcessGrid{P: 1, Q: 1}, net.Communicator(0))
	require.NoError(t, err)

	tl, err := m.LocalTile(1, 1)
	require.NoError(t, err)
	require.NoError(t, tl.Set(0, 0, 7))

	// Element (1,1)'s tile starts at global row 2, col 2: flat offset
	// col*lld+row = 2*4+2 = 10.
	require.InDelta(t, 7.0, buf[10], 1e-12)
}

func TestFromUserLayoutRejectsShortLeadingDim(t *testing.T) {
	net := comm.NewLocalNetwork(1)
	buf := make([]float64, 16)
	_, err := dmatrix.FromUserLayout[float64](4, 4, buf, 1, 2, 2, dmatrix.ProcessGrid{P: 1, Q: 1}, net.Communicator(0))
	require.ErrorIs(t, err, dmatrix.ErrUnsupportedLayout)
}
