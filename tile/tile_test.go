package tile_test

import (
	"errors"
	"testing"

	"github.com/dbielich/slate/tile"
	"github.com/stretchr/testify/require"
)

func TestTileSetAt(t *testing.T) {
	a := tile.NewArena[float64](tile.HostDevice, 0)
	tl, err := a.Allocate(3, 4, tile.ColumnMajor)
	require.NoError(t, err)
	require.Equal(t, 3, tl.Rows())
	require.Equal(t, 4, tl.Cols())
	require.True(t, tl.IsOrigin())

	require.NoError(t, tl.Set(1, 2, 9.5))
	v, err := tl.At(1, 2)
	require.NoError(t, err)
	require.Equal(t, 9.5, v)
	require.True(t, tl.Modified())
}

func TestTileOutOfRange(t *testing.T) {
	a := tile.NewArena[float64](tile.HostDevice, 0)
	tl, err := a.Allocate(2, 2, tile.ColumnMajor)
	require.NoError(t, err)

	_, err = tl.At(2, 0)
	require.True(t, errors.Is(err, tile.ErrOutOfRange))
	require.True(t, errors.Is(tl.Set(0, 5, 1), tile.ErrOutOfRange))
}

func TestTileInvalidDimensions(t *testing.T) {
	a := tile.NewArena[complex128](tile.HostDevice, 0)
	_, err := a.Allocate(0, 4, tile.ColumnMajor)
	require.True(t, errors.Is(err, tile.ErrInvalidDimensions))
}

func TestTileHoldBlocksFree(t *testing.T) {
	a := tile.NewArena[float32](tile.HostDevice, 0)
	tl, err := a.Allocate(2, 2, tile.ColumnMajor)
	require.NoError(t, err)

	tl.AcquireHold()
	require.NoError(t, a.Free(tl)) // no-op while held
	require.Equal(t, 4, a.InUse())

	require.NoError(t, tl.ReleaseHold())
	require.NoError(t, a.Free(tl))
	require.Equal(t, 0, a.InUse())
}

func TestTileReleaseHoldUnderflow(t *testing.T) {
	a := tile.NewArena[float64](tile.HostDevice, 0)
	tl, err := a.Allocate(1, 1, tile.ColumnMajor)
	require.NoError(t, err)

	require.True(t, errors.Is(tl.ReleaseHold(), tile.ErrNegativeHold))
}

func TestRealProjection(t *testing.T) {
	require.Equal(t, 3.0, tile.Real(float64(3)))
	require.Equal(t, 2.0, tile.Real(complex(2, 5)))
}
