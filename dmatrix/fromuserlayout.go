package dmatrix

import (
	"github.com/dbielich/slate/comm"
	"github.com/dbielich/slate/tile"
)

// FromUserLayout wraps a caller-owned flat buffer already arranged in the
// standard ScaLAPACK-style block-cyclic local layout (spec.md §6): global
// element (r, c), when this process owns it, sits in the LOCAL compacted
// buffer at
//
//	localRow = (i/P)*mb + r%mb
//	localCol = (j/Q)*nb + c%nb
//
// where (i, j) = (r/mb, c/nb) is the tile owning (r, c), addressed
// column-major with leading dimension lld. No data is copied: the
// returned Matrix's local tiles alias buf directly via tile.Wrap, so buf
// must outlive the Matrix and must not be touched by the caller outside
// of Matrix's own tile accessors thereafter.
func FromUserLayout[S tile.Scalar](mg, ng int, buf []S, lld, mb, nb int, grid ProcessGrid, net comm.Communicator, opts ...Option) (*Matrix[S], error) {
	if mg <= 0 || ng <= 0 || mb <= 0 || nb <= 0 {
		return nil, ErrInvalidShape
	}
	if grid.P <= 0 || grid.Q <= 0 {
		return nil, ErrInvalidGrid
	}
	if lld < mb {
		return nil, ErrUnsupportedLayout
	}

	m, err := New[S](mg, ng, mb, nb, grid, net, opts...)
	if err != nil {
		return nil, err
	}

	self := net.Rank()
	prow := int(self) % grid.P
	pcol := int(self) / grid.P

	for i := 0; i < m.Mt; i++ {
		for j := 0; j < m.Nt; j++ {
			oi, oj := m.Owner(i, j)
			if oi != prow || oj != pcol {
				continue
			}
			if !m.stores(i, j) {
				continue
			}
			rows, cols, err := m.TileShape(i, j)
			if err != nil {
				return nil, err
			}
			localRow := (i / grid.P) * mb
			localCol := (j / grid.Q) * nb
			offset := localCol*lld + localRow
			end := offset + (cols-1)*lld + rows
			if end > len(buf) {
				return nil, ErrUnsupportedLayout
			}
			t := tile.Wrap(buf[offset:end], rows, cols, lld, tile.ColumnMajor, tile.HostDevice)
			m.local[tileKey{i, j}] = t
		}
	}

	return m, nil
}
