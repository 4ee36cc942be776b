package dmatrix

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dbielich/slate/tile"
)

// wireHeader prefixes every broadcast payload so the receiver can allocate
// a tile of the right shape before decoding the element stream.
type wireHeader struct {
	Rows, Cols, LDA int32
	Layout          int32
}

func marshalTile[S tile.Scalar](t *tile.Tile[S]) ([]byte, error) {
	var buf bytes.Buffer
	hdr := wireHeader{
		Rows: int32(t.Rows()), Cols: int32(t.Cols()),
		LDA: int32(t.LeadingDim()), Layout: int32(t.Layout()),
	}
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("dmatrix: marshal header: %w", err)
	}
	for _, v := range t.Buffer() {
		if err := writeScalar(&buf, v); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func writeScalar[S tile.Scalar](buf *bytes.Buffer, v S) error {
	switch x := any(v).(type) {
	case float32:
		return binary.Write(buf, binary.LittleEndian, x)
	case float64:
		return binary.Write(buf, binary.LittleEndian, x)
	case complex64:
		if err := binary.Write(buf, binary.LittleEndian, real(x)); err != nil {
			return err
		}
		return binary.Write(buf, binary.LittleEndian, imag(x))
	case complex128:
		if err := binary.Write(buf, binary.LittleEndian, real(x)); err != nil {
			return err
		}
		return binary.Write(buf, binary.LittleEndian, imag(x))
	default:
		return fmt.Errorf("dmatrix: unsupported scalar type %T", v)
	}
}

func readScalar[S tile.Scalar](r *bytes.Reader) (S, error) {
	var zero S
	switch any(zero).(type) {
	case float32:
		var f float32
		if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
			return zero, err
		}
		return any(f).(S), nil
	case float64:
		var f float64
		if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
			return zero, err
		}
		return any(f).(S), nil
	case complex64:
		var re, im float32
		if err := binary.Read(r, binary.LittleEndian, &re); err != nil {
			return zero, err
		}
		if err := binary.Read(r, binary.LittleEndian, &im); err != nil {
			return zero, err
		}
		return any(complex(re, im)).(S), nil
	case complex128:
		var re, im float64
		if err := binary.Read(r, binary.LittleEndian, &re); err != nil {
			return zero, err
		}
		if err := binary.Read(r, binary.LittleEndian, &im); err != nil {
			return zero, err
		}
		return any(complex(re, im)).(S), nil
	default:
		return zero, fmt.Errorf("dmatrix: unsupported scalar type %T", zero)
	}
}

func unmarshalTile[S tile.Scalar](payload []byte, device tile.Device) (*tile.Tile[S], error) {
	r := bytes.NewReader(payload)
	var hdr wireHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("dmatrix: unmarshal header: %w", err)
	}
	layout := tile.Layout(hdr.Layout)
	var n int
	if layout == tile.RowMajor {
		n = (int(hdr.Rows)-1)*int(hdr.LDA) + int(hdr.Cols)
	} else {
		n = (int(hdr.Cols)-1)*int(hdr.LDA) + int(hdr.Rows)
	}
	buf := make([]S, n)
	for i := range buf {
		v, err := readScalar[S](r)
		if err != nil {
			return nil, fmt.Errorf("dmatrix: unmarshal element %d: %w", i, err)
		}
		buf[i] = v
	}

	return tile.Wrap(buf, int(hdr.Rows), int(hdr.Cols), int(hdr.LDA), layout, device), nil
}
