package message

import (
	"github.com/robert-malhotra/h5grove/internal/binary"
)

type DataspaceType uint8

const (
	DataspaceScalar DataspaceType = 0
	DataspaceSimple DataspaceType = 1
	DataspaceNull   DataspaceType = 2
)

// Dataspace is the shape of a dataset or attribute.
type Dataspace struct {
	Version    uint8
	Rank       int
	SpaceType  DataspaceType
	Dimensions []uint64
	// MaxDims is nil when the message leaves it out.
	MaxDims []uint64
}

func (m *Dataspace) Type() Type { return TypeDataspace }

// NumElements is 0 for a null dataspace and 1 for a scalar.
func (m *Dataspace) NumElements() uint64 {
	switch m.SpaceType {
	case DataspaceScalar:
		return 1
	case DataspaceSimple:
		if len(m.Dimensions) == 0 {
			return 0
		}
		n := uint64(1)
		for _, d := range m.Dimensions {
			n *= d
		}
		return n
	}
	return 0
}

func (m *Dataspace) IsScalar() bool {
	return m.SpaceType == DataspaceScalar
}

func parseDataspace(data []byte, r *binary.Reader) (*Dataspace, error) {
	b := newBody(data, r)
	ds := &Dataspace{Version: b.u8(), Rank: int(b.u8())}
	flags := b.u8()

	switch ds.Version {
	case 1:
		// Version 1 has no type field. Rank 0 is a scalar.
		b.skip(5)
		ds.SpaceType = DataspaceSimple
		if ds.Rank == 0 {
			ds.SpaceType = DataspaceScalar
		}
	case 2:
		ds.SpaceType = DataspaceType(b.u8())
	default:
		b.fail("unsupported dataspace version %d", ds.Version)
	}

	if ds.SpaceType == DataspaceSimple && ds.Rank > 0 {
		ds.Dimensions = make([]uint64, ds.Rank)
		for i := range ds.Dimensions {
			ds.Dimensions[i] = b.length()
		}
		if flags&0x01 != 0 {
			ds.MaxDims = make([]uint64, ds.Rank)
			for i := range ds.MaxDims {
				ds.MaxDims[i] = b.length()
			}
		}
	}
	return finish(ds, b, "dataspace")
}
