package message

import (
	"github.com/robert-malhotra/h5grove/internal/binary"
)

// Filter identifiers. IDs below 256 are reserved by the HDF5 library, the
// rest are registered third-party filters.
const (
	FilterDeflate     uint16 = 1
	FilterShuffle     uint16 = 2
	FilterFletcher32  uint16 = 3
	FilterSZIP        uint16 = 4
	FilterNBit        uint16 = 5
	FilterScaleOffset uint16 = 6

	FilterBZip2 uint16 = 307
	FilterLZF   uint16 = 32000
	FilterBlosc uint16 = 32001
	FilterLZ4   uint16 = 32004
)

// FilterInfo is one stage of a filter pipeline.
type FilterInfo struct {
	ID    uint16
	Flags uint16
	// Name is only stored by version 1 pipelines and third-party filters.
	Name       string
	ClientData []uint32
}

// IsOptional reports whether a chunk may skip the filter when it fails.
func (f *FilterInfo) IsOptional() bool {
	return f.Flags&0x01 != 0
}

type FilterPipeline struct {
	Version uint8
	Filters []FilterInfo
}

func (m *FilterPipeline) Type() Type { return TypeFilterPipeline }

func parseFilterPipeline(data []byte, r *binary.Reader) (*FilterPipeline, error) {
	b := newBody(data, r)
	fp := &FilterPipeline{Version: b.u8()}
	n := int(b.u8())
	switch fp.Version {
	case 1:
		b.skip(6)
	case 2:
	default:
		b.fail("unsupported filter pipeline version %d", fp.Version)
	}
	for i := 0; i < n && b.err == nil; i++ {
		fp.Filters = append(fp.Filters, decodeFilter(b, fp.Version))
	}
	return finish(fp, b, "filter pipeline")
}

// decodeFilter reads one pipeline entry. Version 1 entries always carry a
// name length, pad the name to 8 bytes and pad an odd count of client data
// values. Version 2 drops the name of library filters and all padding.
func decodeFilter(b *body, version uint8) FilterInfo {
	f := FilterInfo{ID: b.u16()}
	var nameLen int
	if version == 1 || f.ID >= 256 {
		nameLen = int(b.u16())
	}
	f.Flags = b.u16()
	f.ClientData = make([]uint32, b.u16())

	if nameLen > 0 {
		f.Name = trimNUL(b.bytes(nameLen))
		if version == 1 && nameLen%8 != 0 {
			b.skip(8 - nameLen%8)
		}
	}
	for i := range f.ClientData {
		f.ClientData[i] = b.u32()
	}
	if version == 1 && len(f.ClientData)%2 != 0 {
		b.skip(4)
	}
	return f
}
