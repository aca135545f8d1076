package message

import (
	"github.com/robert-malhotra/h5grove/internal/binary"
)

// FillValue is the value of dataset elements that were never written.
// Value is nil when the library default of all zero bytes applies.
type FillValue struct {
	Version        uint8
	SpaceAllocTime uint8
	FillWriteTime  uint8
	IsDefined      bool
	Value          []byte
}

func (m *FillValue) Type() Type { return TypeFillValue }

func parseFillValue(data []byte, r *binary.Reader) (*FillValue, error) {
	b := newBody(data, r)
	fv := &FillValue{Version: b.u8()}
	switch fv.Version {
	case 1, 2:
		fv.SpaceAllocTime = b.u8()
		fv.FillWriteTime = b.u8()
		fv.IsDefined = b.u8() != 0
		// Version 1 always stores the size.
		if fv.Version == 1 || fv.IsDefined {
			fv.Value = fillBytes(b)
		}
	case 3:
		flags := b.u8()
		fv.SpaceAllocTime = flags & 0x03
		fv.FillWriteTime = flags >> 2 & 0x03
		fv.IsDefined = flags&0x10 == 0
		if fv.IsDefined && flags&0x20 != 0 {
			fv.Value = fillBytes(b)
		}
	default:
		b.fail("unsupported fill value version %d", fv.Version)
	}
	return finish(fv, b, "fill value")
}

func fillBytes(b *body) []byte {
	n := int(b.u32())
	if n == 0 {
		return nil
	}
	return b.bytes(n)
}
