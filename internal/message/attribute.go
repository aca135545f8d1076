package message

import (
	"github.com/robert-malhotra/h5grove/internal/binary"
)

// Attribute is a small named value stored in an object header.
type Attribute struct {
	Version   uint8
	Name      string
	Datatype  *Datatype
	Dataspace *Dataspace
	// Datatype and Dataspace are nil when they could not be decoded.
	// Data is the raw value, Dataspace.NumElements() elements of
	// Datatype.Size bytes.
	Data []byte
}

func (m *Attribute) Type() Type { return TypeAttribute }

// parseAttribute reads the name, datatype and dataspace, which version 1
// pads to 8 bytes each, followed by the value. Version 3 adds the name
// character set.
func parseAttribute(data []byte, r *binary.Reader) (*Attribute, error) {
	b := newBody(data, r)
	a := &Attribute{Version: b.u8()}
	if a.Version < 1 || a.Version > 3 {
		b.fail("unsupported attribute version %d", a.Version)
	}
	b.skip(1) // flags
	nameSize := int(b.u16())
	typeSize := int(b.u16())
	spaceSize := int(b.u16())
	if a.Version == 3 {
		b.skip(1)
	}

	field := func(n int) []byte {
		v := b.bytes(n)
		if a.Version == 1 && n%8 != 0 {
			b.skip(8 - n%8)
		}
		return v
	}
	a.Name = trimNUL(field(nameSize))
	typeData := field(typeSize)
	spaceData := field(spaceSize)
	if err := b.check("attribute"); err != nil {
		return nil, err
	}

	// An attribute of a type this package cannot decode is still listed,
	// with a nil Datatype.
	a.Datatype, _ = parseDatatype(typeData, r)
	a.Dataspace, _ = parseDataspace(spaceData, r)
	a.Data = b.bytes(b.remaining())
	return a, nil
}
