package message

import (
	"github.com/robert-malhotra/h5grove/internal/binary"
)

type DatatypeClass uint8

const (
	ClassFixedPoint DatatypeClass = 0
	ClassFloatPoint DatatypeClass = 1
	ClassTime       DatatypeClass = 2
	ClassString     DatatypeClass = 3
	ClassBitfield   DatatypeClass = 4
	ClassOpaque     DatatypeClass = 5
	ClassCompound   DatatypeClass = 6
	ClassReference  DatatypeClass = 7
	ClassEnum       DatatypeClass = 8
	ClassVarLen     DatatypeClass = 9
	ClassArray      DatatypeClass = 10
)

type ByteOrder uint8

const (
	OrderLE ByteOrder = 0
	OrderBE ByteOrder = 1
	// OrderVAX is the mixed order of VAX floats.
	OrderVAX ByteOrder = 2
)

type StringPadding uint8

const (
	PadNullTerm StringPadding = 0
	PadNullPad  StringPadding = 1
	PadSpacePad StringPadding = 2
)

type CharacterSet uint8

const (
	CharsetASCII CharacterSet = 0
	CharsetUTF8  CharacterSet = 1
)

// Datatype describes how one element is encoded. Which fields are set
// depends on Class.
type Datatype struct {
	Class   DatatypeClass
	Version uint8
	Size    uint32

	// Integers, bitfields, floats and times.
	ByteOrder    ByteOrder
	Signed       bool
	BitOffset    uint16
	BitPrecision uint16

	// Fixed-length strings and variable-length strings.
	StringPadding StringPadding
	CharSet       CharacterSet

	Members []CompoundMember

	// BaseType is the element type of an array or the integer type under an
	// enum.
	BaseType  *Datatype
	ArrayDims []uint32

	EnumNames  []string
	EnumValues [][]byte

	// VarLenType is the element type of a variable-length sequence or
	// string.
	VarLenType     *Datatype
	IsVarLenString bool

	// Tag describes an opaque type.
	Tag string
}

type CompoundMember struct {
	Name       string
	ByteOffset uint32
	Type       *Datatype
}

func (m *Datatype) Type() Type { return TypeDatatype }

func parseDatatype(data []byte, r *binary.Reader) (*Datatype, error) {
	b := newBody(data, r)
	return finish(decodeDatatype(b), b, "datatype")
}

// decodeDatatype reads one datatype, nested types included, leaving b just
// past it.
func decodeDatatype(b *body) *Datatype {
	head := b.u8()
	bits := uint32(b.u8()) | uint32(b.u8())<<8 | uint32(b.u8())<<16
	dt := &Datatype{
		Class:   DatatypeClass(head & 0x0f),
		Version: head >> 4,
		Size:    b.u32(),
	}
	if b.err != nil {
		return dt
	}

	switch dt.Class {
	case ClassFixedPoint, ClassBitfield:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.Signed = dt.Class == ClassFixedPoint && bits&0x08 != 0
		dt.BitOffset = b.u16()
		dt.BitPrecision = b.u16()

	case ClassFloatPoint:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		if bits&0x41 == 0x41 {
			dt.ByteOrder = OrderVAX
		}
		dt.BitOffset = b.u16()
		dt.BitPrecision = b.u16()
		// Exponent and mantissa locations, sizes and the exponent bias.
		b.skip(8)

	case ClassTime:
		dt.ByteOrder = ByteOrder(bits & 0x01)
		dt.BitPrecision = b.u16()

	case ClassString:
		dt.StringPadding = StringPadding(bits & 0x0f)
		dt.CharSet = CharacterSet(bits >> 4 & 0x0f)

	case ClassOpaque:
		dt.Tag = trimNUL(b.bytes(int(bits & 0xff)))

	case ClassCompound:
		decodeMembers(b, dt, int(bits&0xffff))

	case ClassReference:

	case ClassEnum:
		dt.BaseType = decodeDatatype(b)
		n := int(bits & 0xffff)
		dt.EnumNames = make([]string, n)
		for i := range dt.EnumNames {
			start := b.pos()
			dt.EnumNames[i] = b.cstring()
			if dt.Version < 3 {
				b.align(start, 8)
			}
		}
		dt.EnumValues = make([][]byte, n)
		for i := range dt.EnumValues {
			dt.EnumValues[i] = b.bytes(int(dt.BaseType.Size))
		}

	case ClassVarLen:
		dt.IsVarLenString = bits&0x0f == 1
		if dt.IsVarLenString {
			dt.StringPadding = StringPadding(bits >> 4 & 0x0f)
			dt.CharSet = CharacterSet(bits >> 8 & 0x0f)
		}
		dt.VarLenType = decodeDatatype(b)

	case ClassArray:
		rank := int(b.u8())
		if dt.Version < 3 {
			b.skip(3)
		}
		dt.ArrayDims = make([]uint32, rank)
		for i := range dt.ArrayDims {
			dt.ArrayDims[i] = b.u32()
		}
		if dt.Version < 3 {
			// Permutation indices, never used by the library.
			b.skip(4 * rank)
		}
		dt.BaseType = decodeDatatype(b)

	default:
		b.fail("unsupported datatype class %d", dt.Class)
	}
	return dt
}

// decodeMembers reads the fields of a compound type. Versions 1 and 2 pad
// names to 8 bytes and store 4 byte offsets. Version 3 packs names and
// sizes offsets to fit the compound size.
func decodeMembers(b *body, dt *Datatype, n int) {
	width := 4
	if dt.Version >= 3 {
		width = widthOf(uint64(dt.Size))
	}
	for i := 0; i < n && b.err == nil; i++ {
		var m CompoundMember
		start := b.pos()
		m.Name = b.cstring()
		if dt.Version < 3 {
			b.align(start, 8)
		}
		m.ByteOffset = uint32(b.uintN(width))
		if dt.Version == 1 {
			// Dimensionality, reserved bytes, permutation and four
			// dimension sizes of the old array members.
			b.skip(28)
		}
		m.Type = decodeDatatype(b)
		dt.Members = append(dt.Members, m)
	}
}

// widthOf returns the bytes needed to hold v.
func widthOf(v uint64) int {
	switch {
	case v <= 0xff:
		return 1
	case v <= 0xffff:
		return 2
	case v <= 0xffffffff:
		return 4
	}
	return 8
}
