package fixture

import (
	"encoding/binary"
	"math"
)

const (
	classInteger  byte = 0
	classFloat    byte = 1
	classString   byte = 3
	classCompound byte = 6
	classVarLen   byte = 9
)

// Type is an element encoding.
type Type struct {
	class     byte
	size      int
	signed    bool
	bigEndian bool
	members   []Member
}

// Member is one field of a compound type.
type Member struct {
	Name   string
	Offset int
	Type   Type
}

// Little-endian numeric types. Use BigEndian for the other byte order.
var (
	Int8    = Type{class: classInteger, size: 1, signed: true}
	Int16   = Type{class: classInteger, size: 2, signed: true}
	Int32   = Type{class: classInteger, size: 4, signed: true}
	Int64   = Type{class: classInteger, size: 8, signed: true}
	Uint8   = Type{class: classInteger, size: 1}
	Uint16  = Type{class: classInteger, size: 2}
	Uint32  = Type{class: classInteger, size: 4}
	Uint64  = Type{class: classInteger, size: 8}
	Float32 = Type{class: classFloat, size: 4}
	Float64 = Type{class: classFloat, size: 8}

	// VarString is a variable-length UTF-8 string.
	VarString = Type{class: classVarLen, size: 16}
)

// String returns a NUL-terminated fixed-length string type of n bytes.
func String(n int) Type {
	return Type{class: classString, size: n}
}

// Compound returns a compound type of the given size.
func Compound(size int, members ...Member) Type {
	return Type{class: classCompound, size: size, members: members}
}

// BigEndian returns t stored most significant byte first.
func (t Type) BigEndian() Type {
	t.bigEndian = true
	return t
}

// Size returns the width of one element in bytes.
func (t Type) Size() int {
	return t.size
}

func (t Type) order() binary.ByteOrder {
	if t.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Ints encodes integer values as t.
func Ints(t Type, vals ...int64) []byte {
	b := make([]byte, len(vals)*t.size)
	for i, v := range vals {
		putUint(t, b[i*t.size:], uint64(v))
	}
	return b
}

// Floats encodes values as t, which may be an integer type.
func Floats(t Type, vals ...float64) []byte {
	if t.class == classInteger {
		ints := make([]int64, len(vals))
		for i, v := range vals {
			ints[i] = int64(v)
		}
		return Ints(t, ints...)
	}
	b := make([]byte, len(vals)*t.size)
	for i, v := range vals {
		if t.size == 4 {
			t.order().PutUint32(b[i*4:], math.Float32bits(float32(v)))
		} else {
			t.order().PutUint64(b[i*8:], math.Float64bits(v))
		}
	}
	return b
}

// Range encodes 0, 1, ..., n-1 as t.
func Range(t Type, n int) []byte {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i)
	}
	return Floats(t, vals...)
}

func putUint(t Type, b []byte, v uint64) {
	switch t.size {
	case 1:
		b[0] = byte(v)
	case 2:
		t.order().PutUint16(b, uint16(v))
	case 4:
		t.order().PutUint32(b, uint32(v))
	case 8:
		t.order().PutUint64(b, v)
	}
}

// encode returns the datatype message body.
func (t Type) encode() []byte {
	var bits [3]byte
	var props []byte
	version := byte(1)

	switch t.class {
	case classInteger:
		if t.bigEndian {
			bits[0] |= 0x01
		}
		if t.signed {
			bits[0] |= 0x08
		}
		props = appendUint16(props, 0)
		props = appendUint16(props, uint16(t.size*8))

	case classFloat:
		if t.bigEndian {
			bits[0] |= 0x01
		}
		bits[0] |= 0x20 // implied leading mantissa bit
		bits[1] = byte(t.size*8 - 1)
		props = appendUint16(props, 0)
		props = appendUint16(props, uint16(t.size*8))
		if t.size == 4 {
			props = append(props, 23, 8, 0, 23)
			props = appendUint32(props, 127)
		} else {
			props = append(props, 52, 11, 0, 52)
			props = appendUint32(props, 1023)
		}

	case classVarLen:
		bits[0] = 0x01 // string
		bits[1] = 0x01 // UTF-8
		props = Type{class: classString, size: 1}.encode()

	case classCompound:
		version = 3
		bits[0] = byte(len(t.members))
		bits[1] = byte(len(t.members) >> 8)
		for _, m := range t.members {
			props = append(props, m.Name...)
			props = append(props, 0)
			props = appendSized(props, uint64(m.Offset), compoundOffsetSize(t.size))
			props = append(props, m.Type.encode()...)
		}
	}

	b := []byte{t.class | version<<4, bits[0], bits[1], bits[2]}
	b = appendUint32(b, uint32(t.size))
	return append(b, props...)
}

func compoundOffsetSize(size int) int {
	switch {
	case size <= 0xff:
		return 1
	case size <= 0xffff:
		return 2
	}
	return 4
}

func appendUint16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}

func appendUint32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func appendUint64(b []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, v)
}

func appendSized(b []byte, v uint64, n int) []byte {
	for i := 0; i < n; i++ {
		b = append(b, byte(v>>(8*i)))
	}
	return b
}
