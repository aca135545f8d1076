package h5grove

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/robert-malhotra/h5grove/hdf5"
)

// Byte order markers, as used in NumPy dtype strings.
const (
	LittleEndian  byte = '<'
	BigEndian     byte = '>'
	NotApplicable byte = '|'
)

// DType describes the binary encoding of one array element, like a NumPy
// dtype: a kind character, a width in bytes and a byte order.
//
// Kinds follow NumPy: 'f' float, 'i' signed integer, 'u' unsigned integer,
// 'c' complex, 'b' boolean, 'S' bytes, 'U' unicode, 'O' object, 'V' void.
type DType struct {
	Kind  byte
	Size  int
	Order byte
}

// The encodings the client decoder reads natively.
var (
	Int32   = DType{Kind: 'i', Size: 4, Order: LittleEndian}
	Uint32  = DType{Kind: 'u', Size: 4, Order: LittleEndian}
	Float32 = DType{Kind: 'f', Size: 4, Order: LittleEndian}
	Float64 = DType{Kind: 'f', Size: 8, Order: LittleEndian}
)

// NativeOrder returns the byte order marker of the host.
func NativeOrder() byte {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	if b[0] == 1 {
		return LittleEndian
	}
	return BigEndian
}

// NewDType builds a dtype, normalizing the byte order the way NumPy does:
// '=' means native, and single-byte or non-numeric encodings have none.
func NewDType(kind byte, size int, order byte) DType {
	return DType{Kind: kind, Size: size}.WithOrder(order)
}

// WithOrder returns d with its byte order replaced.
func (d DType) WithOrder(order byte) DType {
	if order == '=' {
		order = NativeOrder()
	}
	switch {
	case d.Size <= 1, d.Kind == 'S', d.Kind == 'V', d.Kind == 'O', d.Kind == 'b':
		order = NotApplicable
	case order == NotApplicable:
		order = NativeOrder()
	}
	d.Order = order
	return d
}

// normalized fills in a missing byte order with the host order, the
// meaning NumPy gives to a dtype string without one.
func (d DType) normalized() DType {
	if d.Order == 0 {
		return d.WithOrder('=')
	}
	return d
}

// ParseDType parses a NumPy dtype string such as "<f4", ">i8", "|u1" or
// "f8". A missing byte order means native.
func ParseDType(s string) (DType, error) {
	if s == "" {
		return DType{}, fmt.Errorf("invalid dtype: empty string")
	}
	order := byte('=')
	switch s[0] {
	case '<', '>', '|', '=':
		order = s[0]
		s = s[1:]
	}
	if s == "O" {
		return NewDType('O', 8, order), nil
	}
	if len(s) < 2 {
		return DType{}, fmt.Errorf("invalid dtype: %q", s)
	}
	kind := s[0]
	size, err := strconv.Atoi(s[1:])
	if err != nil || size <= 0 {
		return DType{}, fmt.Errorf("invalid dtype size: %q", s)
	}
	if !validWidth(kind, size) {
		return DType{}, fmt.Errorf("invalid dtype: %c%d", kind, size)
	}
	return NewDType(kind, size, order), nil
}

func validWidth(kind byte, size int) bool {
	switch kind {
	case 'i', 'u':
		return size == 1 || size == 2 || size == 4 || size == 8
	case 'f':
		return size == 2 || size == 4 || size == 8 || size == 10 || size == 12 || size == 16
	case 'c':
		return size == 8 || size == 16 || size == 20 || size == 24 || size == 32
	case 'b':
		return size == 1
	case 'O':
		return size == 8
	case 'S', 'U', 'V':
		return true
	}
	return false
}

// String renders d as a NumPy dtype string, e.g. "<f4" or "|O".
func (d DType) String() string {
	if d.Kind == 0 {
		return "invalid"
	}
	order := d.Order
	if order == 0 {
		order = NotApplicable
	}
	// Object arrays hold pointers and NumPy leaves out their width.
	if d.Kind == 'O' {
		return string([]byte{order, d.Kind})
	}
	return string([]byte{order, d.Kind}) + strconv.Itoa(d.Size)
}

// ByteOrder returns the encoding/binary order of d. Encodings without a
// byte order report little-endian.
func (d DType) ByteOrder() binary.ByteOrder {
	if d.Order == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// IsNumeric reports whether d is a real number kind (float, int, uint).
func (d DType) IsNumeric() bool {
	return d.Kind == 'f' || d.Kind == 'i' || d.Kind == 'u'
}

// SanitizeDtype converts d to an encoding the client decoder reads:
// little-endian, integers at most 4 bytes wide, floats of 4 or 8 bytes.
//
// Integers wider than 4 bytes are narrowed without any range check, so
// values outside the int32/uint32 range wrap when an array is converted.
// Any other kind fails with a *DtypeError wrapping ErrUnsupportedDtype.
func SanitizeDtype(d DType) (DType, error) {
	if !d.IsNumeric() {
		return DType{}, &DtypeError{DType: d}
	}

	out := d.WithOrder(LittleEndian)

	switch {
	case (out.Kind == 'i' || out.Kind == 'u') && out.Size > 4:
		out.Size = 4
	case out.Kind == 'f' && out.Size < 4:
		out.Size = 4
	case out.Kind == 'f' && out.Size > 8:
		out.Size = 8
	}
	return out, nil
}

// DatatypeDType maps an HDF5 datatype onto the dtype h5py would report for it.
func DatatypeDType(dt hdf5.Datatype) DType {
	order := LittleEndian
	if dt.BigEndian {
		order = BigEndian
	}

	switch dt.Class {
	case hdf5.ClassInteger, hdf5.ClassEnum:
		if dt.Signed {
			return NewDType('i', dt.Size, order)
		}
		return NewDType('u', dt.Size, order)
	case hdf5.ClassBitfield:
		return NewDType('u', dt.Size, order)
	case hdf5.ClassFloat:
		return NewDType('f', dt.Size, order)
	case hdf5.ClassString:
		return NewDType('S', dt.Size, NotApplicable)
	case hdf5.ClassVarLen, hdf5.ClassReference:
		return NewDType('O', 8, NotApplicable)
	}
	return NewDType('V', dt.Size, NotApplicable)
}
