package h5grove

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// element holds one decoded array element. Exactly one of the fields is
// meaningful, selected by kind.
type element struct {
	kind byte
	f    float64
	i    int64
	u    uint64
}

// decodeElement reads one element of dtype dt from b.
func decodeElement(dt DType, b []byte) (element, error) {
	order := dt.ByteOrder()
	switch dt.Kind {
	case 'b':
		return element{kind: 'u', u: uint64(b[0])}, nil
	case 'i':
		switch dt.Size {
		case 1:
			return element{kind: 'i', i: int64(int8(b[0]))}, nil
		case 2:
			return element{kind: 'i', i: int64(int16(order.Uint16(b)))}, nil
		case 4:
			return element{kind: 'i', i: int64(int32(order.Uint32(b)))}, nil
		case 8:
			return element{kind: 'i', i: int64(order.Uint64(b))}, nil
		}
	case 'u':
		switch dt.Size {
		case 1:
			return element{kind: 'u', u: uint64(b[0])}, nil
		case 2:
			return element{kind: 'u', u: uint64(order.Uint16(b))}, nil
		case 4:
			return element{kind: 'u', u: uint64(order.Uint32(b))}, nil
		case 8:
			return element{kind: 'u', u: order.Uint64(b)}, nil
		}
	case 'f':
		switch dt.Size {
		case 2:
			return element{kind: 'f', f: halfToFloat64(order.Uint16(b))}, nil
		case 4:
			return element{kind: 'f', f: float64(math.Float32frombits(order.Uint32(b)))}, nil
		case 8:
			return element{kind: 'f', f: math.Float64frombits(order.Uint64(b))}, nil
		case 10, 12, 16:
			return element{kind: 'f', f: extendedToFloat64(b[:dt.Size], order)}, nil
		}
	}
	return element{}, errors.Errorf("cannot decode %s elements", dt)
}

// encodeElement writes e into b as dtype dt. Integers are truncated to the
// target width, so out-of-range values wrap.
func encodeElement(dt DType, b []byte, e element) error {
	order := dt.ByteOrder()
	switch dt.Kind {
	case 'i', 'u':
		bits := e.bits()
		switch dt.Size {
		case 1:
			b[0] = byte(bits)
		case 2:
			order.PutUint16(b, uint16(bits))
		case 4:
			order.PutUint32(b, uint32(bits))
		case 8:
			order.PutUint64(b, bits)
		default:
			return errors.Errorf("cannot encode %s elements", dt)
		}
		return nil
	case 'f':
		switch dt.Size {
		case 4:
			order.PutUint32(b, math.Float32bits(float32(e.float())))
		case 8:
			order.PutUint64(b, math.Float64bits(e.float()))
		default:
			return errors.Errorf("cannot encode %s elements", dt)
		}
		return nil
	}
	return errors.Errorf("cannot encode %s elements", dt)
}

func (e element) float() float64 {
	switch e.kind {
	case 'i':
		return float64(e.i)
	case 'u':
		return float64(e.u)
	}
	return e.f
}

// bits returns the two's complement bit pattern of an integral value.
// Floats truncate toward zero like a C cast.
func (e element) bits() uint64 {
	switch e.kind {
	case 'i':
		return uint64(e.i)
	case 'u':
		return e.u
	}
	if e.f < 0 {
		return uint64(int64(e.f))
	}
	return uint64(e.f)
}

// halfToFloat64 decodes an IEEE 754 binary16 value.
func halfToFloat64(h uint16) float64 {
	sign := 1.0
	if h&0x8000 != 0 {
		sign = -1
	}
	exp := int(h>>10) & 0x1f
	frac := float64(h & 0x3ff)

	switch exp {
	case 0:
		return sign * math.Ldexp(frac, -24)
	case 0x1f:
		if frac == 0 {
			return math.Inf(int(sign))
		}
		return math.NaN()
	}
	return sign * math.Ldexp(1+frac/1024, exp-15)
}

// extendedToFloat64 decodes an x87 80-bit extended precision value, stored
// in 10 bytes and padded to 12 or 16. Values outside the float64 range
// become infinities.
func extendedToFloat64(b []byte, order binary.ByteOrder) float64 {
	var mant uint64
	var se uint16
	if order == binary.BigEndian {
		// Padding follows the value in memory, as in the little-endian case.
		se = binary.BigEndian.Uint16(b[0:2])
		mant = binary.BigEndian.Uint64(b[2:10])
	} else {
		mant = binary.LittleEndian.Uint64(b[0:8])
		se = binary.LittleEndian.Uint16(b[8:10])
	}

	sign := 1.0
	if se&0x8000 != 0 {
		sign = -1
	}
	exp := int(se & 0x7fff)

	switch exp {
	case 0:
		if mant == 0 {
			return sign * 0
		}
		return sign * math.Ldexp(float64(mant), -16382-63)
	case 0x7fff:
		if mant<<1 == 0 {
			return math.Inf(int(sign))
		}
		return math.NaN()
	}
	return sign * math.Ldexp(float64(mant), exp-16383-63)
}
