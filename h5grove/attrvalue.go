package h5grove

import (
	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/hdf5"
)

// AttrValue decodes an attribute into a Go value:
//
//	signed and enum integers  int64
//	unsigned integers         uint64
//	floats                    float64
//	strings                   string
//	compounds                 map[string]interface{}
//
// Scalars yield the bare value, other dataspaces a slice of it. Other
// datatypes fail with a *DtypeError.
func AttrValue(a *hdf5.Attribute) (interface{}, error) {
	dt := a.Datatype()
	scalar := a.Shape() == nil
	n := a.NumElements()

	if dt.Class == hdf5.ClassString || dt.VarLenString {
		strs, err := a.Strings()
		if err != nil {
			return nil, err
		}
		return collapse(strs, scalar), nil
	}

	raw, err := a.Raw()
	if err != nil {
		return nil, err
	}

	if dt.Class == hdf5.ClassCompound {
		vals := make([]map[string]interface{}, n)
		for i := range vals {
			v, err := decodeCompound(dt, raw[i*dt.Size:(i+1)*dt.Size])
			if err != nil {
				return nil, errors.Wrapf(err, "attribute %s", a.Name())
			}
			vals[i] = v
		}
		return collapse(vals, scalar), nil
	}

	d := DatatypeDType(dt)
	switch d.Kind {
	case 'i':
		return decodeNumbers(d, raw, n, scalar, func(e element) int64 { return e.i })
	case 'u':
		return decodeNumbers(d, raw, n, scalar, func(e element) uint64 { return e.u })
	case 'f':
		return decodeNumbers(d, raw, n, scalar, func(e element) float64 { return e.f })
	}
	return nil, &DtypeError{DType: d}
}

func decodeNumbers[T any](d DType, raw []byte, n int, scalar bool, get func(element) T) (interface{}, error) {
	vals := make([]T, n)
	for i := range vals {
		e, err := decodeElement(d, raw[i*d.Size:(i+1)*d.Size])
		if err != nil {
			return nil, err
		}
		vals[i] = get(e)
	}
	return collapse(vals, scalar), nil
}

func collapse[T any](vals []T, scalar bool) interface{} {
	if scalar && len(vals) == 1 {
		return vals[0]
	}
	return vals
}

// decodeCompound decodes one compound element into its fields. Fields of
// fixed-length string, numeric or nested compound type are supported.
func decodeCompound(dt hdf5.Datatype, b []byte) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(dt.Members))
	for _, m := range dt.Members {
		if m.Offset+m.Type.Size > len(b) {
			return nil, errors.Errorf("field %s exceeds the %d byte element", m.Name, len(b))
		}
		field := b[m.Offset : m.Offset+m.Type.Size]

		switch m.Type.Class {
		case hdf5.ClassString:
			out[m.Name] = hdf5.TrimString(field, m.Type.SpacePadded)
			continue
		case hdf5.ClassCompound:
			v, err := decodeCompound(m.Type, field)
			if err != nil {
				return nil, err
			}
			out[m.Name] = v
			continue
		}

		d := DatatypeDType(m.Type)
		if !d.IsNumeric() {
			return nil, &DtypeError{DType: d}
		}
		e, err := decodeElement(d, field)
		if err != nil {
			return nil, err
		}
		out[m.Name] = e.value()
	}
	return out, nil
}
