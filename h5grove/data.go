package h5grove

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/hdf5"
)

// DtypeMode selects the dtype of data read from a dataset.
type DtypeMode string

const (
	// DtypeOrigin keeps the dtype stored in the file.
	DtypeOrigin DtypeMode = "origin"
	// DtypeSafe sanitizes the data for the client decoder.
	DtypeSafe DtypeMode = "safe"
)

// ParseDtypeMode validates a dtype mode name. The empty string means origin.
func ParseDtypeMode(s string) (DtypeMode, error) {
	switch m := DtypeMode(strings.ToLower(s)); m {
	case "", DtypeOrigin:
		return DtypeOrigin, nil
	case DtypeSafe:
		return m, nil
	}
	return "", errors.Errorf("unknown dtype mode %q", s)
}

// DataOptions controls ReadData.
type DataOptions struct {
	// Selection is a slice string as accepted by ParseSlice. Empty selects
	// everything.
	Selection string

	// Flatten reshapes the result to one dimension.
	Flatten bool

	Dtype DtypeMode
}

// ReadData reads the values of a dataset entity. Only the bounding box of
// the selection is read from the file.
func ReadData(e Entity, opts DataOptions) (*Array, error) {
	ds, ok := e.Dataset()
	if !ok {
		return nil, errors.Wrapf(ErrNotDataset, "%s is a %s", e.Path(), e.Kind())
	}

	dt := DatatypeDType(ds.Datatype())
	if !dt.IsNumeric() && dt.Kind != 'S' {
		return nil, &DtypeError{DType: dt}
	}
	shape := intShape(ds.Shape())

	var arr *Array
	if opts.Selection == "" {
		a, err := DatasetArray(ds)
		if err != nil {
			return nil, err
		}
		arr = a
	} else {
		sel, err := ParseSlice(shape, len(shape), opts.Selection)
		if err != nil {
			return nil, err
		}
		axes, err := sel.resolve(shape)
		if err != nil {
			return nil, err
		}
		start, count, local := hyperslab(axes)

		var raw []byte
		if numElements(intShape(count)) > 0 {
			raw, err = ds.ReadSliceRaw(start, count)
			if err != nil {
				return nil, errors.Wrapf(err, "reading %s[%s]", e.Path(), opts.Selection)
			}
		}
		box, err := NewArray(dt, intShape(count), raw)
		if err != nil {
			return nil, err
		}
		arr = view(box, local)
	}

	if opts.Flatten {
		arr = arr.Flatten()
	}
	if opts.Dtype == DtypeSafe {
		return SanitizeArray(arr, false)
	}
	return arr, nil
}

// DatasetArray reads a whole dataset into an array in the file's dtype.
func DatasetArray(ds *hdf5.Dataset) (*Array, error) {
	raw, err := ds.ReadRaw()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", ds.Path())
	}
	return NewArray(DatatypeDType(ds.Datatype()), intShape(ds.Shape()), raw)
}
