package h5grove

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedDtype is returned for arrays whose dtype kind is not
	// float, signed or unsigned integer.
	ErrUnsupportedDtype = errors.New("unsupported array type")

	// ErrNotDataset is returned when data is requested from a group or link.
	ErrNotDataset = errors.New("entity is not a dataset")

	// ErrUnsupportedFormat is returned for unknown encoding formats.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrAttrNotFound is returned when a requested attribute does not exist.
	ErrAttrNotFound = errors.New("attribute not found")
)

// PathError reports a path that addresses no entry in a file.
type PathError struct {
	Path string
	File string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s is not a valid path in %s", e.Path, e.File)
}

func (e *PathError) Unwrap() error { return e.Err }

// SliceError reports a malformed selection string or a selection that does
// not fit the array it is applied to.
type SliceError struct {
	Selection string
	Msg       string
	Err       error
}

func (e *SliceError) Error() string { return e.Msg }

func (e *SliceError) Unwrap() error { return e.Err }

func sliceErrorf(selection string, format string, args ...interface{}) *SliceError {
	return &SliceError{Selection: selection, Msg: fmt.Sprintf(format, args...)}
}

// DtypeError reports a dtype the client decoder cannot read.
type DtypeError struct {
	DType DType
}

func (e *DtypeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedDtype, e.DType)
}

func (e *DtypeError) Unwrap() error { return ErrUnsupportedDtype }
