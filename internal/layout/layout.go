package layout

import (
	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/internal/binary"
	"github.com/robert-malhotra/h5grove/internal/message"
)

// Layout reads the raw elements of a dataset in file byte order.
type Layout interface {
	Read() ([]byte, error)

	// ReadSlice reads count elements along each axis from start, in
	// row-major order. Scalar datasets take empty start and count.
	ReadSlice(start, count []uint64) ([]byte, error)

	Class() message.LayoutClass
}

// New returns the reader for the storage a layout message describes.
// Storage that was never allocated reads as the fill value, or as zeros
// when no fill value is defined.
func New(
	layout *message.DataLayout,
	dataspace *message.Dataspace,
	datatype *message.Datatype,
	pipeline *message.FilterPipeline,
	fill *message.FillValue,
	r *binary.Reader,
) (Layout, error) {
	if layout == nil {
		return nil, errors.New("missing layout message")
	}
	s := newSpace(dataspace, datatype, fill)

	switch layout.Class {
	case message.LayoutCompact:
		return &Compact{space: s, data: layout.CompactData}, nil
	case message.LayoutContiguous:
		return newContiguous(s, layout, r), nil
	case message.LayoutChunked:
		return newChunked(s, layout, pipeline, r)
	}
	return nil, errors.Errorf("unsupported layout class %d", layout.Class)
}

// space is the shape and element encoding shared by every layout.
type space struct {
	dims   []uint64
	scalar bool
	elem   uint64
	fill   []byte
}

// newSpace treats a scalar as a single element of rank 1 and a null
// dataspace as an empty one.
func newSpace(ds *message.Dataspace, dt *message.Datatype, fv *message.FillValue) space {
	var s space
	if dt != nil {
		s.elem = uint64(dt.Size)
	}
	switch {
	case ds == nil || ds.SpaceType == message.DataspaceScalar:
		s.dims, s.scalar = []uint64{1}, true
	case ds.SpaceType == message.DataspaceNull:
		s.dims = []uint64{0}
	default:
		s.dims = ds.Dimensions
	}
	s.fill = fillPattern(fv, s.elem)
	return s
}

func (s space) size() uint64 {
	return product(s.dims) * s.elem
}

// selection checks start and count against the shape.
func (s space) selection(start, count []uint64) ([]uint64, []uint64, error) {
	if s.scalar && len(start) == 0 && len(count) == 0 {
		return []uint64{0}, []uint64{1}, nil
	}
	if len(start) != len(s.dims) || len(count) != len(s.dims) {
		return nil, nil, errors.Errorf("selection of rank %d/%d for a dataset of rank %d",
			len(start), len(count), len(s.dims))
	}
	for d := range s.dims {
		if start[d]+count[d] > s.dims[d] {
			return nil, nil, errors.Errorf("selection exceeds axis %d: start %d count %d size %d",
				d, start[d], count[d], s.dims[d])
		}
	}
	return start, count, nil
}

// filled returns the bytes of n elements holding the fill value.
func (s space) filled(n uint64) []byte {
	out := make([]byte, n*s.elem)
	if len(s.fill) > 0 {
		for i := 0; i < len(out); i += len(s.fill) {
			copy(out[i:], s.fill)
		}
	}
	return out
}

// fillPattern returns the fill value of one element, or nil when it is all
// zeros or unusable.
func fillPattern(fv *message.FillValue, elem uint64) []byte {
	if fv == nil || !fv.IsDefined || uint64(len(fv.Value)) != elem {
		return nil
	}
	for _, b := range fv.Value {
		if b != 0 {
			return fv.Value
		}
	}
	return nil
}

// view is a row-major block of elements held in buf. The element at
// origin sits skip bytes before the start of buf, which lets a view cover
// just the tail of a block.
type view struct {
	buf    []byte
	origin []uint64
	shape  []uint64
	skip   uint64
}

// copyBox copies the elements with coordinates in [lo, hi) from src into
// dst, one innermost run at a time.
func copyBox(dst, src view, lo, hi []uint64, elem uint64) {
	rank := len(lo)
	for d := range lo {
		if lo[d] >= hi[d] {
			return
		}
	}
	dstStrides := strides(dst.shape, elem)
	srcStrides := strides(src.shape, elem)
	run := (hi[rank-1] - lo[rank-1]) * elem

	idx := append([]uint64(nil), lo...)
	for {
		var s, t uint64
		for d := range idx {
			s += (idx[d] - src.origin[d]) * srcStrides[d]
			t += (idx[d] - dst.origin[d]) * dstStrides[d]
		}
		s -= src.skip
		t -= dst.skip
		if s+run <= uint64(len(src.buf)) && t+run <= uint64(len(dst.buf)) {
			copy(dst.buf[t:t+run], src.buf[s:s+run])
		}

		d := rank - 2
		for ; d >= 0; d-- {
			if idx[d]++; idx[d] < hi[d] {
				break
			}
			idx[d] = lo[d]
		}
		if d < 0 {
			return
		}
	}
}

func strides(shape []uint64, elem uint64) []uint64 {
	out := make([]uint64, len(shape))
	n := elem
	for d := len(shape) - 1; d >= 0; d-- {
		out[d] = n
		n *= shape[d]
	}
	return out
}

func product(v []uint64) uint64 {
	n := uint64(1)
	for _, x := range v {
		n *= x
	}
	return n
}

func zeros(n int) []uint64 {
	return make([]uint64, n)
}

func end(start, count []uint64) []uint64 {
	out := make([]uint64, len(start))
	for d := range start {
		out[d] = start[d] + count[d]
	}
	return out
}
