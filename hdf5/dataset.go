package hdf5

import (
	"path"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/internal/filter"
	"github.com/robert-malhotra/h5grove/internal/layout"
	"github.com/robert-malhotra/h5grove/internal/message"
	"github.com/robert-malhotra/h5grove/internal/object"
)

// Dataset is an n-dimensional array of elements of one datatype.
type Dataset struct {
	file    *File
	path    string
	header  *object.Header
	space   *message.Dataspace
	dtype   *message.Datatype
	storage *message.DataLayout
	reader  layout.Layout
}

func newDataset(f *File, p string, h *object.Header) (*Dataset, error) {
	d := &Dataset{file: f, path: p, header: h,
		space: h.Dataspace(), dtype: h.Datatype(), storage: h.DataLayout()}
	switch {
	case d.space == nil:
		return nil, errors.Errorf("dataset %s has no dataspace", p)
	case d.dtype == nil:
		return nil, errors.Errorf("dataset %s has no datatype", p)
	case d.storage == nil:
		return nil, errors.Errorf("dataset %s has no layout", p)
	}
	var err error
	if d.reader, err = layout.New(d.storage, d.space, d.dtype, h.FilterPipeline(), h.FillValue(), f.reader); err != nil {
		return nil, errors.Wrapf(err, "dataset %s", p)
	}
	return d, nil
}

func (d *Dataset) Name() string { return path.Base(d.path) }
func (d *Dataset) Path() string { return d.path }

// File returns the file the dataset was read from.
func (d *Dataset) File() *File { return d.file }

// Shape returns the dimensions, nil for a scalar.
func (d *Dataset) Shape() []uint64 {
	if d.space.IsScalar() {
		return nil
	}
	return d.space.Dimensions
}

func (d *Dataset) Rank() int { return d.space.Rank }

func (d *Dataset) Datatype() Datatype { return newDatatype(d.dtype) }

// Chunks returns the chunk shape of a chunked dataset, or nil. Older layout
// messages store the element size as a trailing dimension, which is dropped.
func (d *Dataset) Chunks() []uint64 {
	if d.storage.Class != message.LayoutChunked {
		return nil
	}
	n := min(len(d.storage.ChunkDims), d.Rank())
	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(d.storage.ChunkDims[i])
	}
	return out
}

// Filter is one stage of a dataset's filter pipeline.
type Filter struct {
	ID   uint16 `json:"id"`
	Name string `json:"name"`
}

// Filters lists the pipeline in the order filters were applied on write.
// Library filters take their registered names, others the name stored in
// the file.
func (d *Dataset) Filters() []Filter {
	fp := d.header.FilterPipeline()
	if fp == nil {
		return nil
	}
	var out []Filter
	for _, f := range fp.Filters {
		name := f.Name
		if f.ID < 256 || name == "" {
			name = filter.Name(f.ID)
		}
		out = append(out, Filter{ID: f.ID, Name: name})
	}
	return out
}

// ReadRaw returns every element in file byte order.
func (d *Dataset) ReadRaw() ([]byte, error) {
	b, err := d.reader.Read()
	return b, errors.Wrapf(err, "reading %s", d.path)
}

// ReadSliceRaw returns the hyperslab of count elements per axis from start,
// in row-major order.
func (d *Dataset) ReadSliceRaw(start, count []uint64) ([]byte, error) {
	if len(start) != d.Rank() || len(count) != d.Rank() {
		return nil, errors.Errorf("selection of rank %d/%d for %s of rank %d", len(start), len(count), d.path, d.Rank())
	}
	b, err := d.reader.ReadSlice(start, count)
	return b, errors.Wrapf(err, "reading %s", d.path)
}

func (d *Dataset) Attrs() []string { return attrNames(d.header) }

// Attr returns the attribute called name, or nil.
func (d *Dataset) Attr(name string) *Attribute { return findAttr(d.header, d.file, name) }

func attrNames(h *object.Header) []string {
	msgs := h.GetMessages(message.TypeAttribute)
	names := make([]string, 0, len(msgs))
	for _, m := range msgs {
		names = append(names, m.(*message.Attribute).Name)
	}
	return names
}

func findAttr(h *object.Header, f *File, name string) *Attribute {
	for _, m := range h.GetMessages(message.TypeAttribute) {
		if a := m.(*message.Attribute); a.Name == name {
			return &Attribute{msg: a, reader: f.reader}
		}
	}
	return nil
}
