package layout

import (
	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/internal/binary"
	"github.com/robert-malhotra/h5grove/internal/filter"
	"github.com/robert-malhotra/h5grove/internal/message"
)

// Chunked reads datasets stored as equally shaped chunks, located through
// the index the layout message names. Chunks that were never written read
// as the fill value.
type Chunked struct {
	space
	layout   *message.DataLayout
	chunk    []uint64
	pipeline *filter.Pipeline
	reader   *binary.Reader
}

func newChunked(s space, l *message.DataLayout, fp *message.FilterPipeline, r *binary.Reader) (*Chunked, error) {
	rank := len(s.dims)
	// The stored dimensions end with the element size.
	if len(l.ChunkDims) < rank {
		return nil, errors.Errorf("chunked layout has %d chunk dimensions for rank %d", len(l.ChunkDims), rank)
	}
	c := &Chunked{space: s, layout: l, reader: r, chunk: make([]uint64, rank)}
	for d := range c.chunk {
		if c.chunk[d] = uint64(l.ChunkDims[d]); c.chunk[d] == 0 {
			return nil, errors.Errorf("chunk dimension %d is zero", d)
		}
	}
	if fp != nil {
		p, err := filter.NewPipeline(fp)
		if err != nil {
			return nil, errors.Wrap(err, "building filter pipeline")
		}
		c.pipeline = p
	}
	return c, nil
}

func (c *Chunked) Class() message.LayoutClass { return message.LayoutChunked }

func (c *Chunked) Read() ([]byte, error) {
	var start, count []uint64
	if !c.scalar {
		start, count = zeros(len(c.dims)), c.dims
	}
	return c.ReadSlice(start, count)
}

// ReadSlice decodes only the chunks overlapping the selection. Edge chunks
// reaching past the dataset are clipped.
func (c *Chunked) ReadSlice(start, count []uint64) ([]byte, error) {
	start, count, err := c.selection(start, count)
	if err != nil {
		return nil, err
	}
	out := c.filled(product(count))
	if len(out) == 0 {
		return out, nil
	}

	entries, err := c.entries()
	if err != nil {
		return nil, err
	}
	stop := end(start, count)
	lo := make([]uint64, len(start))
	hi := make([]uint64, len(start))
	for _, e := range entries {
		if !c.clip(e.Offset, start, stop, lo, hi) {
			continue
		}
		raw, err := c.reader.At(int64(e.Address)).ReadBytes(int(e.Size))
		if err != nil {
			return nil, errors.Wrapf(err, "reading chunk %v", e.Offset)
		}
		if c.pipeline != nil && !c.pipeline.Empty() {
			if raw, err = c.pipeline.Decode(raw, e.FilterMask); err != nil {
				return nil, errors.Wrapf(err, "decoding chunk %v", e.Offset)
			}
		}
		copyBox(view{buf: out, origin: start, shape: count},
			view{buf: raw, origin: e.Offset, shape: c.chunk},
			lo, hi, c.elem)
	}
	return out, nil
}

// clip sets [lo, hi) to the part of the chunk at offset that lies inside
// both the selection and the dataset, and reports whether it is non-empty.
func (c *Chunked) clip(offset, start, stop, lo, hi []uint64) bool {
	for d := range offset {
		lo[d] = max(start[d], offset[d])
		hi[d] = min(stop[d], offset[d]+c.chunk[d], c.dims[d])
		if lo[d] >= hi[d] {
			return false
		}
	}
	return true
}

// chunkBytes is the size of an unfiltered chunk.
func (c *Chunked) chunkBytes() uint64 {
	return product(c.chunk) * c.elem
}

// grid returns the number of chunks along each axis.
func (c *Chunked) grid() []uint64 {
	g := make([]uint64, len(c.dims))
	for d := range g {
		g[d] = (c.dims[d] + c.chunk[d] - 1) / c.chunk[d]
	}
	return g
}

// offsetOf returns the first element of the i-th chunk in row-major chunk
// order.
func (c *Chunked) offsetOf(i uint64, grid []uint64) []uint64 {
	off := make([]uint64, len(grid))
	for d := len(grid) - 1; d >= 0; d-- {
		off[d] = i % grid[d] * c.chunk[d]
		i /= grid[d]
	}
	return off
}
