package layout

import (
	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/internal/binary"
	"github.com/robert-malhotra/h5grove/internal/message"
)

// Contiguous reads data stored as one block of the file.
type Contiguous struct {
	space
	address uint64
	size    uint64
	reader  *binary.Reader
}

// newContiguous takes the block size from the dataspace when the layout
// message leaves it out, as version 1 and 2 messages do.
func newContiguous(s space, l *message.DataLayout, r *binary.Reader) *Contiguous {
	size := l.Size
	if size == 0 {
		size = s.size()
	}
	return &Contiguous{space: s, address: l.Address, size: size, reader: r}
}

func (c *Contiguous) Class() message.LayoutClass { return message.LayoutContiguous }

func (c *Contiguous) Address() uint64 { return c.address }
func (c *Contiguous) Size() uint64    { return c.size }

func (c *Contiguous) Read() ([]byte, error) {
	if c.size == 0 {
		return []byte{}, nil
	}
	// Storage is allocated on first write.
	if c.reader.IsUndefinedOffset(c.address) {
		return c.filled(c.size / max(c.elem, 1)), nil
	}
	data, err := c.reader.At(int64(c.address)).ReadBytes(int(c.size))
	return data, errors.Wrap(err, "reading contiguous data")
}

// ReadSlice reads only the bytes between the first and last selected
// elements.
func (c *Contiguous) ReadSlice(start, count []uint64) ([]byte, error) {
	start, count, err := c.selection(start, count)
	if err != nil {
		return nil, err
	}
	n := product(count)
	if n == 0 {
		return []byte{}, nil
	}
	if c.reader.IsUndefinedOffset(c.address) {
		return c.filled(n), nil
	}

	st := strides(c.dims, c.elem)
	var first, last uint64
	for d := range start {
		first += start[d] * st[d]
		last += (start[d] + count[d] - 1) * st[d]
	}
	window, err := c.reader.At(int64(c.address + first)).ReadBytes(int(last + c.elem - first))
	if err != nil {
		return nil, errors.Wrap(err, "reading contiguous data")
	}

	out := make([]byte, n*c.elem)
	copyBox(view{buf: out, origin: start, shape: count},
		view{buf: window, origin: zeros(len(start)), shape: c.dims, skip: first},
		start, end(start, count), c.elem)
	return out, nil
}
