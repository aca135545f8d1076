package layout

import (
	"github.com/robert-malhotra/h5grove/internal/message"
)

// Compact holds data stored inside the object header.
type Compact struct {
	space
	data []byte
}

func (c *Compact) Class() message.LayoutClass { return message.LayoutCompact }

// Size is the number of bytes stored in the header.
func (c *Compact) Size() int { return len(c.data) }

// Read returns a copy of the stored bytes.
func (c *Compact) Read() ([]byte, error) {
	return append([]byte{}, c.data...), nil
}

func (c *Compact) ReadSlice(start, count []uint64) ([]byte, error) {
	start, count, err := c.selection(start, count)
	if err != nil {
		return nil, err
	}
	out := make([]byte, product(count)*c.elem)
	copyBox(view{buf: out, origin: start, shape: count},
		view{buf: c.data, origin: zeros(len(start)), shape: c.dims},
		start, end(start, count), c.elem)
	return out, nil
}
