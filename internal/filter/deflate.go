package filter

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/internal/message"
)

// Deflate inflates zlib streams. One Deflate reuses its decompressor for
// every chunk of a dataset.
type Deflate struct {
	zr io.ReadCloser
}

func NewDeflate() *Deflate {
	return &Deflate{}
}

func (*Deflate) ID() uint16 { return message.FilterDeflate }

func (d *Deflate) Decode(input []byte) ([]byte, error) {
	src := bytes.NewReader(input)
	if d.zr == nil {
		zr, err := zlib.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, "opening zlib stream")
		}
		d.zr = zr
	} else if err := d.zr.(zlib.Resetter).Reset(src, nil); err != nil {
		return nil, errors.Wrap(err, "opening zlib stream")
	}

	var out bytes.Buffer
	out.Grow(4 * len(input))
	if _, err := out.ReadFrom(d.zr); err != nil {
		return nil, errors.Wrap(err, "inflating")
	}
	return out.Bytes(), nil
}
