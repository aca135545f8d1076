package h5grove

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var npyMagic = []byte("\x93NUMPY")

// WriteNpy writes a in NumPy .npy format 1.0, elements in C order.
func WriteNpy(w io.Writer, a *Array) error {
	header := npyHeader(a.DType, a.Shape)
	if len(header) > 0xffff {
		return errors.Errorf("npy header of %d bytes is too long", len(header))
	}

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing npy header")
	}
	_, err := w.Write(a.Bytes())
	return errors.Wrap(err, "writing npy data")
}

// npyHeader renders the header dict, padded with spaces so that the data
// starts on a 64 byte boundary.
func npyHeader(dt DType, shape []int) string {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}
	tuple := "(" + strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += ","
	}
	tuple += ")"

	h := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", dt, tuple)
	total := len(npyMagic) + 2 + 2 + len(h) + 1
	if pad := (64 - total%64) % 64; pad > 0 {
		h += strings.Repeat(" ", pad)
	}
	return h + "\n"
}

var (
	npyDescr   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	npyFortran = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	npyShape   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// ReadNpy reads an array in .npy format 1.0, 2.0 or 3.0. Fortran-ordered
// data is returned with Fortran strides.
func ReadNpy(r io.Reader) (*Array, error) {
	prefix := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, errors.Wrap(err, "reading npy magic")
	}
	if !bytes.Equal(prefix[:len(npyMagic)], npyMagic) {
		return nil, errors.New("not an npy file")
	}

	var hlen int
	switch major := prefix[len(npyMagic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, errors.Wrap(err, "reading npy header length")
		}
		hlen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, errors.Wrap(err, "reading npy header length")
		}
		hlen = int(n)
	default:
		return nil, errors.Errorf("unsupported npy version %d", major)
	}

	header := make([]byte, hlen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errors.Wrap(err, "reading npy header")
	}

	m := npyDescr.FindSubmatch(header)
	if m == nil {
		return nil, errors.Errorf("npy header has no descr: %q", header)
	}
	dt, err := ParseDType(string(m[1]))
	if err != nil {
		return nil, errors.Wrap(err, "npy descr")
	}

	fortran := false
	if m := npyFortran.FindSubmatch(header); m != nil {
		fortran = string(m[1]) == "True"
	}

	m = npyShape.FindSubmatch(header)
	if m == nil {
		return nil, errors.Errorf("npy header has no shape: %q", header)
	}
	shape := []int{}
	for _, f := range strings.Split(string(m[1]), ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		d, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.Wrapf(err, "npy shape %q", m[1])
		}
		shape = append(shape, d)
	}

	data := make([]byte, numElements(shape)*dt.Size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.Wrap(err, "reading npy data")
	}

	a, err := NewArray(dt, shape, data)
	if err != nil {
		return nil, err
	}
	if fortran {
		s := dt.Size
		for i := range shape {
			a.Strides[i] = s
			s *= shape[i]
		}
	}
	return a, nil
}
