package h5grove

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Format is an output encoding for arrays.
type Format string

const (
	FormatJSON Format = "json"
	FormatNpy  Format = "npy"
	FormatBin  Format = "bin"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatNpy, FormatBin:
		return f, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%q", s)
}

// Encode writes a to w in format f.
//
// JSON renders nested lists (a bare value for 0-d arrays) with NaN and
// infinities as null. npy writes a .npy file. bin writes the raw elements
// in C order, in a's dtype.
func Encode(w io.Writer, a *Array, f Format) error {
	switch f {
	case FormatJSON:
		b, err := MarshalArrayJSON(a)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return errors.Wrap(err, "writing json")
	case FormatNpy:
		return WriteNpy(w, a)
	case FormatBin:
		_, err := w.Write(a.Bytes())
		return errors.Wrap(err, "writing binary data")
	}
	return errors.Wrapf(ErrUnsupportedFormat, "%q", f)
}

// MarshalArrayJSON renders a as nested JSON lists.
func MarshalArrayJSON(a *Array) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, a, 0, a.Offset); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, a *Array, dim, off int) error {
	if dim == len(a.Shape) {
		return writeJSONElement(buf, a.DType, a.Data[off:off+a.DType.Size])
	}
	buf.WriteByte('[')
	for i := 0; i < a.Shape[dim]; i++ {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := writeJSON(buf, a, dim+1, off+i*a.Strides[dim]); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeJSONElement(buf *bytes.Buffer, dt DType, b []byte) error {
	switch dt.Kind {
	case 'S':
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
		return writeJSONString(buf, string(b))
	case 'U':
		order := dt.ByteOrder()
		var sb strings.Builder
		for i := 0; i+4 <= len(b); i += 4 {
			r := rune(order.Uint32(b[i:]))
			if r == 0 {
				break
			}
			sb.WriteRune(r)
		}
		return writeJSONString(buf, sb.String())
	case 'b':
		buf.WriteString(strconv.FormatBool(b[0] != 0))
		return nil
	}

	e, err := decodeElement(dt, b)
	if err != nil {
		return &DtypeError{DType: dt}
	}
	switch dt.Kind {
	case 'i':
		buf.WriteString(strconv.FormatInt(e.i, 10))
	case 'u':
		buf.WriteString(strconv.FormatUint(e.u, 10))
	default:
		if math.IsNaN(e.f) || math.IsInf(e.f, 0) {
			buf.WriteString("null")
			return nil
		}
		bits := 64
		if dt.Size <= 4 {
			bits = 32
		}
		buf.WriteString(formatFloat(e.f, bits))
	}
	return nil
}

// formatFloat renders the shortest representation that round-trips, keeping
// a decimal point on integral values as Python does.
func formatFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if strings.ContainsAny(s, ".eE") {
		if i := strings.Index(s, "e"); i >= 0 && !strings.Contains(s[:i], ".") {
			return s[:i] + ".0" + s[i:]
		}
		return s
	}
	return s + ".0"
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding string")
	}
	buf.Write(b)
	return nil
}
