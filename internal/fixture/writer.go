package fixture

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"

	ibinary "github.com/robert-malhotra/h5grove/internal/binary"
)

const (
	superblockSize = 48
	undefined      = ^uint64(0)
)

// Header message types.
const (
	msgDataspace      byte = 0x01
	msgLinkInfo       byte = 0x02
	msgDatatype       byte = 0x03
	msgFillValue      byte = 0x05
	msgLink           byte = 0x06
	msgDataLayout     byte = 0x08
	msgGroupInfo      byte = 0x0a
	msgFilterPipeline byte = 0x0b
	msgAttribute      byte = 0x0c
)

type headerMessage struct {
	typ  byte
	data []byte
}

// writer appends file structures at 8-byte aligned addresses. Objects are
// written before the structures that point at them.
type writer struct {
	buf []byte
}

func (w *writer) alloc(b []byte) uint64 {
	for len(w.buf)%8 != 0 {
		w.buf = append(w.buf, 0)
	}
	addr := uint64(len(w.buf))
	w.buf = append(w.buf, b...)
	return addr
}

// checksummed appends the Jenkins lookup3 checksum of b.
func checksummed(b []byte) []byte {
	return appendUint32(b, ibinary.Lookup3Checksum(b))
}

func superblock(root, eof uint64) []byte {
	b := []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n', 2, 8, 8, 0}
	b = appendUint64(b, 0)
	b = appendUint64(b, undefined)
	b = appendUint64(b, eof)
	b = appendUint64(b, root)
	return checksummed(b)
}

// header writes a version 2 object header holding msgs.
func (w *writer) header(msgs []headerMessage) (uint64, error) {
	var body []byte
	for _, m := range msgs {
		if len(m.data) > 0xffff {
			return 0, errors.Errorf("header message of type %d is %d bytes", m.typ, len(m.data))
		}
		body = append(body, m.typ)
		body = appendUint16(body, uint16(len(m.data)))
		body = append(body, 0)
		body = append(body, m.data...)
	}

	b := []byte{'O', 'H', 'D', 'R', 2, 0x02}
	b = appendUint32(b, uint32(len(body)))
	b = append(b, body...)
	return w.alloc(checksummed(b)), nil
}

func (w *writer) group(g *Group) (uint64, error) {
	linkInfo := []byte{0, 0}
	linkInfo = appendUint64(linkInfo, undefined)
	linkInfo = appendUint64(linkInfo, undefined)
	msgs := []headerMessage{
		{msgLinkInfo, linkInfo},
		{msgGroupInfo, []byte{0, 0}},
	}

	for _, l := range g.links {
		var typ byte
		var value []byte
		switch l.kind {
		case hardGroup, hardDataset:
			var addr uint64
			var err error
			if l.kind == hardGroup {
				addr, err = w.group(l.group)
			} else {
				addr, err = w.dataset(l.dataset)
			}
			if err != nil {
				return 0, errors.Wrapf(err, "writing %s", l.name)
			}
			value = appendUint64(nil, addr)
		case softLink:
			typ = 1
			value = appendUint16(nil, uint16(len(l.target)))
			value = append(value, l.target...)
		case externalLink:
			typ = 64
			ext := append([]byte{0}, l.file...)
			ext = append(ext, 0)
			ext = append(ext, l.target...)
			ext = append(ext, 0)
			value = appendUint16(nil, uint16(len(ext)))
			value = append(value, ext...)
		}
		msgs = append(msgs, headerMessage{msgLink, linkMessage(l.name, typ, value)})
	}

	attrs, err := w.attributes(g.Attrs)
	if err != nil {
		return 0, err
	}
	return w.header(append(msgs, attrs...))
}

// linkMessage encodes a link with a one-byte name length. Hard links leave
// the type out.
func linkMessage(name string, typ byte, value []byte) []byte {
	b := []byte{1, 0}
	if typ != 0 {
		b[1] |= 0x08
		b = append(b, typ)
	}
	b = append(b, byte(len(name)))
	b = append(b, name...)
	return append(b, value...)
}

func dataspace(shape []uint64) []byte {
	if shape == nil {
		return []byte{2, 0, 0, 0}
	}
	b := []byte{2, byte(len(shape)), 0, 1}
	for _, d := range shape {
		b = appendUint64(b, d)
	}
	return b
}

func (w *writer) attributes(attrs []Attr) ([]headerMessage, error) {
	var msgs []headerMessage
	for _, a := range attrs {
		data := a.Data
		if a.Type.class == classVarLen {
			data = w.varStrings(a.Strings)
		}
		n := 1
		for _, d := range a.Shape {
			n *= int(d)
		}
		if len(data) != n*a.Type.size {
			return nil, errors.Errorf("attribute %s holds %d bytes, want %d", a.Name, len(data), n*a.Type.size)
		}

		dt := a.Type.encode()
		ds := dataspace(a.Shape)
		b := []byte{3, 0}
		b = appendUint16(b, uint16(len(a.Name)+1))
		b = appendUint16(b, uint16(len(dt)))
		b = appendUint16(b, uint16(len(ds)))
		b = append(b, 0) // ASCII name
		b = append(b, a.Name...)
		b = append(b, 0)
		b = append(b, dt...)
		b = append(b, ds...)
		b = append(b, data...)
		msgs = append(msgs, headerMessage{msgAttribute, b})
	}
	return msgs, nil
}

// varStrings stores strs in a global heap collection and returns their
// references.
func (w *writer) varStrings(strs []string) []byte {
	var body []byte
	for i, s := range strs {
		body = appendUint16(body, uint16(i+1))
		body = appendUint16(body, 1) // reference count
		body = append(body, 0, 0, 0, 0)
		body = appendUint64(body, uint64(len(s)))
		body = append(body, s...)
		for len(body)%8 != 0 {
			body = append(body, 0)
		}
	}
	// Free space object.
	body = append(body, make([]byte, 16)...)

	heap := []byte{'G', 'C', 'O', 'L', 1, 0, 0, 0}
	heap = appendUint64(heap, uint64(16+len(body)))
	addr := w.alloc(append(heap, body...))

	var refs []byte
	for i, s := range strs {
		refs = appendUint32(refs, uint32(len(s)))
		refs = appendUint64(refs, addr)
		refs = appendUint32(refs, uint32(i+1))
	}
	return refs
}

func (w *writer) dataset(d *Dataset) (uint64, error) {
	unallocated := d.Data == nil && d.Layout == Contiguous
	if want := d.numElements() * d.Type.size; len(d.Data) != want && !unallocated {
		return 0, errors.Errorf("dataset holds %d bytes, want %d", len(d.Data), want)
	}

	msgs := []headerMessage{
		{msgDataspace, dataspace(d.Shape)},
		{msgDatatype, d.Type.encode()},
	}
	if d.Fill != nil {
		if len(d.Fill) != d.Type.size {
			return 0, errors.Errorf("fill value holds %d bytes, want %d", len(d.Fill), d.Type.size)
		}
		// Version 3, late allocation, fill value defined.
		b := []byte{3, 0x02 | 0x20}
		b = appendUint32(b, uint32(len(d.Fill)))
		msgs = append(msgs, headerMessage{msgFillValue, append(b, d.Fill...)})
	}

	switch d.Layout {
	case Contiguous:
		addr := undefined
		if len(d.Data) > 0 {
			addr = w.alloc(d.Data)
		}
		b := []byte{3, 1}
		b = appendUint64(b, addr)
		b = appendUint64(b, uint64(d.numElements()*d.Type.size))
		msgs = append(msgs, headerMessage{msgDataLayout, b})

	case Compact:
		b := []byte{3, 0}
		b = appendUint16(b, uint16(len(d.Data)))
		b = append(b, d.Data...)
		msgs = append(msgs, headerMessage{msgDataLayout, b})

	case Chunked:
		layout, err := w.chunked(d)
		if err != nil {
			return 0, err
		}
		if d.filtered() {
			msgs = append(msgs, headerMessage{msgFilterPipeline, filterPipeline(d)})
		}
		msgs = append(msgs, headerMessage{msgDataLayout, layout})
	}

	attrs, err := w.attributes(d.Attrs)
	if err != nil {
		return 0, err
	}
	return w.header(append(msgs, attrs...))
}

// filterPipeline lists shuffle before deflate, the order they are applied
// when writing.
func filterPipeline(d *Dataset) []byte {
	b := []byte{2, 0}
	if d.Shuffle {
		b[1]++
		b = appendUint16(b, 2)
		b = appendUint16(b, 0)
		b = appendUint16(b, 1)
		b = appendUint32(b, uint32(d.Type.size))
	}
	if d.Deflate {
		b[1]++
		b = appendUint16(b, 1)
		b = appendUint16(b, 0)
		b = appendUint16(b, 1)
		b = appendUint32(b, 4)
	}
	return b
}

func shuffle(b []byte, size int) []byte {
	n := len(b) / size
	out := make([]byte, len(b))
	for i := 0; i < n; i++ {
		for j := 0; j < size; j++ {
			out[j*n+i] = b[i*size+j]
		}
	}
	return out
}

func deflate(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, 4)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var le = binary.LittleEndian
