package hdf5

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	ibinary "github.com/robert-malhotra/h5grove/internal/binary"
	"github.com/robert-malhotra/h5grove/internal/heap"
	"github.com/robert-malhotra/h5grove/internal/message"
)

// Attribute is a named value attached to a group or dataset.
type Attribute struct {
	msg    *message.Attribute
	reader *ibinary.Reader // global heap access for variable-length values
}

func (a *Attribute) Name() string {
	return a.msg.Name
}

// Shape returns the dimensions of the value, nil for scalars.
func (a *Attribute) Shape() []uint64 {
	if a.scalar() {
		return nil
	}
	return a.msg.Dataspace.Dimensions
}

func (a *Attribute) scalar() bool {
	return a.msg.Dataspace == nil || a.msg.Dataspace.IsScalar()
}

// NumElements returns the number of stored elements, 1 for scalars.
func (a *Attribute) NumElements() int {
	if a.msg.Dataspace == nil {
		return 1
	}
	return int(a.msg.Dataspace.NumElements())
}

// Datatype describes the element encoding of the attribute.
func (a *Attribute) Datatype() Datatype {
	return newDatatype(a.msg.Datatype)
}

// Raw returns the stored bytes of the value in file byte order. Elements of
// variable-length types are global heap references.
func (a *Attribute) Raw() ([]byte, error) {
	if a.msg.Datatype == nil {
		return nil, errors.Errorf("attribute %s has no datatype", a.msg.Name)
	}
	want := a.NumElements() * int(a.msg.Datatype.Size)
	if len(a.msg.Data) < want {
		return nil, errors.Errorf("attribute %s holds %d bytes, need %d", a.msg.Name, len(a.msg.Data), want)
	}
	return a.msg.Data[:want], nil
}

// Strings decodes a fixed or variable-length string attribute, one string
// per element. Fixed-length values lose their padding.
func (a *Attribute) Strings() ([]string, error) {
	raw, err := a.Raw()
	if err != nil {
		return nil, err
	}
	dt := a.msg.Datatype
	n := a.NumElements()

	switch {
	case dt.Class == message.ClassString:
		size := int(dt.Size)
		out := make([]string, n)
		for i := range out {
			out[i] = TrimString(raw[i*size:(i+1)*size], dt.StringPadding == message.PadSpacePad)
		}
		return out, nil
	case dt.Class == message.ClassVarLen && dt.IsVarLenString:
		return a.varLenStrings(raw, n)
	}
	return nil, errors.Errorf("attribute %s is not a string", a.msg.Name)
}

// varLenStrings resolves references of the form sequence length (4 bytes),
// collection address and object index (4 bytes) through the global heap.
func (a *Attribute) varLenStrings(raw []byte, n int) ([]string, error) {
	offsetSize := a.reader.OffsetSize()
	refSize := 4 + offsetSize + 4
	heaps := make(map[uint64]*heap.GlobalHeap)

	out := make([]string, n)
	for i := range out {
		ref := raw[i*refSize : (i+1)*refSize]
		length := binary.LittleEndian.Uint32(ref)
		id, err := heap.ParseGlobalHeapID(ref[4:], offsetSize)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s element %d", a.msg.Name, i)
		}
		if id.CollectionAddress == 0 || length == 0 {
			continue
		}

		gh, ok := heaps[id.CollectionAddress]
		if !ok {
			gh, err = heap.ReadGlobalHeap(a.reader, id.CollectionAddress)
			if err != nil {
				return nil, errors.Wrapf(err, "reading global heap at 0x%x", id.CollectionAddress)
			}
			heaps[id.CollectionAddress] = gh
		}
		obj, err := gh.GetObject(uint16(id.ObjectIndex))
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s element %d", a.msg.Name, i)
		}
		if int(length) < len(obj) {
			obj = obj[:length]
		}
		out[i] = string(obj)
	}
	return out, nil
}

// TrimString strips the NUL terminator or padding of a fixed-length string.
func TrimString(b []byte, spacePadded bool) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if spacePadded {
		b = bytes.TrimRight(b, " ")
	}
	return string(b)
}
