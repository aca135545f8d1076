package heap

import (
	"encoding/binary"
	"fmt"

	ibinary "github.com/robert-malhotra/h5grove/internal/binary"
)

// GlobalHeap is a "GCOL" collection of numbered objects, which hold the
// values of variable-length strings and sequences.
type GlobalHeap struct {
	objects map[uint16][]byte
}

// GlobalHeapID is the reference stored in place of a variable-length
// value.
type GlobalHeapID struct {
	CollectionAddress uint64
	ObjectIndex       uint32
}

// ReadGlobalHeap reads the collection at address. Objects are read up to
// the free space object, index 0, or the end of the collection.
func ReadGlobalHeap(r *ibinary.Reader, address uint64) (*GlobalHeap, error) {
	if address == 0 || r.IsUndefinedOffset(address) {
		return nil, fmt.Errorf("invalid global heap address %#x", address)
	}
	hr := r.At(int64(address))
	head, err := hr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("reading global heap: %w", err)
	}
	if string(head[:4]) != "GCOL" {
		return nil, fmt.Errorf("invalid global heap signature %q", head[:4])
	}
	if head[4] != 1 {
		return nil, fmt.Errorf("unsupported global heap version %d", head[4])
	}
	size, err := hr.ReadLength()
	if err != nil {
		return nil, err
	}

	h := &GlobalHeap{objects: make(map[uint16][]byte)}
	end := int64(address) + int64(size)
	objHead := int64(8 + r.LengthSize())
	for hr.Pos()+objHead <= end {
		index, err := hr.ReadUint16()
		if err != nil || index == 0 {
			break
		}
		hr.Skip(6) // reference count, reserved
		n, err := hr.ReadLength()
		if err != nil {
			break
		}
		if n > 0 {
			obj, err := hr.ReadBytes(int(n))
			if err != nil {
				break
			}
			h.objects[index] = obj
		}
		hr.Align(8)
	}
	return h, nil
}

// GetObject returns a copy of object index.
func (h *GlobalHeap) GetObject(index uint16) ([]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("no global heap")
	}
	obj, ok := h.objects[index]
	if !ok {
		return nil, fmt.Errorf("global heap has no object %d", index)
	}
	return append([]byte(nil), obj...), nil
}

// ParseGlobalHeapID decodes a collection address of offsetSize bytes and a
// 4 byte object index.
func ParseGlobalHeapID(data []byte, offsetSize int) (GlobalHeapID, error) {
	if len(data) < offsetSize+4 {
		return GlobalHeapID{}, fmt.Errorf("global heap ID needs %d bytes, have %d", offsetSize+4, len(data))
	}
	var id GlobalHeapID
	switch offsetSize {
	case 2:
		id.CollectionAddress = uint64(binary.LittleEndian.Uint16(data))
	case 4:
		id.CollectionAddress = uint64(binary.LittleEndian.Uint32(data))
	case 8:
		id.CollectionAddress = binary.LittleEndian.Uint64(data)
	default:
		return GlobalHeapID{}, fmt.Errorf("unsupported offset size %d", offsetSize)
	}
	id.ObjectIndex = binary.LittleEndian.Uint32(data[offsetSize:])
	return id, nil
}
