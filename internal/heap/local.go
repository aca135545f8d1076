package heap

import (
	"bytes"
	"fmt"

	"github.com/robert-malhotra/h5grove/internal/binary"
)

// LocalHeap holds the names of an old-style group's members.
type LocalHeap struct {
	DataSize    uint64
	DataAddress uint64
	data        []byte
}

// ReadLocalHeap reads the "HEAP" block at address and its data segment:
//
//	signature(4) version(1) reserved(3) size(L) free list(L) data(O)
func ReadLocalHeap(r *binary.Reader, address uint64) (*LocalHeap, error) {
	hr := r.At(int64(address))
	head, err := hr.ReadBytes(8)
	if err != nil {
		return nil, fmt.Errorf("reading local heap: %w", err)
	}
	if string(head[:4]) != "HEAP" {
		return nil, fmt.Errorf("invalid local heap signature %q", head[:4])
	}
	if head[4] != 0 {
		return nil, fmt.Errorf("unsupported local heap version %d", head[4])
	}

	h := &LocalHeap{}
	if h.DataSize, err = hr.ReadLength(); err != nil {
		return nil, err
	}
	hr.Skip(int64(r.LengthSize()))
	if h.DataAddress, err = hr.ReadOffset(); err != nil {
		return nil, err
	}
	if h.data, err = r.At(int64(h.DataAddress)).ReadBytes(int(h.DataSize)); err != nil {
		return nil, fmt.Errorf("reading local heap data: %w", err)
	}
	return h, nil
}

// GetString returns the NUL-terminated string at offset, or "" past the
// end of the data segment.
func (h *LocalHeap) GetString(offset uint64) string {
	if offset >= uint64(len(h.data)) {
		return ""
	}
	s := h.data[offset:]
	if end := bytes.IndexByte(s, 0); end >= 0 {
		s = s[:end]
	}
	return string(s)
}
