package btree

import (
	"fmt"
	"math/bits"

	ibinary "github.com/robert-malhotra/h5grove/internal/binary"
)

// Version 2 B-tree record types of chunk indexes.
const (
	TypeChunk         uint8 = 10
	TypeFilteredChunk uint8 = 11
)

// v2Tree holds the header fields needed to decode nodes.
type v2Tree struct {
	r          *ibinary.Reader
	typ        uint8
	recordSize int
	rank       int
	// countSize is the width of a child's record count. totalSize[d] is
	// the width of the total record count below a child at depth d.
	countSize int
	totalSize []int
}

// ReadChunkIndexV2 lists the chunks of a "BTHD" version 2 B-tree. Entry
// offsets are in chunks, not elements. Records of unfiltered chunks carry
// no size.
func ReadChunkIndexV2(r *ibinary.Reader, addr uint64, rank int) ([]ChunkEntry, error) {
	nr := r.At(int64(addr))
	head, err := nr.ReadBytes(16)
	if err != nil {
		return nil, fmt.Errorf("reading B-tree header: %w", err)
	}
	if string(head[:4]) != "BTHD" {
		return nil, fmt.Errorf("invalid B-tree header signature %q", head[:4])
	}
	if head[4] != 0 {
		return nil, fmt.Errorf("unsupported B-tree header version %d", head[4])
	}
	order := r.ByteOrder()
	t := &v2Tree{
		r:          r,
		typ:        head[5],
		recordSize: int(order.Uint16(head[10:])),
		rank:       rank,
	}
	if t.typ != TypeChunk && t.typ != TypeFilteredChunk {
		return nil, fmt.Errorf("B-tree record type %d does not index chunks", t.typ)
	}
	nodeSize := int(order.Uint32(head[6:]))
	depth := int(order.Uint16(head[12:]))

	root, err := nr.ReadOffset()
	if err != nil {
		return nil, err
	}
	rootCount, err := nr.ReadUint16()
	if err != nil {
		return nil, err
	}
	total, err := nr.ReadLength()
	if err != nil {
		return nil, err
	}
	if total == 0 || r.IsUndefinedOffset(root) {
		return nil, nil
	}

	t.sizeFields(nodeSize, depth)
	var entries []ChunkEntry
	if err := t.node(root, int(rootCount), depth, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// sizeFields derives the count widths the HDF5 library uses from the node
// size: each is the fewest bytes that hold the largest possible count.
func (t *v2Tree) sizeFields(nodeSize, depth int) {
	const prefix = 10 // signature, version, type, checksum
	enc := func(n uint64) int { return (bits.Len64(n)-1)/8 + 1 }

	leafMax := uint64((nodeSize - prefix) / t.recordSize)
	t.countSize = enc(leafMax)
	t.totalSize = make([]int, depth+1)

	cum := leafMax
	for d := 1; d <= depth; d++ {
		ptr := t.r.OffsetSize() + t.countSize
		if d > 1 {
			ptr += t.totalSize[d-1]
		}
		most := uint64((nodeSize - prefix - ptr) / (t.recordSize + ptr))
		cum = (most+1)*cum + most
		t.totalSize[d] = enc(cum)
	}
}

// node appends the records of the node at addr and, below depth 0, of its
// children in key order.
func (t *v2Tree) node(addr uint64, count, depth int, out *[]ChunkEntry) error {
	sig := "BTLF"
	if depth > 0 {
		sig = "BTIN"
	}
	nr := t.r.At(int64(addr))
	head, err := nr.ReadBytes(6)
	if err != nil {
		return err
	}
	if string(head[:4]) != sig {
		return fmt.Errorf("invalid B-tree node signature %q, want %s", head[:4], sig)
	}
	if head[4] != 0 {
		return fmt.Errorf("unsupported B-tree node version %d", head[4])
	}

	records := nr
	children := t.r.At(nr.Pos() + int64(count*t.recordSize))
	for i := 0; i <= count; i++ {
		if depth > 0 {
			child, err := children.ReadOffset()
			if err != nil {
				return err
			}
			n, err := children.ReadUintN(t.countSize)
			if err != nil {
				return err
			}
			if depth > 1 {
				children.Skip(int64(t.totalSize[depth-1]))
			}
			if err := t.node(child, int(n), depth-1, out); err != nil {
				return err
			}
		}
		if i == count {
			break
		}
		rec := records.At(records.Pos() + int64(i*t.recordSize))
		e, err := t.record(rec)
		if err != nil {
			return fmt.Errorf("reading record %d: %w", i, err)
		}
		if e.Address != 0 && !t.r.IsUndefinedOffset(e.Address) {
			*out = append(*out, e)
		}
	}
	return nil
}

// record decodes a chunk record: the address, for filtered chunks the
// stored size (taking whatever room is left) and the filter mask, then
// one 8 byte scaled offset per dimension.
func (t *v2Tree) record(nr *ibinary.Reader) (ChunkEntry, error) {
	var e ChunkEntry
	var err error
	if e.Address, err = nr.ReadOffset(); err != nil {
		return e, err
	}
	if t.typ == TypeFilteredChunk {
		n := t.recordSize - t.r.OffsetSize() - 4 - 8*t.rank
		if n < 1 || n > 8 {
			return e, fmt.Errorf("record size %d does not fit %d dimensions", t.recordSize, t.rank)
		}
		size, err := nr.ReadUintN(n)
		if err != nil {
			return e, err
		}
		e.Size = uint32(size)
		if e.FilterMask, err = nr.ReadUint32(); err != nil {
			return e, err
		}
	}
	e.Offset = make([]uint64, t.rank)
	for d := range e.Offset {
		if e.Offset[d], err = nr.ReadUint64(); err != nil {
			return e, err
		}
	}
	return e, nil
}
