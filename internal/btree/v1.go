package btree

import (
	"encoding/binary"
	"fmt"

	ibinary "github.com/robert-malhotra/h5grove/internal/binary"
	"github.com/robert-malhotra/h5grove/internal/heap"
)

// Version 1 B-tree node types.
const (
	groupNodes = 0
	chunkNodes = 1
)

// ChunkEntry locates one stored chunk.
type ChunkEntry struct {
	// Offset is the element coordinate of the chunk's first element.
	Offset []uint64
	// FilterMask bit i set means filter i was not applied to this chunk.
	FilterMask uint32
	// Size is the stored size in bytes, after filtering.
	Size    uint32
	Address uint64
}

// GroupEntry is a member of a group indexed by a symbol table.
type GroupEntry struct {
	Name          string
	ObjectAddress uint64
	// LinkType is 0 for hard links and 1 for soft links.
	LinkType      uint32
	SoftLinkValue string
}

// walkV1 calls visit with the key before each child pointer of every leaf
// under the "TREE" node at addr. Keys are keySize bytes.
func walkV1(r *ibinary.Reader, addr uint64, kind uint8, keySize int, visit func(key []byte, child uint64) error) error {
	return walkV1Node(r, addr, kind, keySize, visit, map[uint64]bool{})
}

func walkV1Node(r *ibinary.Reader, addr uint64, kind uint8, keySize int, visit func([]byte, uint64) error, seen map[uint64]bool) error {
	if seen[addr] {
		return fmt.Errorf("B-tree node %d is reachable twice", addr)
	}
	seen[addr] = true

	nr := r.At(int64(addr))
	head, err := nr.ReadBytes(8)
	if err != nil {
		return fmt.Errorf("reading B-tree node: %w", err)
	}
	if string(head[:4]) != "TREE" {
		return fmt.Errorf("invalid B-tree signature %q", head[:4])
	}
	if head[4] != kind {
		return fmt.Errorf("B-tree node type %d, want %d", head[4], kind)
	}
	level := head[5]
	used := int(binary.LittleEndian.Uint16(head[6:]))
	nr.Skip(2 * int64(r.OffsetSize())) // siblings

	for i := 0; i < used; i++ {
		key, err := nr.ReadBytes(keySize)
		if err != nil {
			return err
		}
		child, err := nr.ReadOffset()
		if err != nil {
			return err
		}
		if level > 0 {
			err = walkV1Node(r, child, kind, keySize, visit, seen)
		} else {
			err = visit(key, child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadChunkIndex lists the chunks of a dataset indexed by a version 1
// B-tree. Keys hold the chunk size, the filter mask and rank+1 element
// offsets, the last being the offset into the element itself.
func ReadChunkIndex(r *ibinary.Reader, addr uint64, rank int) ([]ChunkEntry, error) {
	var entries []ChunkEntry
	err := walkV1(r, addr, chunkNodes, 8+8*(rank+1), func(key []byte, child uint64) error {
		size := binary.LittleEndian.Uint32(key)
		if r.IsUndefinedOffset(child) || size == 0 {
			return nil
		}
		e := ChunkEntry{
			Size:       size,
			FilterMask: binary.LittleEndian.Uint32(key[4:]),
			Address:    child,
			Offset:     make([]uint64, rank),
		}
		for d := range e.Offset {
			e.Offset[d] = binary.LittleEndian.Uint64(key[8+8*d:])
		}
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// ReadGroupEntries lists the members of a group indexed by a version 1
// B-tree whose leaves point at symbol table nodes. Names live in the
// group's local heap.
func ReadGroupEntries(r *ibinary.Reader, addr uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	var entries []GroupEntry
	err := walkV1(r, addr, groupNodes, r.LengthSize(), func(_ []byte, snod uint64) error {
		got, err := readSymbolNode(r, snod, names)
		if err != nil {
			return fmt.Errorf("reading symbol table node: %w", err)
		}
		entries = append(entries, got...)
		return nil
	})
	return entries, err
}

// readSymbolNode reads an "SNOD" node of symbol table entries:
//
//	name offset, header address, cache type(4), reserved(4), scratch(16)
func readSymbolNode(r *ibinary.Reader, addr uint64, names *heap.LocalHeap) ([]GroupEntry, error) {
	nr := r.At(int64(addr))
	head, err := nr.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	if string(head[:4]) != "SNOD" {
		return nil, fmt.Errorf("invalid symbol table node signature %q", head[:4])
	}
	if head[4] != 1 {
		return nil, fmt.Errorf("unsupported symbol table node version %d", head[4])
	}

	n := int(binary.LittleEndian.Uint16(head[6:]))
	entries := make([]GroupEntry, 0, n)
	for i := 0; i < n; i++ {
		nameOff, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}
		obj, err := nr.ReadOffset()
		if err != nil {
			return nil, err
		}
		rest, err := nr.ReadBytes(24)
		if err != nil {
			return nil, err
		}

		e := GroupEntry{Name: names.GetString(nameOff), ObjectAddress: obj}
		if e.Name == "" {
			continue
		}
		if binary.LittleEndian.Uint32(rest) == 2 {
			// The scratch pad holds the heap offset of the link value.
			e.LinkType = 1
			e.ObjectAddress = 0
			e.SoftLinkValue = names.GetString(uint64(binary.LittleEndian.Uint32(rest[8:])))
		}
		entries = append(entries, e)
	}
	return entries, nil
}
