package message

import (
	"github.com/robert-malhotra/h5grove/internal/binary"
)

type LayoutClass uint8

const (
	LayoutCompact    LayoutClass = 0
	LayoutContiguous LayoutClass = 1
	LayoutChunked    LayoutClass = 2
	LayoutVirtual    LayoutClass = 3
)

// ChunkIndexType identifies the chunk index of a version 4 layout. Older
// layouts always index chunks with a version 1 B-tree.
type ChunkIndexType uint8

const (
	ChunkIndexBTreeV1         ChunkIndexType = 0
	ChunkIndexSingleChunk     ChunkIndexType = 1
	ChunkIndexImplicit        ChunkIndexType = 2
	ChunkIndexFixedArray      ChunkIndexType = 3
	ChunkIndexExtensibleArray ChunkIndexType = 4
	ChunkIndexBTreeV2         ChunkIndexType = 5
)

// chunkFlagSingleChunkFiltered marks a single chunk index that stores the
// filtered chunk size and mask.
const chunkFlagSingleChunkFiltered = 0x02

// DataLayout says where the raw data of a dataset lives.
type DataLayout struct {
	Version uint8
	Class   LayoutClass

	CompactData []byte

	// Contiguous storage.
	Address uint64
	Size    uint64

	// ChunkDims holds the chunk shape followed by the element size, as
	// stored in the file.
	ChunkDims      []uint32
	ChunkIndexAddr uint64
	ChunkIndexType ChunkIndexType
	ChunkFlags     uint8

	// A filtered single chunk records its stored size and filter mask.
	FilteredChunkSize uint64
	FilterMask        uint32
}

func (m *DataLayout) Type() Type { return TypeDataLayout }

func parseDataLayout(data []byte, r *binary.Reader) (*DataLayout, error) {
	b := newBody(data, r)
	l := &DataLayout{Version: b.u8()}
	switch l.Version {
	case 1, 2:
		decodeLegacyLayout(b, l)
	case 3, 4:
		decodeLayout(b, l)
	default:
		b.fail("unsupported data layout version %d", l.Version)
	}
	return finish(l, b, "data layout")
}

// decodeLegacyLayout reads versions 1 and 2. Chunked dimensions end with the
// element size. Contiguous ones repeat the dataset shape and are dropped.
func decodeLegacyLayout(b *body, l *DataLayout) {
	rank := int(b.u8())
	l.Class = LayoutClass(b.u8())
	b.skip(5)

	if l.Class != LayoutCompact {
		addr := b.offset()
		if l.Class == LayoutChunked {
			l.ChunkIndexAddr = addr
		} else {
			l.Address = addr
		}
	}
	dims := make([]uint32, rank)
	for i := range dims {
		dims[i] = b.u32()
	}

	switch l.Class {
	case LayoutCompact:
		l.CompactData = b.bytes(int(b.u32()))
	case LayoutChunked:
		l.ChunkIndexType = ChunkIndexBTreeV1
		l.ChunkDims = dims
	}
}

func decodeLayout(b *body, l *DataLayout) {
	l.Class = LayoutClass(b.u8())
	switch l.Class {
	case LayoutCompact:
		l.CompactData = b.bytes(int(b.u16()))
	case LayoutContiguous:
		l.Address = b.offset()
		l.Size = b.length()
	case LayoutChunked:
		if l.Version == 3 {
			rank := int(b.u8())
			l.ChunkIndexType = ChunkIndexBTreeV1
			l.ChunkIndexAddr = b.offset()
			l.ChunkDims = make([]uint32, rank)
			for i := range l.ChunkDims {
				l.ChunkDims[i] = b.u32()
			}
			return
		}
		decodeChunkIndex(b, l)
	case LayoutVirtual:
		b.fail("virtual datasets are not supported")
	default:
		b.fail("unknown layout class %d", l.Class)
	}
}

// decodeChunkIndex reads the version 4 chunked layout: flags, chunk
// dimensions of a stated width, and the index type with its parameters.
func decodeChunkIndex(b *body, l *DataLayout) {
	l.ChunkFlags = b.u8()
	rank := int(b.u8())
	width := int(b.u8())
	l.ChunkDims = make([]uint32, rank)
	for i := range l.ChunkDims {
		l.ChunkDims[i] = uint32(b.uintN(width))
	}

	l.ChunkIndexType = ChunkIndexType(b.u8())
	switch l.ChunkIndexType {
	case ChunkIndexSingleChunk:
		if l.ChunkFlags&chunkFlagSingleChunkFiltered != 0 {
			l.FilteredChunkSize = b.length()
			l.FilterMask = b.u32()
		}
	case ChunkIndexImplicit:
	case ChunkIndexFixedArray:
		// Page bits.
		b.skip(1)
	case ChunkIndexExtensibleArray:
		b.skip(5)
	case ChunkIndexBTreeV2:
		// Node size, split and merge percents.
		b.skip(6)
	default:
		b.fail("unknown chunk index type %d", l.ChunkIndexType)
	}
	l.ChunkIndexAddr = b.offset()
}
