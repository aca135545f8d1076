package fixture

import (
	"github.com/pkg/errors"
)

// Chunk index types of version 4 layout messages.
const (
	indexSingleChunk byte = 1
	indexImplicit    byte = 2
	indexFixedArray  byte = 3
	indexBTreeV2     byte = 5
)

type chunk struct {
	coords []uint64 // chunk grid coordinates
	data   []byte   // stored bytes, after filtering
	addr   uint64
}

// chunked writes the chunks and their index, returning the layout message.
func (w *writer) chunked(d *Dataset) ([]byte, error) {
	rank := len(d.Shape)
	if rank == 0 || len(d.Chunks) != rank {
		return nil, errors.Errorf("chunk shape %v does not match dataset shape %v", d.Chunks, d.Shape)
	}

	chunks, err := splitChunks(d)
	if err != nil {
		return nil, err
	}

	index := d.Index
	if index == AutoIndex {
		index = FixedArrayIndex
		if len(chunks) == 1 {
			index = SingleChunkIndex
		}
	}

	var flags byte
	var indexType byte
	var params []byte
	var addr uint64

	switch index {
	case SingleChunkIndex:
		if len(chunks) != 1 {
			return nil, errors.Errorf("single chunk index for %d chunks", len(chunks))
		}
		indexType = indexSingleChunk
		addr = w.alloc(chunks[0].data)
		if d.filtered() {
			flags |= 0x02
			params = appendUint64(params, uint64(len(chunks[0].data)))
			params = appendUint32(params, 0)
		}

	case ImplicitIndex:
		if d.filtered() {
			return nil, errors.New("implicit chunk index cannot hold filtered chunks")
		}
		indexType = indexImplicit
		var all []byte
		for _, c := range chunks {
			all = append(all, c.data...)
		}
		addr = w.alloc(all)

	case FixedArrayIndex:
		indexType = indexFixedArray
		params = []byte{10} // page bits
		addr = w.fixedArray(chunks, d.filtered())

	case BTreeV2Index:
		indexType = indexBTreeV2
		params = appendUint32(params, 512)
		params = append(params, 100, 40)
		addr = w.btreeV2(chunks, d.filtered())

	default:
		return nil, errors.Errorf("unknown chunk index %d", index)
	}

	b := []byte{4, 2, flags, byte(rank + 1), 4}
	for _, c := range d.Chunks {
		b = appendUint32(b, uint32(c))
	}
	b = appendUint32(b, uint32(d.Type.size))
	b = append(b, indexType)
	b = append(b, params...)
	return appendUint64(b, addr), nil
}

// splitChunks cuts the dataset into chunks in row-major grid order. Edge
// chunks are padded with zeros.
func splitChunks(d *Dataset) ([]chunk, error) {
	rank := len(d.Shape)
	size := d.Type.size
	grid := make([]uint64, rank)
	numChunks := 1
	chunkElems := 1
	for i := range d.Shape {
		grid[i] = (d.Shape[i] + d.Chunks[i] - 1) / d.Chunks[i]
		numChunks *= int(grid[i])
		chunkElems *= int(d.Chunks[i])
	}

	strides := make([]uint64, rank)
	strides[rank-1] = 1
	for i := rank - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * d.Shape[i+1]
	}

	chunks := make([]chunk, numChunks)
	for n := range chunks {
		coords := make([]uint64, rank)
		rem := uint64(n)
		for i := rank - 1; i >= 0; i-- {
			coords[i] = rem % grid[i]
			rem /= grid[i]
		}

		raw := make([]byte, chunkElems*size)
		for e := 0; e < chunkElems; e++ {
			rem := uint64(e)
			var src uint64
			inside := true
			for i := rank - 1; i >= 0; i-- {
				pos := coords[i]*d.Chunks[i] + rem%d.Chunks[i]
				rem /= d.Chunks[i]
				if pos >= d.Shape[i] {
					inside = false
					break
				}
				src += pos * strides[i]
			}
			if inside {
				copy(raw[e*size:(e+1)*size], d.Data[int(src)*size:])
			}
		}

		if d.Shuffle {
			raw = shuffle(raw, size)
		}
		if d.Deflate {
			var err error
			if raw, err = deflate(raw); err != nil {
				return nil, errors.Wrap(err, "compressing chunk")
			}
		}
		chunks[n] = chunk{coords: coords, data: raw}
	}
	return chunks, nil
}

// fixedArray writes the chunks, then a fixed array header ("FAHD") and its
// single data block ("FADB"). Records of filtered chunks carry a 4-byte
// chunk size and the filter mask.
func (w *writer) fixedArray(chunks []chunk, filtered bool) uint64 {
	for i := range chunks {
		chunks[i].addr = w.alloc(chunks[i].data)
	}

	entrySize, client := byte(8), byte(0)
	if filtered {
		entrySize, client = 16, 1
	}

	hdr := []byte{'F', 'A', 'H', 'D', 0, client, entrySize, 10}
	hdr = appendUint64(hdr, uint64(len(chunks)))
	blockField := len(hdr)
	hdr = appendUint64(hdr, undefined)
	hdrAddr := w.alloc(checksummed(hdr))

	block := []byte{'F', 'A', 'D', 'B', 0, client}
	block = appendUint64(block, hdrAddr)
	for _, c := range chunks {
		block = appendUint64(block, c.addr)
		if filtered {
			block = appendUint32(block, uint32(len(c.data)))
			block = appendUint32(block, 0)
		}
	}
	blockAddr := w.alloc(checksummed(block))

	// Point the header at the block now that its address is known.
	le.PutUint64(hdr[blockField:], blockAddr)
	copy(w.buf[hdrAddr:], checksummed(hdr))
	return hdrAddr
}

// btreeV2 writes the chunks and a depth 0 version 2 B-tree of type 10
// (unfiltered) or 11 (filtered) records holding them.
func (w *writer) btreeV2(chunks []chunk, filtered bool) uint64 {
	rank := len(chunks[0].coords)
	typ := byte(10)
	recordSize := 8 + 8*rank
	if filtered {
		typ = 11
		recordSize += 4 + 4
	}

	leaf := []byte{'B', 'T', 'L', 'F', 0, typ}
	for i := range chunks {
		c := &chunks[i]
		c.addr = w.alloc(c.data)
		leaf = appendUint64(leaf, c.addr)
		if filtered {
			leaf = appendUint32(leaf, uint32(len(c.data)))
			leaf = appendUint32(leaf, 0)
		}
		for _, x := range c.coords {
			leaf = appendUint64(leaf, x)
		}
	}
	leafAddr := w.alloc(checksummed(leaf))

	hdr := []byte{'B', 'T', 'H', 'D', 0, typ}
	hdr = appendUint32(hdr, 512)
	hdr = appendUint16(hdr, uint16(recordSize))
	hdr = appendUint16(hdr, 0) // depth
	hdr = append(hdr, 100, 40)
	hdr = appendUint64(hdr, leafAddr)
	hdr = appendUint16(hdr, uint16(len(chunks)))
	hdr = appendUint64(hdr, uint64(len(chunks)))
	return w.alloc(checksummed(hdr))
}
