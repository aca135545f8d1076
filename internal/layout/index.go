package layout

import (
	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/internal/binary"
	"github.com/robert-malhotra/h5grove/internal/btree"
	"github.com/robert-malhotra/h5grove/internal/message"
)

// entries lists the allocated chunks through the dataset's chunk index.
// Offsets are element coordinates of each chunk's first element.
func (c *Chunked) entries() ([]btree.ChunkEntry, error) {
	addr := c.layout.ChunkIndexAddr
	if c.reader.IsUndefinedOffset(addr) {
		return nil, nil
	}
	rank := len(c.dims)

	switch c.layout.ChunkIndexType {
	case message.ChunkIndexBTreeV1:
		return btree.ReadChunkIndex(c.reader, addr, rank)

	case message.ChunkIndexSingleChunk:
		e := btree.ChunkEntry{
			Offset:     zeros(rank),
			Address:    addr,
			Size:       uint32(c.chunkBytes()),
			FilterMask: c.layout.FilterMask,
		}
		if c.layout.FilteredChunkSize != 0 {
			e.Size = uint32(c.layout.FilteredChunkSize)
		}
		return []btree.ChunkEntry{e}, nil

	case message.ChunkIndexImplicit:
		grid := c.grid()
		size := c.chunkBytes()
		entries := make([]btree.ChunkEntry, product(grid))
		for i := range entries {
			entries[i] = btree.ChunkEntry{
				Offset:  c.offsetOf(uint64(i), grid),
				Address: addr + uint64(i)*size,
				Size:    uint32(size),
			}
		}
		return entries, nil

	case message.ChunkIndexFixedArray:
		return c.fixedArray(addr)

	case message.ChunkIndexExtensibleArray:
		return c.extensibleArray(addr)

	case message.ChunkIndexBTreeV2:
		entries, err := btree.ReadChunkIndexV2(c.reader, addr, rank)
		if err != nil {
			return nil, err
		}
		// Records hold scaled offsets, counted in chunks.
		for i := range entries {
			e := &entries[i]
			for d := range e.Offset {
				e.Offset[d] *= c.chunk[d]
			}
			if e.Size == 0 {
				e.Size = uint32(c.chunkBytes())
			}
		}
		return entries, nil
	}
	return nil, errors.Errorf("unsupported chunk index type %d", c.layout.ChunkIndexType)
}

// arrayHead reads the signature, version and client ID that open every
// fixed and extensible array block.
func arrayHead(r *binary.Reader, sig string) error {
	got, err := r.ReadBytes(4)
	if err != nil {
		return errors.Wrapf(err, "reading %s", sig)
	}
	if string(got) != sig {
		return errors.Errorf("invalid %s signature %q", sig, got)
	}
	version, err := r.ReadUint8()
	if err != nil {
		return errors.Wrapf(err, "reading %s", sig)
	}
	if version != 0 {
		return errors.Errorf("unsupported %s version %d", sig, version)
	}
	r.Skip(1)
	return nil
}

// fixedArray reads a fixed array header ("FAHD") and its single data block
// ("FADB"). Paged data blocks are not supported.
func (c *Chunked) fixedArray(addr uint64) ([]btree.ChunkEntry, error) {
	r := c.reader.At(int64(addr))
	if err := arrayHead(r, "FAHD"); err != nil {
		return nil, err
	}
	recordSize, _ := r.ReadUint8()
	pageBits, _ := r.ReadUint8()
	n, _ := r.ReadLength()
	block, err := r.ReadOffset()
	if err != nil {
		return nil, errors.Wrap(err, "reading FAHD")
	}
	if c.reader.IsUndefinedOffset(block) {
		return nil, nil
	}
	if n > 1<<pageBits {
		return nil, errors.Errorf("paged fixed array of %d chunks is not supported", n)
	}

	br := c.reader.At(int64(block))
	if err := arrayHead(br, "FADB"); err != nil {
		return nil, err
	}
	br.Skip(int64(c.reader.OffsetSize()))
	return c.records(br, n, int(recordSize))
}

// extensibleArray reads the chunks held directly in the index block
// ("EAIB") of an extensible array ("EAHD"). Arrays that spill into data
// blocks are not supported.
func (c *Chunked) extensibleArray(addr uint64) ([]btree.ChunkEntry, error) {
	r := c.reader.At(int64(addr))
	if err := arrayHead(r, "EAHD"); err != nil {
		return nil, err
	}
	recordSize, _ := r.ReadUint8()
	r.Skip(1)
	direct, _ := r.ReadUint8()
	// Data and secondary block sizing, then five of the six statistics.
	r.Skip(3 + 5*int64(c.reader.LengthSize()))
	n, _ := r.ReadLength()
	block, err := r.ReadOffset()
	if err != nil {
		return nil, errors.Wrap(err, "reading EAHD")
	}
	if c.reader.IsUndefinedOffset(block) {
		return nil, nil
	}
	if n > uint64(direct) {
		return nil, errors.Errorf("extensible array of %d chunks holds only %d in its index block", n, direct)
	}

	br := c.reader.At(int64(block))
	if err := arrayHead(br, "EAIB"); err != nil {
		return nil, err
	}
	br.Skip(int64(c.reader.OffsetSize()))
	return c.records(br, n, int(recordSize))
}

// records reads n array records in row-major chunk order. Records of
// filtered chunks follow the address with the stored size and the filter
// mask. Unallocated chunks are left out.
func (c *Chunked) records(r *binary.Reader, n uint64, recordSize int) ([]btree.ChunkEntry, error) {
	grid := c.grid()
	offsetSize := c.reader.OffsetSize()
	sizeWidth := recordSize - offsetSize - 4

	var entries []btree.ChunkEntry
	for i := uint64(0); i < n; i++ {
		e := btree.ChunkEntry{Size: uint32(c.chunkBytes())}
		var err error
		if e.Address, err = r.ReadOffset(); err != nil {
			return nil, errors.Wrapf(err, "reading chunk record %d", i)
		}
		if recordSize > offsetSize {
			size, _ := r.ReadUintN(sizeWidth)
			if e.FilterMask, err = r.ReadUint32(); err != nil {
				return nil, errors.Wrapf(err, "reading chunk record %d", i)
			}
			e.Size = uint32(size)
		}
		if e.Address == 0 || c.reader.IsUndefinedOffset(e.Address) {
			continue
		}
		e.Offset = c.offsetOf(i, grid)
		entries = append(entries, e)
	}
	return entries, nil
}
