package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	ibinary "github.com/robert-malhotra/h5grove/internal/binary"
)

// Signature starts every superblock.
var Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// A superblock sits at 0 or at a power of two from 512 on, after a user
// block.
var searchOffsets = []int64{0, 512, 1024, 2048, 4096, 8192}

var (
	ErrNotHDF5            = errors.New("not an HDF5 file: signature not found")
	ErrUnsupportedVersion = errors.New("unsupported superblock version")
	ErrInvalidSuperblock  = errors.New("invalid superblock")
)

// Superblock holds what the rest of the file is read with.
type Superblock struct {
	Version    uint8
	OffsetSize uint8
	LengthSize uint8

	// BaseAddress is the absolute position that file addresses count from.
	// It is the position of the superblock.
	BaseAddress      uint64
	ExtensionAddress uint64
	EOFAddress       uint64
	RootGroupAddress uint64

	// Set from the root symbol table entry of version 0 and 1 superblocks
	// when it caches the root group's B-tree and local heap.
	RootGroupBTreeAddress     uint64
	RootGroupLocalHeapAddress uint64

	// FileOffset is where the signature was found.
	FileOffset int64
}

// Read finds the signature and decodes the superblock after it.
func Read(f io.ReaderAt) (*Superblock, error) {
	head := make([]byte, len(Signature)+1)
	for _, at := range searchOffsets {
		if _, err := f.ReadAt(head, at); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if !bytes.Equal(head[:len(Signature)], Signature) {
			continue
		}

		sb := &Superblock{Version: head[len(Signature)], FileOffset: at}
		var err error
		switch sb.Version {
		case 0, 1:
			err = sb.readV0(f)
		case 2, 3:
			err = sb.readV2(f)
		default:
			return nil, ErrUnsupportedVersion
		}
		if err != nil {
			return nil, err
		}
		// Addresses count from the superblock, whatever the stored base.
		sb.BaseAddress = uint64(at)
		return sb, nil
	}
	return nil, ErrNotHDF5
}

// ReaderConfig returns the field sizes for reading the rest of the file.
func (sb *Superblock) ReaderConfig() ibinary.Config {
	return ibinary.Config{
		ByteOrder:  binary.LittleEndian,
		OffsetSize: int(sb.OffsetSize),
		LengthSize: int(sb.LengthSize),
	}
}

func (sb *Superblock) checkSizes() error {
	for _, n := range []uint8{sb.OffsetSize, sb.LengthSize} {
		if n != 2 && n != 4 && n != 8 {
			return fmt.Errorf("%w: field size %d", ErrInvalidSuperblock, n)
		}
	}
	return nil
}

// readV0 decodes version 0 and 1 superblocks:
//
//	signature(8) version(1) freespace(1) rootentry(1) reserved(1)
//	sharedheader(1) offsets(1) lengths(1) reserved(1)
//	leafK(2) internalK(2) flags(4) [storageK(2) reserved(2), v1]
//	base, freespace, eof, driver addresses
//	root symbol table entry
func (sb *Superblock) readV0(f io.ReaderAt) error {
	fixed := make([]byte, 16)
	if _, err := f.ReadAt(fixed, sb.FileOffset+8); err != nil {
		return err
	}
	sb.OffsetSize, sb.LengthSize = fixed[5], fixed[6]
	if err := sb.checkSizes(); err != nil {
		return err
	}

	at := sb.FileOffset + 24
	if sb.Version == 1 {
		at += 4
	}
	r := ibinary.NewReader(f, sb.ReaderConfig()).At(at)
	var skip uint64
	for _, dst := range []*uint64{&sb.BaseAddress, &skip, &sb.EOFAddress, &skip} {
		v, err := r.ReadOffset()
		if err != nil {
			return err
		}
		*dst = v
	}
	sb.ExtensionAddress = ^uint64(0)

	// Symbol table entry: name offset, header address, cache type,
	// reserved, then a 16 byte scratch pad.
	if _, err := r.ReadOffset(); err != nil {
		return err
	}
	root, err := r.ReadOffset()
	if err != nil {
		return err
	}
	sb.RootGroupAddress = root
	cache, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if cache == 1 {
		r.Skip(4)
		if sb.RootGroupBTreeAddress, err = r.ReadOffset(); err != nil {
			return err
		}
		if sb.RootGroupLocalHeapAddress, err = r.ReadOffset(); err != nil {
			return err
		}
	}
	return nil
}

// readV2 decodes version 2 and 3 superblocks, which end with a lookup3
// checksum:
//
//	signature(8) version(1) offsets(1) lengths(1) flags(1)
//	base, extension, eof, root header addresses
//	checksum(4)
func (sb *Superblock) readV2(f io.ReaderAt) error {
	sizes := make([]byte, 2)
	if _, err := f.ReadAt(sizes, sb.FileOffset+9); err != nil {
		return err
	}
	sb.OffsetSize, sb.LengthSize = sizes[0], sizes[1]
	if err := sb.checkSizes(); err != nil {
		return err
	}

	n := 12 + 4*int(sb.OffsetSize)
	raw := make([]byte, n+4)
	if _, err := f.ReadAt(raw, sb.FileOffset); err != nil {
		return err
	}
	if ibinary.Lookup3Checksum(raw[:n]) != binary.LittleEndian.Uint32(raw[n:]) {
		return fmt.Errorf("%w: checksum mismatch", ErrInvalidSuperblock)
	}

	r := ibinary.NewReader(bytes.NewReader(raw[12:n]), sb.ReaderConfig())
	for _, dst := range []*uint64{&sb.BaseAddress, &sb.ExtensionAddress, &sb.EOFAddress, &sb.RootGroupAddress} {
		v, err := r.ReadOffset()
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}
