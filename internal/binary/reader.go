// Package binary reads the fixed and variable width fields of HDF5 files.
package binary

import (
	"encoding/binary"
	"io"
)

// Config holds the field widths a file declares in its superblock.
type Config struct {
	ByteOrder  binary.ByteOrder
	OffsetSize int
	LengthSize int
}

// DefaultConfig is little-endian with 8 byte offsets and lengths.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian, OffsetSize: 8, LengthSize: 8}
}

// Reader is a cursor over an io.ReaderAt. Readers derived with At share the
// source but move independently.
type Reader struct {
	src io.ReaderAt
	cfg Config
	pos int64
}

func NewReader(src io.ReaderAt, cfg Config) *Reader {
	return &Reader{src: src, cfg: cfg}
}

// At returns a reader over the same source positioned at offset.
func (r *Reader) At(offset int64) *Reader {
	return &Reader{src: r.src, cfg: r.cfg, pos: offset}
}

func (r *Reader) Pos() int64                  { return r.pos }
func (r *Reader) OffsetSize() int             { return r.cfg.OffsetSize }
func (r *Reader) LengthSize() int             { return r.cfg.LengthSize }
func (r *Reader) ByteOrder() binary.ByteOrder { return r.cfg.ByteOrder }

// Skip moves forward n bytes.
func (r *Reader) Skip(n int64) { r.pos += n }

// Align moves forward to the next multiple of n.
func (r *Reader) Align(n int64) {
	if n > 1 && r.pos%n != 0 {
		r.pos += n - r.pos%n
	}
}

// Peek reads n bytes without moving.
func (r *Reader) Peek(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	got, err := r.src.ReadAt(buf, r.pos)
	if got == n {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, err
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	buf, err := r.Peek(n)
	if err != nil {
		return nil, err
	}
	r.pos += int64(n)
	return buf, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadUintN(1)
	return uint8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadUintN(2)
	return uint16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadUintN(4)
	return uint32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	return r.ReadUintN(8)
}

// ReadUintN reads an unsigned integer n bytes wide.
func (r *Reader) ReadUintN(n int) (uint64, error) {
	buf, err := r.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return r.decode(buf), nil
}

// ReadOffset reads a file address.
func (r *Reader) ReadOffset() (uint64, error) {
	return r.ReadUintN(r.cfg.OffsetSize)
}

// ReadLength reads a size or count.
func (r *Reader) ReadLength() (uint64, error) {
	return r.ReadUintN(r.cfg.LengthSize)
}

func (r *Reader) decode(buf []byte) uint64 {
	switch len(buf) {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(r.cfg.ByteOrder.Uint16(buf))
	case 4:
		return uint64(r.cfg.ByteOrder.Uint32(buf))
	case 8:
		return r.cfg.ByteOrder.Uint64(buf)
	}
	var v uint64
	for i := len(buf) - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v
}

// IsUndefinedOffset reports whether offset is the all-ones address that
// marks storage which was never allocated.
func (r *Reader) IsUndefinedOffset(offset uint64) bool {
	if r.cfg.OffsetSize >= 8 {
		return offset == ^uint64(0)
	}
	return offset == 1<<(8*r.cfg.OffsetSize)-1
}
