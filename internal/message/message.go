package message

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/internal/binary"
)

// Type is the header message type stored in each message prefix.
type Type uint16

const (
	TypeNIL                      Type = 0x0000
	TypeDataspace                Type = 0x0001
	TypeLinkInfo                 Type = 0x0002
	TypeDatatype                 Type = 0x0003
	TypeFillValueOld             Type = 0x0004
	TypeFillValue                Type = 0x0005
	TypeLink                     Type = 0x0006
	TypeExternalDataFiles        Type = 0x0007
	TypeDataLayout               Type = 0x0008
	TypeBogus                    Type = 0x0009
	TypeGroupInfo                Type = 0x000A
	TypeFilterPipeline           Type = 0x000B
	TypeAttribute                Type = 0x000C
	TypeObjectComment            Type = 0x000D
	TypeObjectModTime            Type = 0x000E
	TypeSharedMessageTable       Type = 0x000F
	TypeObjectHeaderContinuation Type = 0x0010
	TypeSymbolTable              Type = 0x0011
	TypeObjectModTimeOld         Type = 0x0012
	TypeBTreeKValues             Type = 0x0013
	TypeDriverInfo               Type = 0x0014
	TypeAttributeInfo            Type = 0x0015
	TypeObjectRefCount           Type = 0x0016
)

type Message interface {
	Type() Type
}

// Parse decodes the body of a header message. Types without a decoder come
// back as *Unknown.
func Parse(typ Type, data []byte, flags uint8, r *binary.Reader) (Message, error) {
	switch typ {
	case TypeDataspace:
		return parseDataspace(data, r)
	case TypeDatatype:
		return parseDatatype(data, r)
	case TypeDataLayout:
		return parseDataLayout(data, r)
	case TypeFilterPipeline:
		return parseFilterPipeline(data, r)
	case TypeFillValue:
		return parseFillValue(data, r)
	case TypeAttribute:
		return parseAttribute(data, r)
	case TypeLink:
		return parseLink(data, r)
	case TypeSymbolTable:
		return parseSymbolTable(data, r)
	case TypeObjectHeaderContinuation:
		return ParseContinuation(data, r)
	}
	return &Unknown{typ: typ, data: data}, nil
}

type Unknown struct {
	typ  Type
	data []byte
}

func (m *Unknown) Type() Type   { return m.typ }
func (m *Unknown) Data() []byte { return m.data }

// Continuation points at the next block of an object header.
type Continuation struct {
	Offset uint64
	Length uint64
}

func (m *Continuation) Type() Type { return TypeObjectHeaderContinuation }

func ParseContinuation(data []byte, r *binary.Reader) (*Continuation, error) {
	b := newBody(data, r)
	c := &Continuation{Offset: b.offset(), Length: b.length()}
	return finish(c, b, "continuation")
}

// SymbolTable locates the B-tree and local heap of an old style group.
type SymbolTable struct {
	BTreeAddress     uint64
	LocalHeapAddress uint64
}

func (m *SymbolTable) Type() Type { return TypeSymbolTable }

func parseSymbolTable(data []byte, r *binary.Reader) (*SymbolTable, error) {
	b := newBody(data, r)
	st := &SymbolTable{BTreeAddress: b.offset(), LocalHeapAddress: b.offset()}
	return finish(st, b, "symbol table")
}

// body walks the fields of one message. The first failure sticks and later
// reads return zero values, so a decoder checks once at the end.
type body struct {
	r   *binary.Reader
	n   int64
	err error
}

func newBody(data []byte, r *binary.Reader) *body {
	cfg := binary.Config{ByteOrder: r.ByteOrder(), OffsetSize: r.OffsetSize(), LengthSize: r.LengthSize()}
	return &body{r: binary.NewReader(bytes.NewReader(data), cfg), n: int64(len(data))}
}

func (b *body) pos() int       { return int(b.r.Pos()) }
func (b *body) remaining() int { return int(b.n - b.r.Pos()) }

func (b *body) uintN(n int) uint64 {
	if b.err != nil {
		return 0
	}
	v, err := b.r.ReadUintN(n)
	b.err = err
	return v
}

func (b *body) u8() uint8   { return uint8(b.uintN(1)) }
func (b *body) u16() uint16 { return uint16(b.uintN(2)) }
func (b *body) u32() uint32 { return uint32(b.uintN(4)) }
func (b *body) u64() uint64 { return b.uintN(8) }

func (b *body) offset() uint64 { return b.uintN(b.r.OffsetSize()) }
func (b *body) length() uint64 { return b.uintN(b.r.LengthSize()) }

// bytes returns a copy of the next n bytes.
func (b *body) bytes(n int) []byte {
	if b.err != nil {
		return nil
	}
	if n < 0 || n > b.remaining() {
		b.err = io.ErrUnexpectedEOF
		return nil
	}
	buf, err := b.r.ReadBytes(n)
	b.err = err
	return buf
}

func (b *body) skip(n int) {
	if b.err == nil && n > b.remaining() {
		b.err = io.ErrUnexpectedEOF
		return
	}
	b.r.Skip(int64(n))
}

// align skips to the next multiple of n counted from start.
func (b *body) align(start, n int) {
	if used := b.pos() - start; used%n != 0 {
		b.skip(n - used%n)
	}
}

// cstring reads a NUL-terminated string, consuming the terminator.
func (b *body) cstring() string {
	if b.err != nil {
		return ""
	}
	rest, _ := b.r.Peek(b.remaining())
	i := bytes.IndexByte(rest, 0)
	if i < 0 {
		b.err = errors.New("string is not NUL-terminated")
		return ""
	}
	b.skip(i + 1)
	return string(rest[:i])
}

// fail records err unless an earlier read already failed.
func (b *body) fail(format string, args ...interface{}) {
	if b.err == nil {
		b.err = errors.Errorf(format, args...)
	}
}

func (b *body) check(what string) error {
	if b.err == io.ErrUnexpectedEOF {
		return errors.Errorf("%s message truncated", what)
	}
	return errors.Wrapf(b.err, "%s message", what)
}

// finish returns m, or nil and the first decoding error.
func finish[T any](m *T, b *body, what string) (*T, error) {
	if err := b.check(what); err != nil {
		return nil, err
	}
	return m, nil
}

// trimNUL cuts s at its first NUL.
func trimNUL(s []byte) string {
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}
