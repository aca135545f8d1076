package object

import (
	"encoding/binary"
	"errors"
	"fmt"

	ibinary "github.com/robert-malhotra/h5grove/internal/binary"
	"github.com/robert-malhotra/h5grove/internal/message"
)

var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// Header is an object header with its continuation blocks followed.
type Header struct {
	Version uint8
	Address uint64
	// Flags of a version 2 header. Bit 2 means messages carry a creation
	// order field.
	Flags    uint8
	Messages []message.Message
}

// span is a run of messages inside a header chunk.
type span struct {
	at, end int64
}

// Read parses the object header at address. Both header versions are
// detected from the first bytes.
func Read(r *ibinary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))
	sig, err := hr.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}

	h := &Header{Address: address}
	var first span
	switch {
	case string(sig) == "OHDR":
		first, err = h.prefixV2(hr)
	case sig[0] == 1:
		first, err = h.prefixV1(hr)
	default:
		return nil, fmt.Errorf("%w: unknown format at address %d", ErrInvalidHeader, address)
	}
	if err != nil {
		return nil, err
	}

	h.readSpan(r, first, map[int64]bool{})
	return h, nil
}

// prefixV1 reads the fixed 16 byte version 1 prefix:
//
//	version(1) reserved(1) messages(2) refcount(4) size(4) reserved(4)
func (h *Header) prefixV1(r *ibinary.Reader) (span, error) {
	h.Version = 1
	r.Skip(8)
	size, err := r.ReadUint32()
	if err != nil {
		return span{}, err
	}
	r.Align(8)
	return span{at: r.Pos(), end: r.Pos() + int64(size)}, nil
}

// prefixV2 reads the "OHDR" prefix and verifies the checksum that follows
// the first chunk.
func (h *Header) prefixV2(r *ibinary.Reader) (span, error) {
	h.Version = 2
	start := r.Pos()
	r.Skip(4)
	version, err := r.ReadUint8()
	if err != nil {
		return span{}, err
	}
	if version != 2 {
		return span{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	if h.Flags, err = r.ReadUint8(); err != nil {
		return span{}, err
	}
	if h.Flags&0x20 != 0 {
		r.Skip(16) // access, modification, change and birth times
	}
	if h.Flags&0x10 != 0 {
		r.Skip(4) // attribute storage phase change values
	}
	size, err := r.ReadUintN(1 << (h.Flags & 0x03))
	if err != nil {
		return span{}, err
	}

	s := span{at: r.Pos(), end: r.Pos() + int64(size)}
	if err := verify(r.At(start), s.end-start); err != nil {
		return span{}, err
	}
	return s, nil
}

// verify checks the Jenkins lookup3 checksum stored after the first n
// bytes at r.
func verify(r *ibinary.Reader, n int64) error {
	b, err := r.ReadBytes(int(n) + 4)
	if err != nil {
		return fmt.Errorf("reading object header: %w", err)
	}
	if ibinary.Lookup3Checksum(b[:n]) != binary.LittleEndian.Uint32(b[n:]) {
		return ErrChecksumMismatch
	}
	return nil
}

// readSpan appends the messages of s, following continuation messages
// where they appear. Blocks already visited are not read again.
func (h *Header) readSpan(r *ibinary.Reader, s span, seen map[int64]bool) {
	if seen[s.at] {
		return
	}
	seen[s.at] = true

	br := r.At(s.at)
	for br.Pos()+h.prefixSize() <= s.end {
		typ, flags, data, err := h.next(br)
		if err != nil {
			return
		}
		switch typ {
		case message.TypeNIL:
			continue
		case message.TypeObjectHeaderContinuation:
			c, err := message.ParseContinuation(data, br)
			if err != nil {
				continue
			}
			if next, ok := h.continuation(r, c); ok {
				h.readSpan(r, next, seen)
			}
			continue
		}
		if msg, err := message.Parse(typ, data, flags, br); err == nil {
			h.Messages = append(h.Messages, msg)
		}
	}
}

func (h *Header) prefixSize() int64 {
	switch {
	case h.Version == 1:
		return 8
	case h.Flags&0x04 != 0:
		return 6
	}
	return 4
}

// next reads one message. Version 1 messages are padded to 8 bytes.
func (h *Header) next(r *ibinary.Reader) (message.Type, uint8, []byte, error) {
	var typ message.Type
	var size uint16
	var err error
	if h.Version == 1 {
		var t uint16
		if t, err = r.ReadUint16(); err != nil {
			return 0, 0, nil, err
		}
		typ = message.Type(t)
	} else {
		var t uint8
		if t, err = r.ReadUint8(); err != nil {
			return 0, 0, nil, err
		}
		typ = message.Type(t)
	}
	if size, err = r.ReadUint16(); err != nil {
		return 0, 0, nil, err
	}
	flags, err := r.ReadUint8()
	if err != nil {
		return 0, 0, nil, err
	}
	switch {
	case h.Version == 1:
		r.Skip(3)
	case h.Flags&0x04 != 0:
		r.Skip(2) // creation order
	}

	data, err := r.ReadBytes(int(size))
	if err != nil {
		return 0, 0, nil, err
	}
	if h.Version == 1 {
		r.Align(8)
	}
	return typ, flags, data, nil
}

// continuation locates the messages of a continuation block. Version 2
// blocks start with "OCHK" and end with a checksum.
func (h *Header) continuation(r *ibinary.Reader, c *message.Continuation) (span, bool) {
	at := int64(c.Offset)
	if h.Version == 1 {
		return span{at: at, end: at + int64(c.Length)}, true
	}
	if c.Length < 8 {
		return span{}, false
	}
	sig, err := r.At(at).Peek(4)
	if err != nil || string(sig) != "OCHK" {
		return span{}, false
	}
	if verify(r.At(at), int64(c.Length)-4) != nil {
		return span{}, false
	}
	return span{at: at + 4, end: at + int64(c.Length) - 4}, true
}

// GetMessage returns the first message of type typ, or nil.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			return msg
		}
	}
	return nil
}

// GetMessages returns every message of type typ in header order.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var out []message.Message
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			out = append(out, msg)
		}
	}
	return out
}

func find[T message.Message](h *Header, typ message.Type) T {
	msg, _ := h.GetMessage(typ).(T)
	return msg
}

func (h *Header) Dataspace() *message.Dataspace {
	return find[*message.Dataspace](h, message.TypeDataspace)
}

func (h *Header) Datatype() *message.Datatype {
	return find[*message.Datatype](h, message.TypeDatatype)
}

func (h *Header) DataLayout() *message.DataLayout {
	return find[*message.DataLayout](h, message.TypeDataLayout)
}

func (h *Header) FilterPipeline() *message.FilterPipeline {
	return find[*message.FilterPipeline](h, message.TypeFilterPipeline)
}

func (h *Header) FillValue() *message.FillValue {
	return find[*message.FillValue](h, message.TypeFillValue)
}
