package object

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ibinary "github.com/robert-malhotra/h5grove/internal/binary"
	"github.com/robert-malhotra/h5grove/internal/message"
)

var le = binary.LittleEndian

type msg struct {
	typ  message.Type
	data []byte
}

func space(dims ...uint64) msg {
	b := []byte{2, byte(len(dims)), 0, 1}
	for _, d := range dims {
		b = le.AppendUint64(b, d)
	}
	return msg{message.TypeDataspace, b}
}

func comment(s string) msg {
	return msg{message.TypeObjectComment, append([]byte(s), 0)}
}

func cont(addr, length uint64) msg {
	return msg{message.TypeObjectHeaderContinuation, le.AppendUint64(le.AppendUint64(nil, addr), length)}
}

func checksummed(b []byte) []byte {
	return le.AppendUint32(b, ibinary.Lookup3Checksum(b))
}

func v2Messages(order bool, msgs ...msg) []byte {
	var b []byte
	for i, m := range msgs {
		b = append(b, byte(m.typ))
		b = le.AppendUint16(b, uint16(len(m.data)))
		b = append(b, 0)
		if order {
			b = le.AppendUint16(b, uint16(i))
		}
		b = append(b, m.data...)
	}
	return b
}

func ohdr(flags byte, msgs ...msg) []byte {
	body := v2Messages(flags&0x04 != 0, msgs...)
	b := []byte{'O', 'H', 'D', 'R', 2, flags}
	if flags&0x20 != 0 {
		b = append(b, make([]byte, 16)...)
	}
	if flags&0x10 != 0 {
		b = append(b, 8, 0, 6, 0)
	}
	b = le.AppendUint32(b, uint32(len(body)))[:len(b)+1<<(flags&0x03)]
	b = append(b, body...)
	return checksummed(b)
}

func ochk(msgs ...msg) []byte {
	return checksummed(append([]byte("OCHK"), v2Messages(false, msgs...)...))
}

func v1Messages(msgs ...msg) []byte {
	var b []byte
	for _, m := range msgs {
		data := append([]byte(nil), m.data...)
		for len(data)%8 != 0 {
			data = append(data, 0)
		}
		b = le.AppendUint16(b, uint16(m.typ))
		b = le.AppendUint16(b, uint16(len(data)))
		b = append(b, 0, 0, 0, 0)
		b = append(b, data...)
	}
	return b
}

func v1Header(msgs ...msg) []byte {
	body := v1Messages(msgs...)
	b := []byte{1, 0}
	b = le.AppendUint16(b, uint16(len(msgs)))
	b = le.AppendUint32(b, 1)
	b = le.AppendUint32(b, uint32(len(body)))
	b = append(b, 0, 0, 0, 0)
	return append(b, body...)
}

// file places blocks at 64 byte boundaries.
func file(blocks ...[]byte) []byte {
	var b []byte
	for _, blk := range blocks {
		for len(b)%64 != 0 {
			b = append(b, 0)
		}
		b = append(b, blk...)
	}
	return b
}

func read(t *testing.T, data []byte) (*Header, error) {
	t.Helper()
	return Read(ibinary.NewReader(bytes.NewReader(data), ibinary.DefaultConfig()), 0)
}

func comments(h *Header) []string {
	var out []string
	for _, m := range h.GetMessages(message.TypeObjectComment) {
		out = append(out, string(m.(*message.Unknown).Data()))
	}
	return out
}

func TestReadV2(t *testing.T) {
	tests := []struct {
		name  string
		flags byte
	}{
		{"one byte size", 0x00},
		{"two byte size", 0x01},
		{"creation order", 0x04},
		{"times and phase change", 0x30 | 0x02},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := read(t, ohdr(tt.flags, space(3, 4), msg{message.TypeNIL, make([]byte, 3)}, comment("a")))
			require.NoError(t, err)
			assert.Equal(t, uint8(2), h.Version)
			assert.Equal(t, tt.flags, h.Flags)
			require.Len(t, h.Messages, 2)
			assert.Equal(t, []uint64{3, 4}, h.Dataspace().Dimensions)
			assert.Equal(t, []string{"a\x00"}, comments(h))
		})
	}
}

func TestReadV2Continuation(t *testing.T) {
	first := ohdr(0, comment("a"), cont(64, uint64(len(ochk(comment("b"), space(5))))), comment("c"))
	h, err := read(t, file(first, ochk(comment("b"), space(5))))
	require.NoError(t, err)
	assert.Equal(t, []string{"a\x00", "b\x00", "c\x00"}, comments(h))
	assert.Equal(t, []uint64{5}, h.Dataspace().Dimensions)

	// A damaged continuation block is skipped.
	block := ochk(comment("b"))
	block[5] ^= 0xff
	h, err = read(t, file(ohdr(0, comment("a"), cont(64, uint64(len(block)))), block))
	require.NoError(t, err)
	assert.Equal(t, []string{"a\x00"}, comments(h))

	// A block that continues into itself is read once.
	loop := ochk(comment("b"), cont(64, 34))
	require.Len(t, loop, 34)
	h, err = read(t, file(ohdr(0, cont(64, 34)), loop))
	require.NoError(t, err)
	assert.Equal(t, []string{"b\x00"}, comments(h))
}

func TestReadV1(t *testing.T) {
	second := v1Messages(comment("second"), space(2, 2))
	first := v1Header(comment("first"), cont(64, uint64(len(second))))
	h, err := read(t, file(first, second))
	require.NoError(t, err)
	assert.Equal(t, uint8(1), h.Version)
	assert.Equal(t, []string{"first\x00\x00\x00", "second\x00\x00"}, comments(h))
	assert.Equal(t, []uint64{2, 2}, h.Dataspace().Dimensions)
	assert.Nil(t, h.Datatype())
	assert.Nil(t, h.FillValue())
}

func TestReadErrors(t *testing.T) {
	bad := ohdr(0, comment("a"))
	bad[len(bad)-1] ^= 0xff
	v3 := ohdr(0)
	v3[4] = 3

	tests := []struct {
		name string
		data []byte
		err  error
	}{
		{"unknown format", []byte{99, 0, 0, 0}, ErrInvalidHeader},
		{"checksum", bad, ErrChecksumMismatch},
		{"version", v3, ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := read(t, tt.data)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	_, err := read(t, []byte{1})
	assert.Error(t, err)
}

func TestHeaderAccessors(t *testing.T) {
	h := &Header{Messages: []message.Message{
		&message.Dataspace{Rank: 1, Dimensions: []uint64{7}},
		&message.Attribute{Name: "a"},
		&message.Datatype{Class: message.ClassFixedPoint, Size: 4},
		&message.Attribute{Name: "b"},
	}}

	assert.Len(t, h.GetMessages(message.TypeAttribute), 2)
	assert.Nil(t, h.GetMessage(message.TypeLink))
	assert.Equal(t, uint32(4), h.Datatype().Size)
	assert.Equal(t, []uint64{7}, h.Dataspace().Dimensions)
	assert.Nil(t, h.FilterPipeline())
	assert.Nil(t, h.DataLayout())
}
