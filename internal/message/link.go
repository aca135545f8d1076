package message

import (
	"bytes"

	"github.com/robert-malhotra/h5grove/internal/binary"
)

type LinkType uint8

const (
	LinkTypeHard     LinkType = 0
	LinkTypeSoft     LinkType = 1
	LinkTypeExternal LinkType = 64
)

// Link flag bits.
const (
	linkNameWidth      = 0x03
	linkHasOrder       = 0x04
	linkHasType        = 0x08
	linkHasNameCharset = 0x10
)

// Link is one member of a new style group. Which target fields are set
// depends on LinkType.
type Link struct {
	Version       uint8
	LinkType      LinkType
	CreationOrder uint64
	Name          string
	Charset       uint8

	ObjectAddress uint64
	SoftLinkValue string
	ExternalFile  string
	ExternalPath  string
}

func (m *Link) Type() Type { return TypeLink }

func (m *Link) IsHard() bool     { return m.LinkType == LinkTypeHard }
func (m *Link) IsSoft() bool     { return m.LinkType == LinkTypeSoft }
func (m *Link) IsExternal() bool { return m.LinkType == LinkTypeExternal }

func parseLink(data []byte, r *binary.Reader) (*Link, error) {
	b := newBody(data, r)
	l := &Link{Version: b.u8()}
	flags := b.u8()
	if l.Version != 1 {
		b.fail("unsupported link version %d", l.Version)
	}
	if flags&linkHasType != 0 {
		l.LinkType = LinkType(b.u8())
	}
	if flags&linkHasOrder != 0 {
		l.CreationOrder = b.u64()
	}
	if flags&linkHasNameCharset != 0 {
		l.Charset = b.u8()
	}
	nameLen := b.uintN(1 << (flags & linkNameWidth))
	l.Name = string(b.bytes(int(nameLen)))

	switch l.LinkType {
	case LinkTypeHard:
		l.ObjectAddress = b.offset()
	case LinkTypeSoft:
		l.SoftLinkValue = string(b.bytes(int(b.u16())))
	case LinkTypeExternal:
		// A flags byte, then the file name and the object path, both
		// NUL-terminated.
		value := b.bytes(int(b.u16()))
		if b.err == nil && len(value) < 2 {
			b.fail("external link value of %d bytes", len(value))
			break
		}
		if len(value) > 0 {
			file, path, _ := bytes.Cut(value[1:], []byte{0})
			l.ExternalFile = string(file)
			l.ExternalPath = trimNUL(path)
		}
	default:
		// User-defined links keep their value opaque.
		b.skip(int(b.u16()))
	}
	return finish(l, b, "link")
}
