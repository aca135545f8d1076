package hdf5

import (
	"path"

	"github.com/robert-malhotra/h5grove/internal/btree"
	"github.com/robert-malhotra/h5grove/internal/message"
)

// LinkType identifies how a link addresses its target.
type LinkType uint8

const (
	HardLink     LinkType = iota // Object header address in the same file
	SoftLink                     // Path in the same file
	ExternalLink                 // Path in another file
)

func (t LinkType) String() string {
	switch t {
	case HardLink:
		return "hard"
	case SoftLink:
		return "soft"
	case ExternalLink:
		return "external"
	}
	return "unknown"
}

// Link describes a named entry of a group as stored, without following it.
type Link struct {
	Path string
	Type LinkType

	// Target is the target path for soft and external links.
	Target string

	// File is the target file name of an external link, relative to the
	// directory of the file holding the link.
	File string

	addr uint64
}

// Name returns the link name (last component of its path).
func (l *Link) Name() string {
	return path.Base(l.Path)
}

func newLink(p string, m *message.Link) *Link {
	l := &Link{Path: p}
	switch {
	case m.IsSoft():
		l.Type = SoftLink
		l.Target = m.SoftLinkValue
	case m.IsExternal():
		l.Type = ExternalLink
		l.Target = m.ExternalPath
		l.File = m.ExternalFile
	default:
		l.Type = HardLink
		l.addr = m.ObjectAddress
	}
	return l
}

func newLinkV1(p string, e btree.GroupEntry) *Link {
	if e.LinkType == 1 {
		return &Link{Path: p, Type: SoftLink, Target: e.SoftLinkValue}
	}
	return &Link{Path: p, Type: HardLink, addr: e.ObjectAddress}
}
