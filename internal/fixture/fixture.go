// Package fixture writes small HDF5 files for tests.
//
// Files use the layout the library produces with libver="latest": a
// version 2 superblock, version 2 object headers, compact link storage and
// version 4 chunked layouts. Only what the readers in this module
// understand is written, so a File is a tree of groups, datasets, soft and
// external links, each group or dataset carrying attributes.
//
//	f := fixture.New()
//	g := f.Root.Group("entry")
//	g.Dataset("data", &fixture.Dataset{Type: fixture.Float64, Shape: []uint64{3}, Data: fixture.Floats(fixture.Float64, 1, 2, 3)})
//	err := f.Write(filepath.Join(dir, "data.h5"))
package fixture

import (
	"os"

	"github.com/pkg/errors"
)

// File is an HDF5 file under construction.
type File struct {
	Root *Group
}

// New returns an empty file.
func New() *File {
	return &File{Root: &Group{}}
}

// Write encodes the file and writes it to path.
func (f *File) Write(path string) error {
	b, err := f.Bytes()
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, b, 0o644), "writing %s", path)
}

// Bytes encodes the file.
func (f *File) Bytes() ([]byte, error) {
	w := &writer{buf: make([]byte, superblockSize)}
	root, err := w.group(f.Root)
	if err != nil {
		return nil, err
	}
	copy(w.buf, superblock(root, uint64(len(w.buf))))
	return w.buf, nil
}

type linkKind int

const (
	hardGroup linkKind = iota
	hardDataset
	softLink
	externalLink
)

type link struct {
	name    string
	kind    linkKind
	group   *Group
	dataset *Dataset
	target  string
	file    string
}

// Group is a group under construction. Members are stored in the order
// they are added.
type Group struct {
	links []link
	Attrs []Attr
}

// Group adds a subgroup and returns it.
func (g *Group) Group(name string) *Group {
	child := &Group{}
	g.links = append(g.links, link{name: name, kind: hardGroup, group: child})
	return child
}

// Dataset adds a dataset.
func (g *Group) Dataset(name string, d *Dataset) {
	g.links = append(g.links, link{name: name, kind: hardDataset, dataset: d})
}

// SoftLink adds a link to a path in the same file. Relative targets start
// from the group holding the link.
func (g *Group) SoftLink(name, target string) {
	g.links = append(g.links, link{name: name, kind: softLink, target: target})
}

// ExternalLink adds a link to path in another file.
func (g *Group) ExternalLink(name, file, path string) {
	g.links = append(g.links, link{name: name, kind: externalLink, file: file, target: path})
}

// Attr adds an attribute.
func (g *Group) Attr(a Attr) {
	g.Attrs = append(g.Attrs, a)
}

// Attr is a named value attached to a group or dataset. Variable-length
// string attributes take their value from Strings, all others from Data.
type Attr struct {
	Name    string
	Type    Type
	Shape   []uint64 // nil for scalars
	Data    []byte
	Strings []string
}

// StringAttr returns a scalar variable-length string attribute, the way
// h5py stores Python strings.
func StringAttr(name, value string) Attr {
	return Attr{Name: name, Type: VarString, Strings: []string{value}}
}

// Layout selects how dataset values are stored.
type Layout int

const (
	Contiguous Layout = iota
	Compact
	Chunked
)

// Index selects the chunk index of a chunked dataset.
type Index int

const (
	// AutoIndex uses a single chunk index when the dataset fits in one
	// chunk and a fixed array otherwise.
	AutoIndex Index = iota
	SingleChunkIndex
	ImplicitIndex
	FixedArrayIndex
	BTreeV2Index
)

// Dataset is a dataset under construction. Data holds the values in C
// order, encoded in Type's byte order. A contiguous dataset with no Data
// is left unallocated.
type Dataset struct {
	Type   Type
	Shape  []uint64 // nil for scalars
	Data   []byte
	Layout Layout

	// Fill is the encoded fill value of one element.
	Fill []byte

	// Chunks is the chunk shape of chunked datasets.
	Chunks []uint64
	Index  Index

	Shuffle bool
	Deflate bool

	Attrs []Attr
}

func (d *Dataset) numElements() int {
	n := 1
	for _, s := range d.Shape {
		n *= int(s)
	}
	return n
}

func (d *Dataset) filtered() bool {
	return d.Shuffle || d.Deflate
}
