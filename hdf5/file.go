package hdf5

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/internal/binary"
	"github.com/robert-malhotra/h5grove/internal/message"
	"github.com/robert-malhotra/h5grove/internal/object"
	"github.com/robert-malhotra/h5grove/internal/superblock"
)

// File is an open HDF5 file. External files reached through its links are
// opened on demand and closed with it.
type File struct {
	path       string
	file       *os.File
	reader     *binary.Reader
	superblock *superblock.Superblock
	root       *Group
	closed     bool
	external   map[string]*File
}

// Open opens an HDF5 file for reading. A user block in front of the
// superblock is skipped.
func Open(name string) (*File, error) {
	osf, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	f, err := newFile(name, osf)
	if err != nil {
		osf.Close()
		return nil, err
	}
	return f, nil
}

func newFile(name string, osf *os.File) (*File, error) {
	sb, err := superblock.Read(osf)
	if err != nil {
		return nil, errors.Wrap(err, "reading superblock")
	}
	// Addresses count from the superblock, not from the start of the file.
	var src io.ReaderAt = osf
	if base := int64(sb.BaseAddress); base != 0 {
		src = io.NewSectionReader(osf, base, math.MaxInt64-base)
	}
	f := &File{path: name, file: osf, reader: binary.NewReader(src, sb.ReaderConfig()), superblock: sb}

	h, err := object.Read(f.reader, sb.RootGroupAddress)
	if err != nil {
		return nil, errors.Wrap(err, "reading root group")
	}
	f.root = &Group{file: f, path: "/", header: h}
	return f, nil
}

// Close closes the file and every external file opened through it.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	for _, ext := range f.external {
		ext.Close()
	}
	f.external = nil
	return f.file.Close()
}

func (f *File) Root() *Group { return f.root }
func (f *File) Path() string { return f.path }

// Name is the base name of the file.
func (f *File) Name() string { return filepath.Base(f.path) }

func (f *File) OpenGroup(p string) (*Group, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenGroup(p)
}

func (f *File) OpenDataset(p string) (*Dataset, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.OpenDataset(p)
}

// Object opens the group or dataset at p, following soft and external
// links on every component. The result is a *Group or a *Dataset.
func (f *File) Object(p string) (interface{}, error) {
	if f.closed {
		return nil, ErrClosed
	}
	return f.root.open(p)
}

// Link returns the link stored at p without dereferencing it. Links on the
// leading components are followed. The root group has no link and yields
// ErrInvalidPath.
func (f *File) Link(p string) (*Link, error) {
	if f.closed {
		return nil, ErrClosed
	}
	parts := splitPath(p)
	if len(parts) == 0 {
		return nil, ErrInvalidPath
	}
	parent := f.root
	if len(parts) > 1 {
		dir := strings.Join(parts[:len(parts)-1], "/")
		g, err := f.root.OpenGroup(dir)
		if err != nil {
			return nil, errors.Wrapf(err, "opening parent of %s", p)
		}
		parent = g
	}
	return parent.Link(parts[len(parts)-1])
}

// target is an object address in some file, reached by following a link.
type target struct {
	file *File
	addr uint64
}

// object opens the object at t, a dataset when its header has a dataspace.
func (t target) object(p string) (interface{}, error) {
	h, err := object.Read(t.file.reader, t.addr)
	if err != nil {
		return nil, errors.Wrapf(err, "reading object header of %s", p)
	}
	if h.GetMessage(message.TypeDataspace) != nil {
		return newDataset(t.file, p, h)
	}
	return &Group{file: t.file, path: p, header: h}, nil
}

func (t target) group(p string) (*Group, error) {
	obj, err := t.object(p)
	if err != nil {
		return nil, err
	}
	g, ok := obj.(*Group)
	if !ok {
		return nil, errors.Wrapf(ErrNotGroup, "%s", p)
	}
	return g, nil
}

// hops counts the soft and external links followed while resolving one
// path and catches cycles.
type hops map[string]bool

func (h hops) enter(key string) error {
	if len(h) >= MaxLinkDepth {
		return ErrLinkDepth
	}
	if h[key] {
		return errors.Errorf("link cycle through %s", key)
	}
	h[key] = true
	return nil
}

// externalFile opens name relative to the directory of f, once.
func (f *File) externalFile(name string) (*File, error) {
	if ext, ok := f.external[name]; ok {
		return ext, nil
	}
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.Dir(f.path), name)
	}
	ext, err := Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "opening external file %s", name)
	}
	if f.external == nil {
		f.external = make(map[string]*File)
	}
	f.external[name] = ext
	return ext, nil
}

// splitPath drops empty components, so leading, trailing and doubled
// slashes are ignored.
func splitPath(p string) []string {
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			parts = append(parts, s)
		}
	}
	return parts
}
