package h5grove

import (
	"path"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/hdf5"
)

// Kind tags the variant held by an Entity.
type Kind uint8

const (
	KindGroup Kind = iota + 1
	KindDataset
	KindSoftLink
	KindExternalLink
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindDataset:
		return "dataset"
	case KindSoftLink:
		return "soft_link"
	case KindExternalLink:
		return "external_link"
	}
	return "unknown"
}

// Entity is a node of an HDF5 file: a group, a dataset, or a soft or
// external link that was not (or could not be) followed.
//
// Use the capability accessors rather than switching on concrete types.
type Entity struct {
	kind    Kind
	path    string
	group   *hdf5.Group
	dataset *hdf5.Dataset
	link    *hdf5.Link
}

// GroupEntity wraps a group.
func GroupEntity(g *hdf5.Group) Entity {
	return Entity{kind: KindGroup, path: g.Path(), group: g}
}

// DatasetEntity wraps a dataset.
func DatasetEntity(d *hdf5.Dataset) Entity {
	return Entity{kind: KindDataset, path: d.Path(), dataset: d}
}

// LinkEntity wraps an unresolved soft or external link.
func LinkEntity(l *hdf5.Link) Entity {
	kind := KindSoftLink
	if l.Type == hdf5.ExternalLink {
		kind = KindExternalLink
	}
	return Entity{kind: kind, path: l.Path, link: l}
}

// Kind returns the variant tag. The zero Entity has kind 0.
func (e Entity) Kind() Kind { return e.kind }

// Path returns the absolute path the entity was reached by.
func (e Entity) Path() string { return e.path }

// Name returns the last path component, or "/" for the root.
func (e Entity) Name() string {
	if e.path == "/" || e.path == "" {
		return "/"
	}
	return path.Base(e.path)
}

func (e Entity) IsGroup() bool   { return e.kind == KindGroup }
func (e Entity) IsDataset() bool { return e.kind == KindDataset }
func (e Entity) IsLink() bool    { return e.kind == KindSoftLink || e.kind == KindExternalLink }

// Group returns the group held by e, if any.
func (e Entity) Group() (*hdf5.Group, bool) { return e.group, e.kind == KindGroup }

// Dataset returns the dataset held by e, if any.
func (e Entity) Dataset() (*hdf5.Dataset, bool) { return e.dataset, e.kind == KindDataset }

// Link returns the unresolved link held by e, if any.
func (e Entity) Link() (*hdf5.Link, bool) { return e.link, e.IsLink() }

// Container is the read access the resolver needs from an open file.
type Container interface {
	// Name is the display name used in error messages.
	Name() string

	// Root returns the root group entity.
	Root() Entity

	// Link returns the link stored at path without dereferencing it.
	// A missing entry yields an error matching hdf5.ErrNotFound.
	Link(path string) (*hdf5.Link, error)

	// Get returns the entity at path, following every link.
	Get(path string) (Entity, error)
}

// FileContainer serves a Container from an open *hdf5.File.
type FileContainer struct {
	file *hdf5.File
}

// NewFileContainer wraps f. The caller keeps ownership of f.
func NewFileContainer(f *hdf5.File) *FileContainer {
	return &FileContainer{file: f}
}

// OpenFile opens the HDF5 file at name for reading. Close the returned
// container to release it.
func OpenFile(name string) (*FileContainer, error) {
	f, err := hdf5.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", name)
	}
	return &FileContainer{file: f}, nil
}

// File returns the underlying file.
func (c *FileContainer) File() *hdf5.File { return c.file }

// Close closes the underlying file.
func (c *FileContainer) Close() error { return c.file.Close() }

func (c *FileContainer) Name() string { return c.file.Name() }

func (c *FileContainer) Root() Entity { return GroupEntity(c.file.Root()) }

func (c *FileContainer) Link(p string) (*hdf5.Link, error) {
	l, err := c.file.Link(p)
	// A dataset in the middle of the path means there is no such entry.
	if errors.Is(err, hdf5.ErrNotGroup) {
		return nil, errors.Wrapf(hdf5.ErrNotFound, "%s", err)
	}
	return l, err
}

func (c *FileContainer) Get(p string) (Entity, error) {
	obj, err := c.file.Object(p)
	if err != nil {
		return Entity{}, err
	}
	switch o := obj.(type) {
	case *hdf5.Group:
		return GroupEntity(o), nil
	case *hdf5.Dataset:
		return DatasetEntity(o), nil
	}
	return Entity{}, errors.Errorf("unexpected object type %T at %s", obj, p)
}
