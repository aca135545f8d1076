package hdf5

import (
	"path"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/internal/btree"
	"github.com/robert-malhotra/h5grove/internal/heap"
	"github.com/robert-malhotra/h5grove/internal/message"
	"github.com/robert-malhotra/h5grove/internal/object"
)

// Group is a container of named links to other objects.
type Group struct {
	file   *File
	path   string
	header *object.Header
}

func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return path.Base(g.path)
}

func (g *Group) Path() string { return g.path }

// File returns the file the group was read from. For groups reached through
// an external link this is the external file.
func (g *Group) File() *File { return g.file }

// OpenGroup opens the group at p, relative to g.
func (g *Group) OpenGroup(p string) (*Group, error) {
	obj, err := g.open(p)
	if err != nil {
		return nil, err
	}
	grp, ok := obj.(*Group)
	if !ok {
		return nil, ErrNotGroup
	}
	return grp, nil
}

// OpenDataset opens the dataset at p, relative to g.
func (g *Group) OpenDataset(p string) (*Dataset, error) {
	obj, err := g.open(p)
	if err != nil {
		return nil, err
	}
	ds, ok := obj.(*Dataset)
	if !ok {
		return nil, ErrNotDataset
	}
	return ds, nil
}

// open resolves p one component at a time. Objects are named by the path
// that reached them, not by where their links point.
func (g *Group) open(p string) (interface{}, error) {
	parts := splitPath(p)
	if len(parts) == 0 {
		return g, nil
	}
	t, err := g.resolve(parts[:len(parts)-1], make(hops))
	if err != nil {
		return nil, err
	}
	dir, err := g.groupAt(t, parts[:len(parts)-1])
	if err != nil {
		return nil, err
	}
	last := parts[len(parts)-1]
	t, err = dir.follow(last, make(hops))
	if err != nil {
		return nil, errors.Wrapf(err, "finding %q", last)
	}
	return t.object(path.Join(dir.path, last))
}

// resolve walks parts from g and returns the object the last one names.
func (g *Group) resolve(parts []string, seen hops) (target, error) {
	cur := g
	t := target{file: g.file, addr: g.header.Address}
	for i, name := range parts {
		var err error
		if t, err = cur.follow(name, seen); err != nil {
			return target{}, errors.Wrapf(err, "finding %q", name)
		}
		if i == len(parts)-1 {
			break
		}
		if cur, err = t.group(path.Join(cur.path, name)); err != nil {
			return target{}, err
		}
	}
	return t, nil
}

// groupAt opens the group t, named by parts below g.
func (g *Group) groupAt(t target, parts []string) (*Group, error) {
	if len(parts) == 0 {
		return g, nil
	}
	p := g.path
	for _, name := range parts {
		p = path.Join(p, name)
	}
	return t.group(p)
}

// follow looks up name in g and dereferences it. Soft link targets are
// taken from the root when absolute and from g otherwise.
func (g *Group) follow(name string, seen hops) (target, error) {
	m, err := g.member(name)
	if err != nil {
		return target{}, err
	}
	switch m.Type {
	case HardLink:
		return target{file: g.file, addr: m.addr}, nil

	case SoftLink:
		if err := seen.enter(g.file.path + ":" + m.Path); err != nil {
			return target{}, err
		}
		from := g
		if path.IsAbs(m.Target) {
			from = g.file.root
		}
		return from.resolve(splitPath(m.Target), seen)

	case ExternalLink:
		if err := seen.enter(g.file.path + ":" + m.Path); err != nil {
			return target{}, err
		}
		ext, err := g.file.externalFile(m.File)
		if err != nil {
			return target{}, err
		}
		t, err := ext.root.resolve(splitPath(m.Target), seen)
		return t, errors.Wrapf(err, "resolving %s in %s", m.Target, m.File)
	}
	return target{}, errors.Errorf("link %s has unknown type %d", m.Path, m.Type)
}

// members lists the links of g in storage order. Groups either hold link
// messages or, in the old format, a symbol table.
func (g *Group) members() ([]*Link, error) {
	var out []*Link
	for _, msg := range g.header.GetMessages(message.TypeLink) {
		out = append(out, newLink(path.Join(g.path, msg.(*message.Link).Name), msg.(*message.Link)))
	}
	if len(out) > 0 {
		return out, nil
	}

	st := g.symbolTable()
	if st == nil {
		return nil, nil
	}
	lh, err := heap.ReadLocalHeap(g.file.reader, st.LocalHeapAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "reading members of %s", g.path)
	}
	entries, err := btree.ReadGroupEntries(g.file.reader, st.BTreeAddress, lh)
	if err != nil {
		return nil, errors.Wrapf(err, "reading members of %s", g.path)
	}
	for _, e := range entries {
		out = append(out, newLinkV1(path.Join(g.path, e.Name), e))
	}
	return out, nil
}

func (g *Group) member(name string) (*Link, error) {
	all, err := g.members()
	if err != nil {
		return nil, err
	}
	for _, l := range all {
		if l.Name() == name {
			return l, nil
		}
	}
	return nil, ErrNotFound
}

// symbolTable returns the symbol table of an old style group. The root
// group may only have its addresses cached in the superblock.
func (g *Group) symbolTable() *message.SymbolTable {
	if m := g.header.GetMessage(message.TypeSymbolTable); m != nil {
		return m.(*message.SymbolTable)
	}
	sb := g.file.superblock
	if g.header.Address == sb.RootGroupAddress && sb.RootGroupBTreeAddress != 0 {
		return &message.SymbolTable{
			BTreeAddress:     sb.RootGroupBTreeAddress,
			LocalHeapAddress: sb.RootGroupLocalHeapAddress,
		}
	}
	return nil
}

// Link returns the link named name in g without following it.
func (g *Group) Link(name string) (*Link, error) {
	l, err := g.member(name)
	if err != nil {
		return nil, errors.Wrapf(err, "link %s", path.Join(g.path, name))
	}
	return l, nil
}

// Members returns the names of all links in g, in storage order.
func (g *Group) Members() ([]string, error) {
	all, err := g.members()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(all))
	for i, l := range all {
		names[i] = l.Name()
	}
	return names, nil
}

func (g *Group) Attrs() []string { return attrNames(g.header) }

// Attr returns the attribute called name, or nil.
func (g *Group) Attr(name string) *Attribute {
	return findAttr(g.header, g.file, name)
}
