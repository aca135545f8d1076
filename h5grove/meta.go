package h5grove

import (
	"path"
	"slices"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/hdf5"
)

// attrHolder is implemented by *hdf5.Group and *hdf5.Dataset.
type attrHolder interface {
	Attrs() []string
	Attr(name string) *hdf5.Attribute
}

func holder(e Entity) attrHolder {
	if g, ok := e.Group(); ok {
		return g
	}
	if d, ok := e.Dataset(); ok {
		return d
	}
	return nil
}

// EntityMeta describes e as a sorted Dict: name, type and attribute
// metadata for every entity, plus
//
//   - children (one level deep, links unresolved) for groups,
//   - shape, dtype, chunks and filters for datasets,
//   - target_path, and target_file for external links, for links.
//
// Attributes and children are listed by name. Chunks and filters are nil
// for contiguous datasets.
func EntityMeta(c Container, e Entity) (Dict, error) {
	return entityMeta(c, e, true)
}

func entityMeta(c Container, e Entity, children bool) (Dict, error) {
	pairs := []Pair{
		P("name", e.Name()),
		P("type", e.Kind().String()),
	}

	if h := holder(e); h != nil {
		attrs := []AttrMeta{}
		for _, name := range sortedNames(h.Attrs()) {
			if a := h.Attr(name); a != nil {
				attrs = append(attrs, AttrMetadata(a))
			}
		}
		pairs = append(pairs, P("attributes", attrs))
	}

	switch e.Kind() {
	case KindGroup:
		if !children {
			break
		}
		g, _ := e.Group()
		names, err := g.Members()
		if err != nil {
			return nil, errors.Wrapf(err, "listing members of %s", e.Path())
		}
		kids := []Dict{}
		for _, name := range sortedNames(names) {
			res, err := Resolve(c, path.Join(e.Path(), name), false)
			if err != nil {
				return nil, err
			}
			child, err := entityMeta(c, res.Entity(), false)
			if err != nil {
				return nil, err
			}
			kids = append(kids, child)
		}
		pairs = append(pairs, P("children", kids))

	case KindDataset:
		d, _ := e.Dataset()
		pairs = append(pairs,
			P("shape", intShape(d.Shape())),
			P("dtype", DatatypeDType(d.Datatype()).String()),
		)
		var chunks []int
		if c := d.Chunks(); c != nil {
			chunks = intShape(c)
		}
		pairs = append(pairs,
			P("chunks", chunks),
			P("filters", d.Filters()),
		)

	case KindSoftLink, KindExternalLink:
		l, _ := e.Link()
		pairs = append(pairs, P("target_path", l.Target))
		if l.Type == hdf5.ExternalLink {
			pairs = append(pairs, P("target_file", l.File))
		}
	}

	return SortedDict(pairs...), nil
}

func sortedNames(names []string) []string {
	names = slices.Clone(names)
	slices.Sort(names)
	return names
}

// Attributes returns the attribute values of e keyed by name. With keys,
// only those attributes are read; a missing one fails with
// ErrAttrNotFound. Links have no attributes.
func Attributes(e Entity, keys ...string) (Dict, error) {
	h := holder(e)
	if h == nil {
		if len(keys) > 0 {
			return nil, errors.Wrapf(ErrAttrNotFound, "%s has no attribute %s", e.Path(), keys[0])
		}
		return Dict{}, nil
	}

	names := keys
	if len(names) == 0 {
		names = h.Attrs()
	}

	pairs := make([]Pair, 0, len(names))
	for _, name := range names {
		a := h.Attr(name)
		if a == nil {
			return nil, errors.Wrapf(ErrAttrNotFound, "%s has no attribute %s", e.Path(), name)
		}
		v, err := AttrValue(a)
		if err != nil {
			return nil, errors.Wrapf(err, "reading attribute %s of %s", name, e.Path())
		}
		pairs = append(pairs, P(name, v))
	}
	return SortedDict(pairs...), nil
}
