package hdf5

import (
	"errors"
	"path"
)

// SkipGroup may be returned by a WalkFunc visiting a group to leave its
// members out of the walk.
var SkipGroup = errors.New("skip this group")

// WalkFunc is called for every object reached by Walk.
//
// obj is a *Group or a *Dataset. When a member cannot be opened, obj is the
// *Link naming it (nil if even the link is unreadable) and err says why.
// Returning a non-nil error other than SkipGroup stops the walk.
type WalkFunc func(path string, obj interface{}, err error) error

// Walk visits g and everything below it, depth first, members in storage
// order. Soft and external links are followed, so an object reachable by
// several paths is visited once per path. A link cycle ends in an error
// passed to fn for the offending member.
func Walk(g *Group, fn WalkFunc) error {
	err := walk(g, fn)
	if err == SkipGroup {
		return nil
	}
	return err
}

func walk(g *Group, fn WalkFunc) error {
	if err := fn(g.Path(), g, nil); err != nil {
		return err
	}

	members, err := g.Members()
	if err != nil {
		return err
	}

	for _, name := range members {
		p := path.Join(g.Path(), name)

		obj, err := g.open(name)
		if err != nil {
			l, _ := g.Link(name)
			var target interface{}
			if l != nil {
				target = l
			}
			if err := fn(p, target, err); err != nil && err != SkipGroup {
				return err
			}
			continue
		}

		switch o := obj.(type) {
		case *Group:
			err = walk(o, fn)
			if err == SkipGroup {
				err = nil
			}
		default:
			err = fn(p, o, nil)
			if err == SkipGroup {
				err = nil
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
