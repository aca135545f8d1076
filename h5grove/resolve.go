package h5grove

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/robert-malhotra/h5grove/hdf5"
)

// Resolution is the outcome of Resolve: either the entity a path leads to,
// or the soft or external link that could not be followed.
type Resolution struct {
	entity Entity
	cause  error
}

// Entity returns the resolved entity, or the unresolved link.
func (r Resolution) Entity() Entity { return r.entity }

// Resolved reports whether Entity is a group or dataset.
func (r Resolution) Resolved() bool { return !r.entity.IsLink() }

// Cause returns the error that stopped link dereferencing. It is nil when
// the path resolved, or when dereferencing was not requested.
func (r Resolution) Cause() error { return r.cause }

// LinkResolution selects how soft and external links are treated.
type LinkResolution int

const (
	// ResolveNone returns links as they are.
	ResolveNone LinkResolution = iota
	// ResolveOnlyValid follows links and keeps the ones that are broken.
	ResolveOnlyValid
	// ResolveAll follows links; a broken one fails like a missing path.
	ResolveAll
)

var linkResolutionNames = map[LinkResolution]string{
	ResolveNone:      "none",
	ResolveOnlyValid: "only_valid",
	ResolveAll:       "all",
}

func (m LinkResolution) String() string {
	if name, ok := linkResolutionNames[m]; ok {
		return name
	}
	return "invalid"
}

// ParseLinkResolution parses "none", "only_valid" or "all". Boolean
// spellings stand for only_valid (true) and none (false).
func ParseLinkResolution(s string) (LinkResolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "false", "0":
		return ResolveNone, nil
	case "", "only_valid", "true", "1":
		return ResolveOnlyValid, nil
	case "all":
		return ResolveAll, nil
	}
	return 0, errors.Errorf("unknown link resolution %q", s)
}

// Resolve returns the entity at path in c.
//
// The root path always yields the root group. A missing entry fails with a
// *PathError. A soft or external link is followed only when resolveLinks is
// set; if following it fails (missing target, unreadable external file)
// the link itself is returned, with the failure available from Cause.
func Resolve(c Container, path string, resolveLinks bool) (Resolution, error) {
	if resolveLinks {
		return ResolveWith(c, path, ResolveOnlyValid)
	}
	return ResolveWith(c, path, ResolveNone)
}

// ResolveWith is Resolve with an explicit link mode. Under ResolveAll a
// link that cannot be followed fails with a *PathError wrapping the
// dereferencing error.
func ResolveWith(c Container, path string, mode LinkResolution) (Resolution, error) {
	if path == "/" {
		return Resolution{entity: c.Root()}, nil
	}

	link, err := c.Link(path)
	if err != nil {
		if errors.Is(err, hdf5.ErrClosed) {
			return Resolution{}, errors.Wrapf(err, "resolving %s", path)
		}
		return Resolution{}, &PathError{Path: path, File: c.Name(), Err: err}
	}

	if link.Type == hdf5.HardLink {
		e, err := c.Get(path)
		if err != nil {
			return Resolution{}, errors.Wrapf(err, "opening %s", path)
		}
		return Resolution{entity: e}, nil
	}

	if mode == ResolveNone {
		return Resolution{entity: LinkEntity(link)}, nil
	}

	e, err := c.Get(path)
	if err != nil {
		if mode == ResolveAll {
			return Resolution{}, &PathError{Path: path, File: c.Name(), Err: err}
		}
		return Resolution{entity: LinkEntity(link), cause: err}, nil
	}
	return Resolution{entity: e}, nil
}
