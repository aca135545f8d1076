// Package hdf5 reads HDF5 files in pure Go: groups, datasets, attributes
// and the hard, soft and external links between them.
package hdf5

import "errors"

var (
	ErrNotFound    = errors.New("object not found")
	ErrNotDataset  = errors.New("object is not a dataset")
	ErrNotGroup    = errors.New("object is not a group")
	ErrInvalidPath = errors.New("invalid path")
	ErrClosed      = errors.New("file is closed")

	// ErrLinkDepth is returned when resolving a path follows more than
	// MaxLinkDepth soft or external links.
	ErrLinkDepth = errors.New("maximum link depth exceeded")
)

// MaxLinkDepth bounds the links followed while resolving one path.
const MaxLinkDepth = 100
