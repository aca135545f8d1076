package main

import (
	"fmt"
	"path"
	"strings"

	"github.com/urfave/cli"

	"github.com/robert-malhotra/h5grove/h5grove"
	"github.com/robert-malhotra/h5grove/hdf5"
)

var treeOpts = struct {
	depth int
}{}

var tree = cli.Command{
	Name:      "tree",
	Usage:     "Print the hierarchy below a group",
	ArgsUsage: "file [path]",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:        "depth",
			Usage:       "Do not descend more than this many levels (0 for no limit)",
			Destination: &treeOpts.depth,
		},
	},
	Action: func(c *cli.Context) error {
		f, e, err := openEntity(c, links)
		if err != nil {
			return err
		}
		defer f.Close()

		g, ok := e.Group()
		if !ok {
			return fmt.Errorf("%s is not a group", e.Path())
		}
		base := depth(g.Path())

		return hdf5.Walk(g, func(p string, obj interface{}, err error) error {
			level := depth(p) - base
			indent := strings.Repeat("  ", level)
			switch o := obj.(type) {
			case *hdf5.Group:
				fmt.Fprintf(stdout, "%s%s/\n", indent, displayName(p))
				if treeOpts.depth > 0 && level >= treeOpts.depth {
					return hdf5.SkipGroup
				}
			case *hdf5.Dataset:
				dt := h5grove.DatatypeDType(o.Datatype())
				fmt.Fprintf(stdout, "%s%s %v %s\n", indent, displayName(p), o.Shape(), dt)
			case *hdf5.Link:
				logger.Debug("link not followed", "path", p, "err", err)
				fmt.Fprintf(stdout, "%s%s -> %s\n", indent, displayName(p), linkTarget(o))
			default:
				logger.Warn("could not open member", "path", p, "err", err)
				fmt.Fprintf(stdout, "%s%s ?\n", indent, displayName(p))
			}
			return nil
		})
	},
}

func depth(p string) int {
	if p == "/" {
		return 0
	}
	return strings.Count(p, "/")
}

func displayName(p string) string {
	if p == "/" {
		return "/"
	}
	return path.Base(p)
}

func linkTarget(l *hdf5.Link) string {
	if l == nil {
		return "?"
	}
	if l.Type == hdf5.ExternalLink {
		return l.File + ":" + l.Target
	}
	return l.Target
}
