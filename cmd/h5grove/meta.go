package main

import (
	"github.com/urfave/cli"

	"github.com/robert-malhotra/h5grove/h5grove"
)

var metaOpts = struct {
	noResolve bool
}{}

var meta = cli.Command{
	Name:  "meta",
	Usage: "Print the metadata of an entity as JSON",
	Description: `Resolve a path inside an HDF5 file and print its metadata.

	Groups list their direct children. Datasets report shape, dtype,
	chunking and filters. Links that are not followed report their
	target: all of them with --no-resolve, broken ones otherwise. Under
	--resolve-links all a broken link is an error instead.

	  h5grove meta data.h5 /entry/image`,
	ArgsUsage: "file [path]",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:        "no-resolve",
			Usage:       "Describe soft and external links instead of their targets",
			Destination: &metaOpts.noResolve,
		},
	},
	Action: func(c *cli.Context) error {
		mode := links
		if metaOpts.noResolve {
			mode = h5grove.ResolveNone
		}
		f, e, err := openEntity(c, mode)
		if err != nil {
			return err
		}
		defer f.Close()

		m, err := h5grove.EntityMeta(f, e)
		if err != nil {
			return err
		}
		return printJSON(m)
	},
}
