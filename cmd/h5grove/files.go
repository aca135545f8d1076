package main

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/robert-malhotra/h5grove/h5grove"
)

var files = cli.Command{
	Name:  "files",
	Usage: "List HDF5 files under the root directory",
	Description: `Recursively list files with an HDF5 or NeXus extension
	(.h5, .hdf5, .hdf, .nxs, .nx5) under the root, skipping hidden
	directories. Paths are printed relative to the root.`,
	Action: func(c *cli.Context) error {
		names, err := h5grove.FindFiles(cfg.Root)
		if err != nil {
			return err
		}
		logger.Debug("found files", "root", cfg.Root, "count", len(names))
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return nil
	},
}
