package main

import (
	"github.com/urfave/cli"

	"github.com/robert-malhotra/h5grove/h5grove"
)

var statsOpts = struct {
	selection string
}{}

var stats = cli.Command{
	Name:  "stats",
	Usage: "Print summary statistics of a numeric dataset as JSON",
	Description: `Print strict_positive_min, positive_min, min, max, mean and
	std of a dataset or of a selection of it. NaN and infinite values are
	ignored; fields without a qualifying value are null.

	  h5grove stats --selection '0,:' data.h5 /entry/image`,
	ArgsUsage: "file path",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:        "selection, s",
			Usage:       "NumPy style slice, e.g. '0,1:10:2'",
			Destination: &statsOpts.selection,
		},
	},
	Action: func(c *cli.Context) error {
		f, e, err := openEntity(c, links)
		if err != nil {
			return err
		}
		defer f.Close()

		s, err := h5grove.DataStats(e, statsOpts.selection)
		if err != nil {
			return err
		}
		return printJSON(s)
	},
}
