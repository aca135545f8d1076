package main

import (
	"github.com/urfave/cli"

	"github.com/robert-malhotra/h5grove/h5grove"
)

var attr = cli.Command{
	Name:      "attr",
	Usage:     "Print the attribute values of an entity as JSON",
	ArgsUsage: "file [path]",
	Flags: []cli.Flag{
		cli.StringSliceFlag{
			Name:  "key, k",
			Usage: "Attribute to print (repeatable, default all)",
		},
	},
	Action: func(c *cli.Context) error {
		f, e, err := openEntity(c, links)
		if err != nil {
			return err
		}
		defer f.Close()

		values, err := h5grove.Attributes(e, c.StringSlice("key")...)
		if err != nil {
			return err
		}
		return printJSON(values)
	},
}
