package main

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/robert-malhotra/h5grove/h5grove"
)

var dataOpts = struct {
	selection string
	format    string
	dtype     string
	flatten   bool
	out       string
}{}

var data = cli.Command{
	Name:  "data",
	Usage: "Read dataset values",
	Description: `Read the values of a dataset, optionally restricted to a
	NumPy style selection, and write them as JSON, .npy or raw bytes.

	  h5grove data --selection '1:3,::2' --format npy -o out.npy data.h5 /entry/image

	With --dtype safe, values are converted to a type JavaScript typed
	arrays can hold (<i4, <u4, <f4 or <f8).`,
	ArgsUsage: "file path",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:        "selection, s",
			Usage:       "NumPy style slice, e.g. '0,1:10:2'",
			Destination: &dataOpts.selection,
		},
		cli.StringFlag{
			Name:        "format, f",
			Usage:       "One of {json, npy, bin} (default from config)",
			Destination: &dataOpts.format,
		},
		cli.StringFlag{
			Name:        "dtype, d",
			Usage:       "One of {origin, safe} (default from config)",
			Destination: &dataOpts.dtype,
		},
		cli.BoolFlag{
			Name:        "flatten",
			Usage:       "Reshape the result to one dimension",
			Destination: &dataOpts.flatten,
		},
		cli.StringFlag{
			Name:        "out, o",
			Usage:       "Output file (default stdout)",
			Destination: &dataOpts.out,
		},
	},
	Action: func(c *cli.Context) error {
		format, err := h5grove.ParseFormat(orDefault(dataOpts.format, cfg.Format))
		if err != nil {
			return err
		}
		mode, err := h5grove.ParseDtypeMode(orDefault(dataOpts.dtype, cfg.Dtype))
		if err != nil {
			return err
		}

		f, e, err := openEntity(c, links)
		if err != nil {
			return err
		}
		defer f.Close()

		arr, err := h5grove.ReadData(e, h5grove.DataOptions{
			Selection: dataOpts.selection,
			Flatten:   dataOpts.flatten,
			Dtype:     mode,
		})
		if err != nil {
			return err
		}
		logger.Debug("read data", "path", e.Path(), "dtype", arr.DType, "shape", arr.Shape)

		return writeArray(arr, format, dataOpts.out)
	},
}

func writeArray(arr *h5grove.Array, format h5grove.Format, out string) error {
	w := stdout
	if out != "" {
		file, err := os.Create(out)
		if err != nil {
			return errors.Wrapf(err, "could not create %s", out)
		}
		defer file.Close()
		w = file
	}

	bw := bufio.NewWriter(w)
	if err := h5grove.Encode(bw, arr, format); err != nil {
		return err
	}
	if format == h5grove.FormatJSON {
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
