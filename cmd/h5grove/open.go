package main

import (
	"encoding/json"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/robert-malhotra/h5grove/h5grove"
)

// openEntity opens the file named by the first argument and resolves the
// path given as the second one ("/" when absent) under mode. The caller
// closes the returned container.
func openEntity(c *cli.Context, mode h5grove.LinkResolution) (*h5grove.FileContainer, h5grove.Entity, error) {
	if c.NArg() < 1 {
		return nil, h5grove.Entity{}, errors.New("missing file argument")
	}
	name := c.Args().Get(0)
	if !filepath.IsAbs(name) {
		name = filepath.Join(cfg.Root, name)
	}
	p := "/"
	if c.NArg() > 1 {
		p = c.Args().Get(1)
	}

	f, err := h5grove.OpenFile(name)
	if err != nil {
		return nil, h5grove.Entity{}, err
	}

	res, err := h5grove.ResolveWith(f, p, mode)
	if err != nil {
		f.Close()
		return nil, h5grove.Entity{}, err
	}
	if res.Cause() != nil {
		logger.Warn("link not followed", "file", f.Name(), "path", p, "err", res.Cause())
	}
	logger.Debug("resolved", "file", f.Name(), "path", p, "kind", res.Entity().Kind())
	return f, res.Entity(), nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
