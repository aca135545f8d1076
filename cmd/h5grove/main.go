package main

import (
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/robert-malhotra/h5grove/h5grove"
	"github.com/robert-malhotra/h5grove/internal/config"
)

var mainOpts = struct {
	config       string
	root         string
	resolveLinks string
	logLevel     string
}{}

var (
	cfg    *config.Config
	links  = h5grove.ResolveOnlyValid
	logger = slog.Default()

	stdout io.Writer = os.Stdout
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "h5grove"
	app.Usage = "Inspect HDF5 files the way the h5grove backend serves them"
	app.EnableBashCompletion = true
	app.Writer = stdout
	app.Commands = []cli.Command{
		files,
		meta,
		attr,
		data,
		stats,
		tree,
	}
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "YAML configuration file",
			EnvVar:      "H5GROVE_CONFIG",
			Destination: &mainOpts.config,
		},
		cli.StringFlag{
			Name:        "root, r",
			Usage:       "Directory HDF5 file names are relative to",
			EnvVar:      "H5GROVE_ROOT",
			Destination: &mainOpts.root,
		},
		cli.StringFlag{
			Name:        "resolve-links",
			Usage:       "How to treat soft and external links: one of {none, only_valid, all}",
			Destination: &mainOpts.resolveLinks,
		},
		cli.StringFlag{
			Name:        "log-level",
			Usage:       "One of {debug, info, warn, error}",
			Destination: &mainOpts.logLevel,
		},
	}
	app.Before = setup
	return app
}

// setup loads the configuration and lets command line flags override it.
func setup(_ *cli.Context) error {
	loaded, err := config.Load(mainOpts.config)
	if err != nil {
		return err
	}
	if mainOpts.root != "" {
		loaded.Root = mainOpts.root
	}
	if mainOpts.resolveLinks != "" {
		loaded.ResolveLinks = mainOpts.resolveLinks
	}
	if mainOpts.logLevel != "" {
		loaded.LogLevel = mainOpts.logLevel
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	level, _ := loaded.Level()
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	links, _ = loaded.LinkResolution()
	cfg = loaded
	return nil
}
