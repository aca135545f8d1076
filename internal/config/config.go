// Package config loads the h5grove command settings from an optional YAML
// file and H5GROVE_* environment variables.
package config

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/robert-malhotra/h5grove/h5grove"
)

// EnvPrefix prefixes the environment variables that override settings,
// e.g. H5GROVE_ROOT or H5GROVE_LOG_LEVEL.
const EnvPrefix = "H5GROVE"

type Config struct {
	// Root is the directory files are served from.
	Root string `mapstructure:"root"`

	// ResolveLinks is a link resolution mode: none, only_valid or all.
	ResolveLinks string `mapstructure:"resolve_links"`
	Format       string `mapstructure:"format"`
	Dtype        string `mapstructure:"dtype"`
	LogLevel     string `mapstructure:"log_level"`
}

var defaults = map[string]interface{}{
	"root":          ".",
	"resolve_links": h5grove.ResolveOnlyValid.String(),
	"format":        string(h5grove.FormatJSON),
	"dtype":         string(h5grove.DtypeOrigin),
	"log_level":     "info",
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment apply. The result is not validated, so
// that callers can override settings first.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return &cfg, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("root must not be empty")
	}
	if _, err := c.LinkResolution(); err != nil {
		return err
	}
	if _, err := h5grove.ParseFormat(c.Format); err != nil {
		return errors.Wrap(err, "format")
	}
	if _, err := h5grove.ParseDtypeMode(c.Dtype); err != nil {
		return errors.Wrap(err, "dtype")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// LinkResolution parses ResolveLinks.
func (c *Config) LinkResolution() (h5grove.LinkResolution, error) {
	m, err := h5grove.ParseLinkResolution(c.ResolveLinks)
	if err != nil {
		return m, errors.Wrap(err, "resolve_links")
	}
	return m, nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, errors.Wrapf(err, "log_level %q", c.LogLevel)
	}
	return l, nil
}
