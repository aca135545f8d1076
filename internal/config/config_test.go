package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/h5grove/h5grove"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "h5grove.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Root:         ".",
		ResolveLinks: "only_valid",
		Format:       "json",
		Dtype:        "origin",
		LogLevel:     "info",
	}, cfg)

	require.NoError(t, cfg.Validate())
	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l)
	m, err := cfg.LinkResolution()
	require.NoError(t, err)
	assert.Equal(t, h5grove.ResolveOnlyValid, m)
}

func TestLoadFile(t *testing.T) {
	p := writeConfig(t, `
root: /data
resolve_links: all
format: npy
dtype: safe
log_level: debug
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/data", cfg.Root)
	m, err := cfg.LinkResolution()
	require.NoError(t, err)
	assert.Equal(t, h5grove.ResolveAll, m)
	assert.Equal(t, "npy", cfg.Format)
	assert.Equal(t, "safe", cfg.Dtype)

	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, l)
}

func TestLoadEnvOverride(t *testing.T) {
	p := writeConfig(t, "root: /data\nformat: npy\n")
	t.Setenv("H5GROVE_ROOT", "/elsewhere")
	t.Setenv("H5GROVE_LOG_LEVEL", "warn")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere", cfg.Root)
	assert.Equal(t, "npy", cfg.Format)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadBooleanResolveLinks(t *testing.T) {
	cfg, err := Load(writeConfig(t, "resolve_links: false\n"))
	require.NoError(t, err)
	m, err := cfg.LinkResolution()
	require.NoError(t, err)
	assert.Equal(t, h5grove.ResolveNone, m)
}

func TestValidateInvalid(t *testing.T) {
	tests := map[string]string{
		"format":        "format: xml\n",
		"dtype":         "dtype: unsafe\n",
		"log level":     "log_level: loud\n",
		"root":          "root: \"\"\n",
		"resolve links": "resolve_links: sometimes\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, body))
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}
}

// Invalid values can still be corrected after loading, as the command
// line flags do.
func TestValidateAfterOverride(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log_level: loud\n"))
	require.NoError(t, err)
	require.Error(t, cfg.Validate())

	cfg.LogLevel = "debug"
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
