package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 256.0, cfg.Slicer.MaxDimension)
	assert.Equal(t, []string{".stl", ".3mf"}, cfg.Storage.AllowedExtensions)
	assert.Equal(t, 30, cfg.Queue.RetentionDays)
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
slicer:
  binary: /opt/slic3r/bin/prusa-slicer
  timeout: 10m
  max_dimension_mm: 300
queue:
  sweep_interval: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/opt/slic3r/bin/prusa-slicer", cfg.Slicer.Binary)
	assert.Equal(t, 10*time.Minute, cfg.Slicer.Timeout)
	assert.Equal(t, 300.0, cfg.Slicer.MaxDimension)
	assert.Equal(t, 500*time.Millisecond, cfg.Queue.SweepInterval)
	// Untouched sections keep their defaults.
	assert.Equal(t, "./data/printquote.db", cfg.Database.Path)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PRINTQUOTE_PORT", "7070")
	t.Setenv("PRINTQUOTE_DB_PATH", "/tmp/q.db")
	t.Setenv("PRINTQUOTE_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/q.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"empty upload dir", func(c *Config) { c.Storage.UploadDir = "" }},
		{"zero upload cap", func(c *Config) { c.Storage.MaxUploadMB = 0 }},
		{"extension without dot", func(c *Config) { c.Storage.AllowedExtensions = []string{"stl"} }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"empty catalog path", func(c *Config) { c.Catalog.Path = "" }},
		{"empty slicer binary", func(c *Config) { c.Slicer.Binary = "" }},
		{"zero max dimension", func(c *Config) { c.Slicer.MaxDimension = 0 }},
		{"zero slicer timeout", func(c *Config) { c.Slicer.Timeout = 0 }},
		{"zero sweep interval", func(c *Config) { c.Queue.SweepInterval = 0 }},
		{"negative retention", func(c *Config) { c.Queue.RetentionDays = -1 }},
		{"webhook url without timeout", func(c *Config) {
			c.Webhook.URL = "http://example.com/hook"
			c.Webhook.Timeout = 0
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, defaults().Validate())
}

func TestExtensionAllowed(t *testing.T) {
	s := defaults().Storage
	assert.True(t, s.ExtensionAllowed(".stl"))
	assert.True(t, s.ExtensionAllowed(".STL"))
	assert.True(t, s.ExtensionAllowed(".3mf"))
	assert.False(t, s.ExtensionAllowed(".gcode"))
}
