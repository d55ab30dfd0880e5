package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tmplctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
support:
  - /opt/templates
  - ~/more
format: yaml
keep_trailing: true
limits:
  max_depth: 8
log:
  level: debug
  path: /tmp/tmplctl-test.log
`), 0o644))

	c, err := loadConfig(path)
	require.NoError(t, err)
	home, _ := os.UserHomeDir()
	assert.Equal(t, []string{"/opt/templates", filepath.Join(home, "more")}, c.Support)
	assert.Equal(t, "yaml", c.Format)
	assert.True(t, c.KeepTrailing)
	assert.Equal(t, 8, c.Limits.MaxDepth)
	assert.Equal(t, 1<<16, c.Limits.MaxEntries, "unset keys keep their defaults")
	assert.Equal(t, "debug", c.Log.Level)

	opts := c.DecodeOptions()
	assert.True(t, opts.KeepTrailing)
	assert.Equal(t, 8, opts.Limits.MaxDepth)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("TMPLCTL_FORMAT", "json")
	t.Setenv("TMPLCTL_SUPPORT", "/a,/b")
	t.Setenv("TMPLCTL_LOG_LEVEL", "error")

	c, err := decodeConfig(newViper())
	require.NoError(t, err)
	assert.Equal(t, "json", c.Format)
	assert.Equal(t, []string{"/a", "/b"}, c.Support)
	assert.Equal(t, "error", c.Log.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("limits: [1, 2"), 0o644))
	_, err = loadConfig(bad)
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	c := defaultConfig()
	assert.Equal(t, "text", c.Format)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Empty(t, c.Support)
}
