package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_ConsoleLevel(t *testing.T) {
	var out bytes.Buffer
	logger, closeFn := New(Config{Level: "info"}, &out)
	logger.Debug("hidden")
	logger.Info("shown", zap.String("resource", "STR# 128"))
	require.NoError(t, closeFn())

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")
	assert.Contains(t, out.String(), "STR# 128")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	var out bytes.Buffer
	logger, closeFn := New(Config{Level: "loud"}, &out)
	logger.Info("info line")
	logger.Debug("debug line")
	require.NoError(t, closeFn())

	assert.Contains(t, out.String(), "info line")
	assert.NotContains(t, out.String(), "debug line")
}

func TestNew_RotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmplctl.log")
	cfg := DefaultConfig()
	cfg.Path = path
	cfg.Level = "debug"
	cfg.JSON = true

	var out bytes.Buffer
	logger, closeFn := New(cfg, &out)
	logger.Debug("decoded", zap.Int("elements", 3))
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"elements":3`)
	assert.Contains(t, out.String(), `"msg":"decoded"`)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
