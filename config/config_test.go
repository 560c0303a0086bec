package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packetforge/evhttpd/server"
)

func writeTempYAML(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "evhttpd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeTempYAML(t, `
read_buffer_max: 2097152
max_body_bytes: 524288
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	defaults := server.DefaultConfig()
	assert.Equal(t, 2097152, cfg.ReadBufferMax)
	assert.Equal(t, 524288, cfg.MaxBodyBytes)
	assert.Equal(t, defaults.InitialReadBufferSize, cfg.InitialReadBufferSize)
	assert.Equal(t, defaults.WriteBufferMax, cfg.WriteBufferMax)
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := writeTempYAML(t, "{}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, server.DefaultConfig(), cfg)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadNonMappingTopLevelErrors(t *testing.T) {
	path := writeTempYAML(t, "- 1\n- 2\n")

	_, err := Load(path)
	assert.Error(t, err)
}
