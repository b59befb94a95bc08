package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiffcopy/pdiffcopy/internal/config"
)

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Nil(t, cfg.Defaults.BlockSize)
	assert.Nil(t, cfg.Defaults.HashMethod)
}

func TestLoadFullConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "pdiffcopy")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	content := `
[defaults]
block_size = 1048576
hash_method = "blake3"
concurrency = 8
bwlimit = 10485760
listen = "0.0.0.0:9999"
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(content), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)

	require.NotNil(t, cfg.Defaults.BlockSize)
	assert.EqualValues(t, 1048576, *cfg.Defaults.BlockSize)

	require.NotNil(t, cfg.Defaults.HashMethod)
	assert.Equal(t, "blake3", *cfg.Defaults.HashMethod)

	require.NotNil(t, cfg.Defaults.Concurrency)
	assert.Equal(t, 8, *cfg.Defaults.Concurrency)

	require.NotNil(t, cfg.Defaults.BWLimit)
	assert.EqualValues(t, 10485760, *cfg.Defaults.BWLimit)

	require.NotNil(t, cfg.Defaults.Listen)
	assert.Equal(t, "0.0.0.0:9999", *cfg.Defaults.Listen)
}

func TestLoadPartialConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "pdiffcopy")
	require.NoError(t, os.MkdirAll(configDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte("[defaults]\nconcurrency = 2\n"), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Nil(t, cfg.Defaults.BlockSize)
	require.NotNil(t, cfg.Defaults.Concurrency)
	assert.Equal(t, 2, *cfg.Defaults.Concurrency)
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	configDir := filepath.Join(dir, "pdiffcopy")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.toml"), []byte("invalid [[["), 0o644))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/pdiffcopy/config.toml", config.ConfigPath())
}
