package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverlaysProvidedKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ember.toml")
	body := `
[buffer.pool]
size = 2500

[log]
level = "DEBUG"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2500, cfg.BufferPoolSize())
	require.Equal(t, "DEBUG", cfg.LogLevel())

	// keys absent from the file keep their defaults
	require.Equal(t, 100, cfg.MaxConnections())
	require.Equal(t, "./data", cfg.DataDirectory())
	require.Equal(t, 4096, cfg.PageSize())
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestDefaultMatchesDocumentedValues(t *testing.T) {
	cfg := Default()
	require.Equal(t, 1000, cfg.BufferPoolSize())
	require.Equal(t, 100, cfg.MaxConnections())
	require.Equal(t, "INFO", cfg.LogLevel())
	require.Equal(t, "./data", cfg.DataDirectory())
	require.Equal(t, 4096, cfg.PageSize())
	require.True(t, cfg.Enable.Wal)
	require.Equal(t, 1000, cfg.Wal.Sync.Interval)
	require.True(t, cfg.Auto.Create.Indexes)
}
