// ABOUTME: Tests for configuration loading and overrides
// ABOUTME: Uses temp files and t.Setenv for isolation
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultTimeout, cfg.RequestTimeout())
	assert.NotEmpty(t, cfg.DBPath)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"api_url": "http://localhost:4000/graphql",
		"timeout": "5s",
		"data_dir": "/tmp/crmlink-test"
	}`), 0600))

	t.Setenv("CRMLINK_LOG_LEVEL", "debug")
	t.Setenv("CRMLINK_LIVE", "1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:4000/graphql", cfg.APIURL)
	assert.Equal(t, "ws://localhost:4000/graphql", cfg.WSURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Live)
	assert.Equal(t, filepath.Join("/tmp/crmlink-test", "crmlink.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join("/tmp/crmlink-test", "localstore"), cfg.LocalStoreDir())
}

func TestLoadInvalidTimeoutEnv(t *testing.T) {
	t.Setenv("CRMLINK_TIMEOUT", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.APIURL = "https://example.test/graphql"
	cfg.Timeout = Duration(12 * time.Second)
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/graphql", loaded.APIURL)
	assert.Equal(t, 12*time.Second, loaded.RequestTimeout())
}
