package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, defaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, defaultDownloadBaseURL, cfg.DownloadBaseURL)
	assert.Equal(t, defaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, int64(defaultMaxDownloadMB*1024*1024), cfg.MaxDownloadBytes)
	assert.Equal(t, defaultWorkers, cfg.Workers)
	assert.Equal(t, defaultDiffContext, cfg.DiffContext)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
api_url = "http://localhost:9000/"
cache_dir = "/tmp/wp-cache"
http_timeout = 5
workers = 2
debug = true
allowed_roots = ["/srv/sites"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("WPCOMPARE_WORKERS", "16")
	t.Setenv("WPCOMPARE_DOWNLOAD_URL", "http://localhost:9001")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.APIBaseURL)
	assert.Equal(t, "http://localhost:9001", cfg.DownloadBaseURL)
	assert.Equal(t, "/tmp/wp-cache", cfg.CacheDir)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 16, cfg.Workers, "environment wins over file")
	assert.True(t, cfg.Debug)
	assert.Equal(t, []string{"/srv/sites"}, cfg.AllowedRoots)
}

func TestAllowedRootsFromEnv(t *testing.T) {
	t.Setenv("WPCOMPARE_ALLOWED_ROOTS", "/a"+string(os.PathListSeparator)+"/b")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, cfg.AllowedRoots)
}

func TestLoadRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = \"many\"\n[[["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("WPCOMPARE_WORKERS", "lots")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, defaultWorkers, cfg.Workers)
}

func TestGetFallsBackToDefaults(t *testing.T) {
	Set(nil)
	t.Cleanup(func() { Set(nil) })

	cfg := Get()
	require.NotNil(t, cfg)
	assert.Equal(t, defaultHTTPAddr, cfg.HTTPAddr)
	assert.Same(t, cfg, Get())
}
