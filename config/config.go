package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rohanthewiz/serr"
)

const (
	defaultAPIBaseURL      = "https://api.wordpress.org"
	defaultDownloadBaseURL = "https://downloads.wordpress.org"
	defaultHTTPTimeout     = 60 * time.Second
	defaultMaxDownloadMB   = 100
	defaultWorkers         = 8
	defaultDiffContext     = 3
	defaultHTTPAddr        = ":8765"
	defaultMCPAddr         = ":8766"
)

// Config holds application configuration
type Config struct {
	APIBaseURL       string
	DownloadBaseURL  string
	CacheDir         string
	HTTPTimeout      time.Duration
	MaxDownloadBytes int64
	Workers          int
	DiffContext      int
	HTTPAddr         string
	MCPAddr          string
	Debug            bool
	// AllowedRoots confines tool path arguments; empty allows any path
	AllowedRoots []string
}

// fileConfig mirrors the optional TOML config file.
// Zero values mean "not set" and leave the default in place.
type fileConfig struct {
	APIURL         string   `toml:"api_url"`
	DownloadURL    string   `toml:"download_url"`
	CacheDir       string   `toml:"cache_dir"`
	HTTPTimeoutSec int      `toml:"http_timeout"`
	MaxDownloadMB  int      `toml:"max_download_mb"`
	Workers        int      `toml:"workers"`
	DiffContext    int      `toml:"diff_context"`
	HTTPAddr       string   `toml:"http_addr"`
	MCPAddr        string   `toml:"mcp_addr"`
	Debug          bool     `toml:"debug"`
	AllowedRoots   []string `toml:"allowed_roots"`
}

var (
	globalConfig *Config
	mu           sync.RWMutex
)

// Initialize sets up the configuration from the config file (if any) and environment variables
func Initialize() error {
	cfg, err := Load(configFilePath())
	if err != nil {
		return err
	}
	Set(cfg)
	return nil
}

// Get returns the global configuration instance.
// If Initialize was never called or failed, defaults plus environment are used.
func Get() *Config {
	mu.RLock()
	cfg := globalConfig
	mu.RUnlock()
	if cfg != nil {
		return cfg
	}

	cfg = Defaults()
	applyEnv(cfg)
	Set(cfg)
	return cfg
}

// Set replaces the global configuration
func Set(cfg *Config) {
	mu.Lock()
	globalConfig = cfg
	mu.Unlock()
}

// Defaults returns a Config populated with built-in defaults
func Defaults() *Config {
	return &Config{
		APIBaseURL:       defaultAPIBaseURL,
		DownloadBaseURL:  defaultDownloadBaseURL,
		CacheDir:         defaultCacheDir(),
		HTTPTimeout:      defaultHTTPTimeout,
		MaxDownloadBytes: defaultMaxDownloadMB * 1024 * 1024,
		Workers:          defaultWorkers,
		DiffContext:      defaultDiffContext,
		HTTPAddr:         defaultHTTPAddr,
		MCPAddr:          defaultMCPAddr,
	}
}

// Load builds a Config from defaults, the TOML file at path and the environment.
// A missing file is not an error; an unparsable one is.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			if !os.IsNotExist(err) {
				return nil, serr.Wrap(err, "failed to parse config file", "path", path)
			}
		} else {
			fc.apply(cfg)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func (fc fileConfig) apply(cfg *Config) {
	if fc.APIURL != "" {
		cfg.APIBaseURL = strings.TrimRight(fc.APIURL, "/")
	}
	if fc.DownloadURL != "" {
		cfg.DownloadBaseURL = strings.TrimRight(fc.DownloadURL, "/")
	}
	if fc.CacheDir != "" {
		cfg.CacheDir = fc.CacheDir
	}
	if fc.HTTPTimeoutSec > 0 {
		cfg.HTTPTimeout = time.Duration(fc.HTTPTimeoutSec) * time.Second
	}
	if fc.MaxDownloadMB > 0 {
		cfg.MaxDownloadBytes = int64(fc.MaxDownloadMB) * 1024 * 1024
	}
	if fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if fc.DiffContext > 0 {
		cfg.DiffContext = fc.DiffContext
	}
	if fc.HTTPAddr != "" {
		cfg.HTTPAddr = fc.HTTPAddr
	}
	if fc.MCPAddr != "" {
		cfg.MCPAddr = fc.MCPAddr
	}
	if fc.Debug {
		cfg.Debug = true
	}
	if len(fc.AllowedRoots) > 0 {
		cfg.AllowedRoots = fc.AllowedRoots
	}
}

// applyEnv overrides cfg with WPCOMPARE_* environment variables
func applyEnv(cfg *Config) {
	if v := os.Getenv("WPCOMPARE_API_URL"); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("WPCOMPARE_DOWNLOAD_URL"); v != "" {
		cfg.DownloadBaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("WPCOMPARE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if n, ok := envInt("WPCOMPARE_HTTP_TIMEOUT"); ok {
		cfg.HTTPTimeout = time.Duration(n) * time.Second
	}
	if n, ok := envInt("WPCOMPARE_MAX_DOWNLOAD_MB"); ok {
		cfg.MaxDownloadBytes = int64(n) * 1024 * 1024
	}
	if n, ok := envInt("WPCOMPARE_WORKERS"); ok {
		cfg.Workers = n
	}
	if n, ok := envInt("WPCOMPARE_DIFF_CONTEXT"); ok {
		cfg.DiffContext = n
	}
	if v := os.Getenv("WPCOMPARE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("WPCOMPARE_MCP_ADDR"); v != "" {
		cfg.MCPAddr = v
	}
	if v := os.Getenv("WPCOMPARE_DEBUG"); v != "" {
		cfg.Debug, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("WPCOMPARE_ALLOWED_ROOTS"); v != "" {
		cfg.AllowedRoots = filepath.SplitList(v)
	}
}

// envInt reads a positive integer from the environment
func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// configFilePath returns $WPCOMPARE_CONFIG or <user config dir>/wpcompare/config.toml
func configFilePath() string {
	if p := os.Getenv("WPCOMPARE_CONFIG"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "wpcompare", "config.toml")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "wpcompare")
	}
	return filepath.Join(dir, "wpcompare")
}
