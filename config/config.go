// ABOUTME: Configuration for the GraphQL endpoint, storage paths, and logging
// ABOUTME: Loads JSON config at XDG paths with .env and CRMLINK_* environment overrides
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	// AppName names the XDG directories.
	AppName = "crmlink"

	// ConfigFileName is the config file inside the XDG config directory.
	ConfigFileName = "config.json"

	// DefaultAPIURL is the public demo API.
	DefaultAPIURL = "https://api.crm.refine.dev/graphql"

	// DefaultWSURL is the live-update endpoint of the demo API.
	DefaultWSURL = "wss://api.crm.refine.dev/graphql"

	DefaultTimeout = 30 * time.Second
)

// Duration marshals as a Go duration string ("30s").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration: %s", string(data))
	}
	*d = Duration(time.Duration(n))
	return nil
}

// Config holds every runtime setting.
type Config struct {
	APIURL  string   `json:"api_url"`
	WSURL   string   `json:"ws_url,omitempty"`
	Timeout Duration `json:"timeout,omitempty"`

	// Live enables websocket subscriptions that keep the cache current.
	Live bool `json:"live"`

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	// DocumentsPath optionally points at a YAML file overriding GraphQL documents.
	DocumentsPath string `json:"documents_path,omitempty"`

	DataDir string `json:"data_dir,omitempty"`
	DBPath  string `json:"db_path,omitempty"`
}

// DefaultConfig returns a config with sensible defaults. Paths and the
// websocket URL are derived later so file values can steer them.
func DefaultConfig() *Config {
	return &Config{
		APIURL:    DefaultAPIURL,
		Timeout:   Duration(DefaultTimeout),
		LogLevel:  "warn",
		LogFormat: "console",
	}
}

// DefaultPath returns the XDG config file path.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFileName)
}

// Load reads the config file at path (DefaultPath when empty), then applies
// .env and environment overrides. A missing file yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	// .env is optional
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg.fillDefaults()

	return cfg, nil
}

// applyEnvOverrides applies CRMLINK_* environment variables:
// - CRMLINK_API_URL
// - CRMLINK_WS_URL
// - CRMLINK_TIMEOUT
// - CRMLINK_LIVE
// - CRMLINK_LOG_LEVEL
// - CRMLINK_LOG_FORMAT
// - CRMLINK_DOCUMENTS
// - CRMLINK_DATA_DIR
// - CRMLINK_DB_PATH.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CRMLINK_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("CRMLINK_WS_URL"); v != "" {
		cfg.WSURL = v
	}
	if v := os.Getenv("CRMLINK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CRMLINK_TIMEOUT: %w", err)
		}
		cfg.Timeout = Duration(d)
	}
	if v := os.Getenv("CRMLINK_LIVE"); v != "" {
		cfg.Live = v == "true" || v == "1"
	}
	if v := os.Getenv("CRMLINK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CRMLINK_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("CRMLINK_DOCUMENTS"); v != "" {
		cfg.DocumentsPath = v
	}
	if v := os.Getenv("CRMLINK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CRMLINK_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	return nil
}

func (c *Config) fillDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.WSURL == "" {
		if c.APIURL == DefaultAPIURL {
			c.WSURL = DefaultWSURL
		} else {
			c.WSURL = deriveWSURL(c.APIURL)
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = Duration(DefaultTimeout)
	}
	if c.DataDir == "" {
		c.DataDir = filepath.Join(xdg.DataHome, AppName)
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "crmlink.db")
	}
}

func deriveWSURL(apiURL string) string {
	switch {
	case strings.HasPrefix(apiURL, "https://"):
		return "wss://" + strings.TrimPrefix(apiURL, "https://")
	case strings.HasPrefix(apiURL, "http://"):
		return "ws://" + strings.TrimPrefix(apiURL, "http://")
	}
	return apiURL
}

// LocalStoreDir is where the access token is persisted.
func (c *Config) LocalStoreDir() string {
	return filepath.Join(c.DataDir, "localstore")
}

// RequestTimeout returns the timeout as a time.Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout)
}

// Save writes the config with restricted permissions.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
