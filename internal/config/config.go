package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultListen         = "127.0.0.1:8080"
	defaultLogLevel       = "info"
	defaultWeekStart      = "monday"
	defaultMaxImportBytes = 5 << 20
	defaultRateLimitRPS   = 20
	defaultRateLimitBurst = 40
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CORSConfig lists browser origins allowed to call the API from elsewhere.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// RateLimitConfig throttles API requests across all clients.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" json:"rps"`
	Burst int     `yaml:"burst" json:"burst"`
}

// AutoExportConfig enables a periodic export of the event store to disk.
// Both fields must be set for the job to run.
type AutoExportConfig struct {
	// Cron is a standard 5-field cron expression, e.g. "0 3 * * *".
	Cron string `yaml:"cron" json:"cron"`
	// Dir receives kalender-export-YYYY-MM-DD.ics files.
	Dir string `yaml:"dir" json:"dir"`
}

// Enabled reports whether both schedule and target directory are set.
func (a AutoExportConfig) Enabled() bool {
	return strings.TrimSpace(a.Cron) != "" && strings.TrimSpace(a.Dir) != ""
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API. A non-loopback
	// address without BasicAuth disables POST /api/import/url, which would
	// otherwise let anyone make the server fetch arbitrary URLs.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// WeekStart controls which weekday is treated as the first day of the week
	// in the month view. Supported values:
	//   - "monday" (default)
	//   - "sunday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// MaxImportBytes bounds uploaded and fetched calendar files.
	MaxImportBytes int64 `yaml:"max_import_bytes" json:"max_import_bytes"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	CORS       CORSConfig       `yaml:"cors" json:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" json:"rate_limit"`
	AutoExport AutoExportConfig `yaml:"auto_export" json:"auto_export"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         defaultListen,
		LogLevel:       defaultLogLevel,
		WeekStart:      defaultWeekStart,
		MaxImportBytes: defaultMaxImportBytes,
		BasicAuth:      nil,
		CORS:           CORSConfig{AllowedOrigins: []string{}},
		RateLimit: RateLimitConfig{
			RPS:   defaultRateLimitRPS,
			Burst: defaultRateLimitBurst,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = defaultLogLevel
	}

	switch strings.ToLower(c.WeekStart) {
	case "monday", "sunday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		c.WeekStart = defaultWeekStart
	}

	if c.MaxImportBytes <= 0 {
		c.MaxImportBytes = defaultMaxImportBytes
	}
	if c.CORS.AllowedOrigins == nil {
		c.CORS.AllowedOrigins = []string{}
	}
	if c.RateLimit.RPS <= 0 {
		c.RateLimit.RPS = defaultRateLimitRPS
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = defaultRateLimitBurst
	}
}

// Load reads the YAML file at path on top of DefaultConfig. A missing file
// is created with the defaults (0600) and those defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// cfg is usable even when the first write fails
		return cfg, Save(path, cfg)
	case err != nil:
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save writes the given configuration to the specified path, atomically
// via a temp file + rename, with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return WriteFileAtomic(path, data, ".kalender-config-*.tmp")
}

// WriteFileAtomic writes data to path through a temp file in the same
// directory, creating the directory (0700) when missing. The final file
// has 0600 permissions.
func WriteFileAtomic(path string, data []byte, pattern string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name) // no-op after a successful rename

	_, werr := tmp.Write(data)
	if werr == nil {
		werr = tmp.Sync()
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return werr
	}

	if err := os.Chmod(name, 0o600); err != nil {
		return err
	}
	return os.Rename(name, path)
}

// Save writes c to path; see the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
