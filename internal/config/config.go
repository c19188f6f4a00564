package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the upload UI.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ArchiveConfig controls the on-disk store of generated calendars.
type ArchiveConfig struct {
	// Dir is the base directory for stored calendars.
	Dir string `yaml:"dir" json:"dir"`
	// RetentionDays is how long stored calendars stay downloadable.
	RetentionDays int `yaml:"retention_days" json:"retention_days"`
	// CleanupCron is the janitor schedule (e.g. "0 3 * * *").
	CleanupCron string `yaml:"cleanup_cron" json:"cleanup_cron"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone stamped on every generated event.
	// The registration system this service reads from runs on Pacific
	// time, so that is the default.
	Timezone string `yaml:"timezone" json:"timezone"`

	// ProdID is the PRODID written into generated calendars.
	ProdID string `yaml:"prodid" json:"prodid"`

	// SingleDayFallback emits a plain one-day event instead of a
	// weekly rule with an empty BYDAY clause when a session's weekday
	// column parsed to no days.
	SingleDayFallback bool `yaml:"single_day_fallback" json:"single_day_fallback"`

	// CacheTTLMinutes is how long identical conversion requests are
	// served from the in-memory cache.
	CacheTTLMinutes int `yaml:"cache_ttl_minutes" json:"cache_ttl_minutes"`

	// LogLevel is one of DEBUG, INFO, WARN, ERROR.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Archive configures the generated-calendar store.
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// BasicAuth, if non-nil, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:3000",
		Timezone:        "America/Los_Angeles",
		ProdID:          "-//webregcal//webregcal//EN",
		CacheTTLMinutes: 10,
		LogLevel:        "INFO",
		Archive: ArchiveConfig{
			Dir:           "./var/calendars",
			RetentionDays: 30,
			CleanupCron:   "0 3 * * *",
		},
	}
}

// Normalize fills in missing/zero values so partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.ProdID == "" {
		c.ProdID = def.ProdID
	}
	if c.CacheTTLMinutes <= 0 {
		c.CacheTTLMinutes = def.CacheTTLMinutes
	}
	switch c.LogLevel {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		c.LogLevel = def.LogLevel
	}
	if c.Archive.Dir == "" {
		c.Archive.Dir = def.Archive.Dir
	}
	if c.Archive.RetentionDays <= 0 {
		c.Archive.RetentionDays = def.Archive.RetentionDays
	}
	if c.Archive.CleanupCron == "" {
		c.Archive.CleanupCron = def.Archive.CleanupCron
	}
}

// applyEnv lets environment variables override file values. A .env
// file loaded in main feeds these in development.
func (c *Config) applyEnv() {
	if v := os.Getenv("WEBREGCAL_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("WEBREGCAL_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("WEBREGCAL_ARCHIVE_DIR"); v != "" {
		c.Archive.Dir = v
	}
	if v := os.Getenv("WEBREGCAL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("WEBREGCAL_CACHE_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CacheTTLMinutes = n
		}
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there with
// 0600 perms and returned. Environment variables override file values
// either way.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.applyEnv()
			cfg.Normalize()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 perms, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".webregcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
