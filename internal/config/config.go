// Package config loads and saves the YAML settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/pbaille/since/internal/domain"
	"github.com/pbaille/since/internal/reltime"
	"github.com/pbaille/since/internal/remind"
	"github.com/pbaille/since/internal/status"
	"github.com/pbaille/since/internal/watch"
)

const (
	defaultListen   = "127.0.0.1:8420"
	defaultLogLevel = "info"
)

// Config is the top-level application configuration.
type Config struct {
	// DB is the SQLite database path. Empty means ~/.since/since.db.
	DB string `yaml:"db" json:"db"`

	// Listen is the HTTP listen address for `since serve`.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used for reminders and display. Empty uses
	// the system zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Locale is a BCP 47 tag deciding the 12 or 24 hour clock (e.g. "en-GB").
	Locale string `yaml:"locale" json:"locale"`

	// Components is how many units subunit display shows (1-3).
	Components int `yaml:"components" json:"components"`

	// HighlightColor is the lipgloss color for due items.
	HighlightColor string `yaml:"highlight_color" json:"highlight_color"`

	// WatchSchedule is the cron spec for `since watch`.
	WatchSchedule string `yaml:"watch_schedule" json:"watch_schedule"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultPath returns ~/.since/config.yaml
func DefaultPath() string {
	return filepath.Join(homeDir(), ".since", "config.yaml")
}

// DefaultDB returns ~/.since/since.db
func DefaultDB() string {
	return filepath.Join(homeDir(), ".since", "since.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		DB:             DefaultDB(),
		Listen:         defaultListen,
		Locale:         remind.DefaultLocale.String(),
		Components:     reltime.DefaultComponents,
		HighlightColor: domain.DefaultTheme().HighlightColor,
		WatchSchedule:  watch.DefaultSchedule,
		LogLevel:       defaultLogLevel,
	}
}

// Normalize fills in missing or invalid values with defaults.
func (c *Config) Normalize() {
	if c.DB == "" {
		c.DB = DefaultDB()
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Locale == "" {
		c.Locale = remind.DefaultLocale.String()
	}
	if c.Components < 1 || c.Components > reltime.MaxComponents {
		c.Components = reltime.DefaultComponents
	}
	if c.HighlightColor == "" {
		c.HighlightColor = domain.DefaultTheme().HighlightColor
	}
	if c.WatchSchedule == "" {
		c.WatchSchedule = watch.DefaultSchedule
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		c.LogLevel = defaultLogLevel
	}
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SetTimezone sets Timezone after checking it names a known zone. Empty
// means the system zone.
func (c *Config) SetTimezone(tz string) error {
	tz = strings.TrimSpace(tz)
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("timezone %q: %w", tz, err)
		}
	}
	c.Timezone = tz
	return nil
}

// SetLocale sets Locale to the canonical form of a BCP 47 tag.
func (c *Config) SetLocale(tag string) error {
	t, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(tag), "_", "-"))
	if err != nil {
		return fmt.Errorf("locale %q: %w", tag, err)
	}
	c.Locale = t.String()
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Theme returns the CLI colors.
func (c *Config) Theme() domain.Theme {
	return domain.Theme{HighlightColor: c.HighlightColor}
}

// StatusOptions builds rendering options from the config and the stored
// settings.
func (c *Config) StatusOptions(settings *domain.Settings) (status.Options, error) {
	loc, err := c.Location()
	opts := status.Options{
		Location:   loc,
		Locale:     remind.ParseLocale(c.Locale),
		Components: c.Components,
	}
	return opts.WithSettings(settings), err
}

// Load reads the YAML config at path. A missing file is created with the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
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
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".since-config-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// Save writes c to path.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
