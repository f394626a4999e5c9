// Package config provides configuration loading from YAML or TOML files.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig            `yaml:"server" toml:"server"`
	Control  ControlConfig           `yaml:"control" toml:"control"`
	Playback PlaybackConfig          `yaml:"playback" toml:"playback"`
	Share    ShareConfig             `yaml:"share" toml:"share"`
	Store    StoreConfig             `yaml:"store" toml:"store"`
	Filters  map[string]FilterConfig `yaml:"filters" toml:"filters"`
	Messages MessagesConfig          `yaml:"messages" toml:"messages"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" toml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks" toml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started" toml:"on_started"`
	OnStopped []string `yaml:"on_stopped" toml:"on_stopped"`
}

// ControlConfig represents remote control access configuration.
type ControlConfig struct {
	// Token guards mutating RPCs. Empty disables the check.
	Token string `yaml:"token" toml:"token"`
	// RequireConfirm makes destructive RPCs fail unless the caller confirms.
	RequireConfirm *bool `yaml:"require_confirm" toml:"require_confirm" default:"true"`
}

// PlaybackConfig represents playback timing configuration.
type PlaybackConfig struct {
	DefaultDisplayTimeSec int   `yaml:"default_display_time_sec" toml:"default_display_time_sec" default:"5" validate:"gte=1,lte=86400"`
	DefaultLooping        *bool `yaml:"default_looping" toml:"default_looping" default:"true"`
	ActivityResumeMs      int   `yaml:"activity_resume_ms" toml:"activity_resume_ms" default:"10000" validate:"gte=100,lte=600000"`
	UIHideDelayMs         int   `yaml:"ui_hide_delay_ms" toml:"ui_hide_delay_ms" default:"5000" validate:"gte=100,lte=600000"`
}

// ShareConfig represents share link configuration.
type ShareConfig struct {
	BaseURL string `yaml:"base_url" toml:"base_url" default:"http://localhost:8080/" validate:"required,url"`
}

// StoreConfig represents the settings store backend.
type StoreConfig struct {
	Type     string         `yaml:"type" toml:"type" default:"memory" validate:"oneof=memory file sql"`
	Settings map[string]any `yaml:"settings" toml:"settings"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled" toml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty" toml:"settings"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	Success        string `yaml:"success" toml:"success" default:"OK"`
	DefaultError   string `yaml:"default_error" toml:"default_error" default:"Something went wrong."`
	EmptyPlaylist  string `yaml:"empty_playlist" toml:"empty_playlist" default:"Please add some URLs first!"`
	NothingToShare string `yaml:"nothing_to_share" toml:"nothing_to_share" default:"Please add some URLs before sharing!"`
	InvalidImport  string `yaml:"invalid_import" toml:"invalid_import" default:"Invalid file format."`
	ImportFailed   string `yaml:"import_failed" toml:"import_failed" default:"Error reading file. Please make sure it's a valid JSON file."`
	ImportDone     string `yaml:"import_done" toml:"import_done" default:"Settings imported successfully!"`
	NoValidURLs    string `yaml:"no_valid_urls" toml:"no_valid_urls" default:"No valid URLs were found."`
	DuplicateURL   string `yaml:"duplicate_url" toml:"duplicate_url" default:"The URL is already in the list."`
	HostNotAllowed string `yaml:"host_not_allowed" toml:"host_not_allowed" default:"The host is not allowed."`
	HostDenied     string `yaml:"host_denied" toml:"host_denied" default:"The host is blocked."`
	NotPaused      string `yaml:"not_paused" toml:"not_paused" default:"Playback is not paused."`
	NotConfirmed   string `yaml:"not_confirmed" toml:"not_confirmed" default:"Confirmation required."`
	RemoveURL      string `yaml:"remove_url" toml:"remove_url" default:"Are you sure you want to remove this URL?"`
	ClearSettings  string `yaml:"clear_settings" toml:"clear_settings" default:"Are you sure you want to clear all settings? This cannot be undone."`
}

// Load loads configuration from a YAML or TOML file, chosen by extension.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	return finish(&cfg)
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	// Override with environment variables
	cfg.overrideFromEnv()

	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("URLSHOW_CONTROL_TOKEN"); v != "" {
		c.Control.Token = v
	}
	if v := os.Getenv("URLSHOW_STORE_DSN"); v != "" {
		if c.Store.Settings == nil {
			c.Store.Settings = make(map[string]any)
		}
		c.Store.Settings["dsn"] = v
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "success":
		return c.Messages.Success
	case "empty_playlist":
		return c.Messages.EmptyPlaylist
	case "nothing_to_share":
		return c.Messages.NothingToShare
	case "invalid_import":
		return c.Messages.InvalidImport
	case "import_failed":
		return c.Messages.ImportFailed
	case "import_done":
		return c.Messages.ImportDone
	case "no_valid_urls":
		return c.Messages.NoValidURLs
	case "duplicate_url":
		return c.Messages.DuplicateURL
	case "host_not_allowed":
		return c.Messages.HostNotAllowed
	case "host_denied":
		return c.Messages.HostDenied
	case "not_paused":
		return c.Messages.NotPaused
	case "not_confirmed":
		return c.Messages.NotConfirmed
	case "remove_url":
		return c.Messages.RemoveURL
	case "clear_settings":
		return c.Messages.ClearSettings
	default:
		return c.Messages.DefaultError
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// Looping returns the loop flag of a fresh slideshow.
func (c *Config) Looping() bool {
	return c.Playback.DefaultLooping == nil || *c.Playback.DefaultLooping
}

// RequireConfirm reports whether destructive remote operations need confirmation.
func (c *Config) RequireConfirm() bool {
	return c.Control.RequireConfirm == nil || *c.Control.RequireConfirm
}

// ActivityResumeDelay returns the quiet period before activity-paused playback resumes.
func (c *Config) ActivityResumeDelay() time.Duration {
	return time.Duration(c.Playback.ActivityResumeMs) * time.Millisecond
}

// UIHideDelay returns the delay before fullscreen controls hide.
func (c *Config) UIHideDelay() time.Duration {
	return time.Duration(c.Playback.UIHideDelayMs) * time.Millisecond
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
