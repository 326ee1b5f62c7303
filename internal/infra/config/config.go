// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Logger       LoggerConfig       `yaml:"logger"`
	Store        StoreConfig        `yaml:"store"`
	Autoplaylist AutoplaylistConfig `yaml:"autoplaylist"`
	Player       PlayerConfig       `yaml:"player"`
	Permissions  PermissionsConfig  `yaml:"permissions"`
	Persistence  PersistenceConfig  `yaml:"persistence"`
	Maintenance  MaintenanceConfig  `yaml:"maintenance"`
}

// LoggerConfig represents logger configuration.
type LoggerConfig struct {
	Output string `yaml:"output" default:"stdout"`
	Level  string `yaml:"level" default:"info"`
	File   string `yaml:"file"`
}

// StoreConfig represents the snapshot store configuration.
type StoreConfig struct {
	Path string `yaml:"path" default:"data/snapshots.db"`
}

// AutoplaylistConfig represents the shared autoplaylist configuration.
type AutoplaylistConfig struct {
	Enabled *bool  `yaml:"enabled" default:"true"`
	File    string `yaml:"file" default:"data/autoplaylist.txt"`
	Random  *bool  `yaml:"random" default:"true"`
	Watch   *bool  `yaml:"watch" default:"true"`
}

// PlayerConfig represents per-scheduler playback tuning.
type PlayerConfig struct {
	SkipRatio         float64 `yaml:"skip_ratio" default:"0.5" validate:"gt=0,lte=1"`
	MaxSkips          int     `yaml:"max_skips" default:"4" validate:"gte=1"`
	DefaultVolume     float64 `yaml:"default_volume" default:"0.15" validate:"gt=0,lte=1"`
	RequestsPerMinute int     `yaml:"requests_per_minute" default:"10" validate:"gte=0"`
	RequestBurst      int     `yaml:"request_burst" default:"3" validate:"gte=0"`
}

// PermissionsConfig represents the default quota limits. Zero means a
// limit is not enforced.
type PermissionsConfig struct {
	MaxSongs             int `yaml:"max_songs" default:"8" validate:"gte=0"`
	MaxPlaylistLength    int `yaml:"max_playlist_length" default:"0" validate:"gte=0"`
	MaxSongLengthSeconds int `yaml:"max_song_length_seconds" default:"0" validate:"gte=0"`
}

// PersistenceConfig represents snapshot behavior.
type PersistenceConfig struct {
	ResumeOnJoin *bool `yaml:"resume_on_join" default:"true"`
}

// MaintenanceConfig represents the daemon maintenance schedule.
type MaintenanceConfig struct {
	// Cron spec for the periodic snapshot flush and registry sweep.
	Schedule string `yaml:"schedule" default:"@every 1m"`
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment variables take precedence for a few fields.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("BNUUY_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("BNUUY_AUTOPLAYLIST_FILE"); v != "" {
		c.Autoplaylist.File = v
	}
	if v := os.Getenv("BNUUY_LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
