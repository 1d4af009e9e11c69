// Package config loads provtrack settings from defaults, an optional
// config.yaml in the provtrack home directory and PROVTRACK_* environment
// variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/provtrack/internal/logging"
)

const (
	// HomeEnv names the environment variable overriding the home directory.
	HomeEnv = "PROVTRACK_HOME"

	// EnvPrefix is the prefix of environment overrides: PROVTRACK_DATABASE_PATH
	// sets database.path.
	EnvPrefix = "PROVTRACK"

	// FileName is the config file looked up in the home directory.
	FileName = "config.yaml"

	// DefaultDatabaseName is the store file created in the home directory
	// when database.path is not set.
	DefaultDatabaseName = "runs.db"

	defaultHomeDir = ".provtrack"
)

// Config holds all provtrack settings.
type Config struct {
	General  GeneralConfig  `mapstructure:"general"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Data     DataConfig     `mapstructure:"data"`
	Ignored  IgnoredConfig  `mapstructure:"ignored"`
	Hooks    HooksConfig    `mapstructure:"hooks"`

	// Home is the directory the config was loaded from. Not read from the file.
	Home string `mapstructure:"-"`

	// File is the config file actually read, empty when defaults were used.
	File string `mapstructure:"-"`
}

// GeneralConfig contains general settings.
type GeneralConfig struct {
	// Quiet suppresses informational messages while recording.
	Quiet bool `mapstructure:"quiet"`
}

// DatabaseConfig locates the record store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DataConfig controls what is captured about files.
type DataConfig struct {
	HashInputs  bool `mapstructure:"hash_inputs"`
	HashOutputs bool `mapstructure:"hash_outputs"`
}

// IgnoredConfig switches off optional parts of a run record.
type IgnoredConfig struct {
	Diff        bool `mapstructure:"diff"`
	Environment bool `mapstructure:"environment"`
	Libraries   bool `mapstructure:"libraries"`
}

// HooksConfig points at an instrumentation target file. Empty means the
// built-in targets.
type HooksConfig struct {
	File string `mapstructure:"file"`
}

// Home returns the provtrack home directory: $PROVTRACK_HOME when set,
// otherwise ~/.provtrack.
func Home() (string, error) {
	if h := os.Getenv(HomeEnv); h != "" {
		return h, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(userHome, defaultHomeDir), nil
}

// Default returns the configuration used when no file or environment
// override is present.
func Default(home string) *Config {
	return &Config{
		Database: DatabaseConfig{Path: filepath.Join(home, DefaultDatabaseName)},
		Log:      LogConfig{Level: "warn"},
		Data:     DataConfig{HashInputs: true, HashOutputs: true},
		Home:     home,
	}
}

// Load reads the configuration for home. An empty home means Home().
// A missing config file is not an error.
func Load(home string) (*Config, error) {
	if home == "" {
		h, err := Home()
		if err != nil {
			return nil, err
		}
		home = h
	}

	v := viper.New()
	setDefaults(v, Default(home))

	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(home)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config in %s: %w", home, err)
		}
		slog.Debug("no config file, using defaults", "home", home)
	} else {
		file = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Home = home
	cfg.File = file
	if cfg.Database.Path != "" && !filepath.IsAbs(cfg.Database.Path) {
		cfg.Database.Path = filepath.Join(home, cfg.Database.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("general.quiet", d.General.Quiet)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("data.hash_inputs", d.Data.HashInputs)
	v.SetDefault("data.hash_outputs", d.Data.HashOutputs)
	v.SetDefault("ignored.diff", d.Ignored.Diff)
	v.SetDefault("ignored.environment", d.Ignored.Environment)
	v.SetDefault("ignored.libraries", d.Ignored.Libraries)
	v.SetDefault("hooks.file", d.Hooks.File)
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return &ConfigError{Field: "database.path", Message: "must not be empty"}
	}
	if _, err := logging.LevelFromString(c.Log.Level); err != nil {
		return &ConfigError{Field: "log.level", Message: err.Error()}
	}
	return nil
}

// Settings flattens the configuration into sorted key/value pairs for display.
func (c *Config) Settings() [][2]string {
	return [][2]string{
		{"data.hash_inputs", fmt.Sprint(c.Data.HashInputs)},
		{"data.hash_outputs", fmt.Sprint(c.Data.HashOutputs)},
		{"database.path", c.Database.Path},
		{"general.quiet", fmt.Sprint(c.General.Quiet)},
		{"hooks.file", c.Hooks.File},
		{"ignored.diff", fmt.Sprint(c.Ignored.Diff)},
		{"ignored.environment", fmt.Sprint(c.Ignored.Environment)},
		{"ignored.libraries", fmt.Sprint(c.Ignored.Libraries)},
		{"log.level", c.Log.Level},
	}
}

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
