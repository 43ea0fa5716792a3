// Package config loads cubeturn settings from a YAML file, CUBETURN_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys.
const (
	KeyAnimationTime = "animation_time"
	KeySafetyMargin  = "safety_margin"
	KeyLockTimeout   = "lock_timeout"
	KeyScrambleTurns = "scramble_turns"
	KeySeed          = "seed"
	KeyEasing        = "easing"
	KeyLogLevel      = "log_level"
	KeyLogFile       = "log_file"
	KeyDBPath        = "db_path"
	KeyJournal       = "journal"
	KeyRecordDir     = "record_dir"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "CUBETURN"

var ErrInvalid = errors.New("config: invalid value")

// Config is the resolved configuration.
type Config struct {
	AnimationTime time.Duration `mapstructure:"animation_time" yaml:"animation_time"`
	SafetyMargin  time.Duration `mapstructure:"safety_margin" yaml:"safety_margin"`
	LockTimeout   time.Duration `mapstructure:"lock_timeout" yaml:"lock_timeout"`
	ScrambleTurns int           `mapstructure:"scramble_turns" yaml:"scramble_turns"`
	Seed          uint64        `mapstructure:"seed" yaml:"seed"`
	Easing        string        `mapstructure:"easing" yaml:"easing"`
	LogLevel      string        `mapstructure:"log_level" yaml:"log_level"`
	LogFile       string        `mapstructure:"log_file" yaml:"log_file"`
	DBPath        string        `mapstructure:"db_path" yaml:"db_path"`
	Journal       bool          `mapstructure:"journal" yaml:"journal"`
	RecordDir     string        `mapstructure:"record_dir" yaml:"record_dir"`
}

// Dir returns the cubeturn home directory (~/.cubeturn).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cubeturn"
	}
	return filepath.Join(home, ".cubeturn")
}

// DefaultPath is the config file read when no path is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAnimationTime, 500*time.Millisecond)
	v.SetDefault(KeySafetyMargin, 110*time.Millisecond)
	v.SetDefault(KeyLockTimeout, time.Duration(0))
	v.SetDefault(KeyScrambleTurns, 3)
	v.SetDefault(KeySeed, uint64(0))
	v.SetDefault(KeyEasing, "in_expo")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyDBPath, filepath.Join(Dir(), "cubeturn.db"))
	v.SetDefault(KeyJournal, true)
	v.SetDefault(KeyRecordDir, filepath.Join(Dir(), "sessions"))
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Read loads path into v. An empty path reads DefaultPath if it exists;
// an explicit path must exist.
func Read(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		var notFound viper.ConfigFileNotFoundError
		if !explicit && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

// Decode resolves v into a Config and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is New, Read and Decode in one step.
func Load(path string) (*Config, error) {
	v := New()
	if err := Read(v, path); err != nil {
		return nil, err
	}
	return Decode(v)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.AnimationTime < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalid, KeyAnimationTime)
	case c.SafetyMargin < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalid, KeySafetyMargin)
	case c.LockTimeout < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalid, KeyLockTimeout)
	case c.ScrambleTurns < 0:
		return fmt.Errorf("%w: %s must not be negative", ErrInvalid, KeyScrambleTurns)
	}
	if c.LockTimeout > 0 && c.LockTimeout < c.AnimationTime {
		return fmt.Errorf("%w: %s (%s) is shorter than %s (%s)", ErrInvalid,
			KeyLockTimeout, c.LockTimeout, KeyAnimationTime, c.AnimationTime)
	}
	return nil
}
