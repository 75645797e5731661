// Package config resolves filechanger's runtime configuration.
//
// Sources are layered, lowest precedence first: built-in defaults, the
// optional .filechanger.yaml file, the environment (after .env has been
// loaded into it without overriding existing variables), and finally the
// command-line flags applied by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/filechanger/filechanger/pkg/errclass"
	"github.com/filechanger/filechanger/pkg/logging"
	"github.com/filechanger/filechanger/pkg/model"
	"github.com/filechanger/filechanger/pkg/rotate"
)

const (
	// FileName is the optional YAML config file looked up in the working directory.
	FileName = ".filechanger.yaml"
	// DotEnvName is the dotfile loaded into the environment before lookup.
	DotEnvName = ".env"

	DefaultLogFile  = "file_changer.log"
	DefaultLogLevel = "INFO"
)

// Environment variable names.
const (
	EnvLogLevel    = "FCLOG_LEVEL"
	EnvLogFile     = "FCLOG_NAME"
	EnvLogMaxBytes = "FCLOG_MAX_BYTES"
	EnvLogBackups  = "FCLOG_BACKUPS"
	EnvLogCompress = "FCLOG_COMPRESS"
	EnvStrategy    = "FC_STRATEGY"
	EnvWorkers     = "FC_WORKERS"
)

// Config represents the filechanger configuration.
type Config struct {
	Log   LogConfig   `yaml:"log"`
	Batch BatchConfig `yaml:"batch"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file"`
	MaxBytes int64  `yaml:"max_bytes"`
	Backups  int    `yaml:"backups"`
	Compress bool   `yaml:"compress"`
}

// BatchConfig configures directory batches.
type BatchConfig struct {
	Strategy         model.Strategy `yaml:"strategy"`
	Workers          int            `yaml:"workers"`
	FailFast         bool           `yaml:"fail_fast"`
	IncludeExtension bool           `yaml:"include_extension"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:    DefaultLogLevel,
			File:     DefaultLogFile,
			MaxBytes: rotate.DefaultMaxSize,
			Backups:  rotate.DefaultMaxBackups,
		},
		Batch: BatchConfig{
			Strategy: model.StrategySequential,
			Workers:  runtime.GOMAXPROCS(0),
		},
	}
}

// Load builds the configuration for a process started in dir: defaults, then
// dir/.filechanger.yaml, then dir/.env merged into the process environment,
// then the environment itself. The result is not validated: callers apply
// their own overrides first and then call Validate.
func Load(dir string) (*Config, error) {
	cfg, err := LoadFile(dir)
	if err != nil {
		return nil, err
	}

	envPath := filepath.Join(dir, DotEnvName)
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, errclass.ErrConfigInvalid.Wrap(err, "load "+DotEnvName)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile returns the defaults overlaid with dir/.filechanger.yaml.
// A missing file is not an error.
func LoadFile(dir string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errclass.ErrConfigInvalid.Wrap(err, "parse "+FileName)
	}
	return cfg, nil
}

// Save writes cfg to dir/.filechanger.yaml.
func Save(dir string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from variables present in lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = strings.ToUpper(v)
	}
	if v, ok := lookup(EnvLogFile); ok && v != "" {
		c.Log.File = v
	}
	if v, ok := lookup(EnvLogMaxBytes); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errclass.ErrConfigInvalid.WithMessagef("%s: %v", EnvLogMaxBytes, err)
		}
		c.Log.MaxBytes = n
	}
	if v, ok := lookup(EnvLogBackups); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errclass.ErrConfigInvalid.WithMessagef("%s: %v", EnvLogBackups, err)
		}
		c.Log.Backups = n
	}
	if v, ok := lookup(EnvLogCompress); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errclass.ErrConfigInvalid.WithMessagef("%s: %v", EnvLogCompress, err)
		}
		c.Log.Compress = b
	}
	if v, ok := lookup(EnvStrategy); ok && v != "" {
		c.Batch.Strategy = model.Strategy(strings.ToLower(v))
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errclass.ErrConfigInvalid.WithMessagef("%s: %v", EnvWorkers, err)
		}
		c.Batch.Workers = n
	}
	return nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Log.File == "" {
		return errclass.ErrConfigInvalid.WithMessage("log file must not be empty")
	}
	if c.Log.MaxBytes < 0 {
		return errclass.ErrConfigInvalid.WithMessagef("log max bytes must not be negative, got %d", c.Log.MaxBytes)
	}
	if c.Log.Backups < 0 {
		return errclass.ErrConfigInvalid.WithMessagef("log backups must not be negative, got %d", c.Log.Backups)
	}
	if !c.Batch.Strategy.Valid() {
		return errclass.ErrConfigInvalid.WithMessagef("unknown strategy %q", c.Batch.Strategy)
	}
	if c.Batch.Workers < 1 {
		return errclass.ErrConfigInvalid.WithMessagef("workers must be positive, got %d", c.Batch.Workers)
	}
	return nil
}

// LogLevel returns the parsed log level. Unknown names map to info.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}

// RotateOptions returns the rotation settings for the log file.
func (c *Config) RotateOptions() rotate.Options {
	return rotate.Options{
		MaxSize:    c.Log.MaxBytes,
		MaxBackups: c.Log.Backups,
		Compress:   c.Log.Compress,
	}
}
