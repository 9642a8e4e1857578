// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Sync configuration
	Sync SyncConfig `yaml:"sync"`

	// Watch configuration
	Watch WatchConfig `yaml:"watch"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// SyncConfig holds docstring synchronization settings.
type SyncConfig struct {
	// SourceExt is the extension of implementation files.
	SourceExt string `envconfig:"STUBDOC_SOURCE_EXT" yaml:"source_ext"`
	// StubExt is the extension of stub files paired with sources.
	StubExt string `envconfig:"STUBDOC_STUB_EXT" yaml:"stub_ext"`
	// IndentWidth is the indentation used when an inline stub body is
	// expanded into a block.
	IndentWidth int `envconfig:"STUBDOC_INDENT_WIDTH" yaml:"indent_width"`
	// Workers bounds concurrent file pairs in directory mode.
	Workers int `envconfig:"STUBDOC_SYNC_WORKERS" yaml:"workers"`
}

// WatchConfig holds file watcher settings.
type WatchConfig struct {
	BatchDelayMS      int     `envconfig:"STUBDOC_WATCH_BATCH_DELAY_MS" yaml:"batch_delay_ms"`
	MaxSyncsPerSecond float64 `envconfig:"STUBDOC_WATCH_MAX_SYNCS_PER_SECOND" yaml:"max_syncs_per_second"`
	Burst             int     `envconfig:"STUBDOC_WATCH_BURST" yaml:"burst"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"STUBDOC_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"STUBDOC_LOG_FORMAT" yaml:"format"`
	File   string `envconfig:"STUBDOC_LOG_FILE" yaml:"file"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Sync = SyncConfig{
		SourceExt:   ".py",
		StubExt:     ".pyi",
		IndentWidth: 4,
		Workers:     4,
	}

	cfg.Watch = WatchConfig{
		BatchDelayMS:      500,
		MaxSyncsPerSecond: 10,
		Burst:             20,
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Sync validation
	if !strings.HasPrefix(c.Sync.SourceExt, ".") {
		errs = append(errs, fmt.Sprintf("source_ext must start with a dot: %s", c.Sync.SourceExt))
	}

	if !strings.HasPrefix(c.Sync.StubExt, ".") {
		errs = append(errs, fmt.Sprintf("stub_ext must start with a dot: %s", c.Sync.StubExt))
	}

	if c.Sync.SourceExt == c.Sync.StubExt {
		errs = append(errs, "source_ext and stub_ext must differ")
	}

	if c.Sync.IndentWidth < 1 || c.Sync.IndentWidth > 16 {
		errs = append(errs, "indent_width must be between 1 and 16")
	}

	if c.Sync.Workers < 1 {
		errs = append(errs, "workers must be positive")
	}

	// Watch validation
	if c.Watch.BatchDelayMS < 0 {
		errs = append(errs, "batch_delay_ms must not be negative")
	}

	if c.Watch.MaxSyncsPerSecond <= 0 {
		errs = append(errs, "max_syncs_per_second must be positive")
	}

	if c.Watch.Burst < 1 {
		errs = append(errs, "burst must be positive")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Indent returns the indentation string for generated block bodies.
func (c *SyncConfig) Indent() string {
	return strings.Repeat(" ", c.IndentWidth)
}
