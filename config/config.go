// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// PathsConfig locates the engine's data directories. Relative entries
// are resolved against Root when the configuration loads, so consumers
// always see final paths.
type PathsConfig struct {
	Root        string `yaml:"root"`         // base for relative directories
	ConfigDir   string `yaml:"config_dir"`   // server registry lives here
	SchemaDir   string `yaml:"schema_dir"`   // one document per namespace
	TemplateDir string `yaml:"template_dir"` // one file per region template
}

// WatchConfig configures the schema directory watcher.
type WatchConfig struct {
	Enabled bool `yaml:"enabled"` // invalidate caches on external file edits
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics collection.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables
// and defaults. No file is needed; every setting has a usable default.
//
// Environment variables:
//
//	PARSEDESK_ROOT            - Base directory for relative paths (default: .)
//	PARSEDESK_CONFIG_DIR      - Server registry directory (default: configs)
//	PARSEDESK_SCHEMA_DIR      - Schema document directory (default: configs/parser_configs)
//	PARSEDESK_TEMPLATE_DIR    - Region template directory (default: configs/region_templates)
//	PARSEDESK_WATCH_ENABLED   - Watch schema directory for edits (default: false)
//	PARSEDESK_LOG_LEVEL       - Log level: debug, info, warn, error (default: info)
//	PARSEDESK_LOG_FORMAT      - Log format: json or console (default: console)
//	PARSEDESK_METRICS_ENABLED - Collect Prometheus metrics (default: false)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables and defaults when the file does not exist.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies PARSEDESK_* environment variables to the
// config. Environment variables always override file-based settings.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PARSEDESK_ROOT"); v != "" {
		cfg.Paths.Root = v
	}
	if v := os.Getenv("PARSEDESK_CONFIG_DIR"); v != "" {
		cfg.Paths.ConfigDir = v
	}
	if v := os.Getenv("PARSEDESK_SCHEMA_DIR"); v != "" {
		cfg.Paths.SchemaDir = v
	}
	if v := os.Getenv("PARSEDESK_TEMPLATE_DIR"); v != "" {
		cfg.Paths.TemplateDir = v
	}

	if v := os.Getenv("PARSEDESK_WATCH_ENABLED"); v != "" {
		cfg.Watch.Enabled = parseBool(v)
	}

	if v := os.Getenv("PARSEDESK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PARSEDESK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("PARSEDESK_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Paths.Root == "" {
		cfg.Paths.Root = "."
	}
	if cfg.Paths.ConfigDir == "" {
		cfg.Paths.ConfigDir = "configs"
	}
	if cfg.Paths.SchemaDir == "" {
		cfg.Paths.SchemaDir = filepath.Join("configs", "parser_configs")
	}
	if cfg.Paths.TemplateDir == "" {
		cfg.Paths.TemplateDir = filepath.Join("configs", "region_templates")
	}
	cfg.Paths.ConfigDir = resolveDir(cfg.Paths.Root, cfg.Paths.ConfigDir)
	cfg.Paths.SchemaDir = resolveDir(cfg.Paths.Root, cfg.Paths.SchemaDir)
	cfg.Paths.TemplateDir = resolveDir(cfg.Paths.Root, cfg.Paths.TemplateDir)

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// resolveDir anchors a relative directory at root.
func resolveDir(root, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

func validate(cfg *Config) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if cfg.Paths.SchemaDir == cfg.Paths.TemplateDir {
		return fmt.Errorf("paths.schema_dir and paths.template_dir must differ")
	}

	return nil
}
