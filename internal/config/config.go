// Package config provides configuration management for topoview.
//
// The config file describes how the process runs (listener, database,
// logging, discovery). Views and inventory objects live in the database.
//
// Config file locations (priority order):
//  1. $TOPOVIEW_CONFIG
//  2. ./topoview.yaml
//  3. ~/.config/topoview/config.yaml
//  4. /etc/topoview/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

const (
	DefaultAddr         = ":3000"
	DefaultDatabasePath = "./topoview.db"
	DefaultWatchPattern = "**/*.xml"
	DefaultPorts        = "22,23,80,161,179,443,3389,8080"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Metrics.Enabled = true
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "topoview"
	}
	if c.Views.Format == "" {
		c.Views.Format = "xml"
	}
	if c.Render.Padding == 0 {
		c.Render.Padding = 20
	}
	if c.Render.FontSize == 0 {
		c.Render.FontSize = 11
	}
	if c.Watch.Pattern == "" {
		c.Watch.Pattern = DefaultWatchPattern
	}
	if c.Discovery.Ports == "" {
		c.Discovery.Ports = DefaultPorts
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Views.Format) {
	case "xml", "yaml", "yml", "json":
	default:
		return fmt.Errorf("%w: views.format %q", ErrInvalidConfig, c.Views.Format)
	}
	if c.Discovery.Interval != nil && c.Discovery.Interval.Duration() < time.Minute {
		return fmt.Errorf("%w: discovery.interval below 1m", ErrInvalidConfig)
	}
	return nil
}

// NewLogger builds the process logger from the logging section
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: logging.level: %v", ErrInvalidConfig, err)
	}

	zc := zap.NewProductionConfig()
	if c.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Database: %s, Log level: %s\n", c.Server.Addr, c.Database.Path, c.Logging.Level)
	summary += fmt.Sprintf("View format: %s, Metrics: %v\n", c.Views.Format, c.Metrics.Enabled)
	if c.Watch.Dir != "" {
		summary += fmt.Sprintf("Watching %s (%s)\n", c.Watch.Dir, c.Watch.Pattern)
	}
	summary += fmt.Sprintf("Discovery targets (%d):", len(c.Discovery.Targets))
	for _, t := range c.Discovery.Targets {
		summary += " " + t
	}
	return summary
}
