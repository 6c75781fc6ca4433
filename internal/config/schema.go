package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Views     ViewsConfig     `yaml:"views"`
	Icons     IconsConfig     `yaml:"icons"`
	Render    RenderConfig    `yaml:"render"`
	Watch     WatchConfig     `yaml:"watch"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string    `yaml:"addr"`
	ReadTimeout     *Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    *Duration `yaml:"write_timeout,omitempty"`
	ShutdownTimeout *Duration `yaml:"shutdown_timeout,omitempty"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig selects the zap logger
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Development bool   `yaml:"development"` // console encoder instead of JSON
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// ViewsConfig holds defaults for stored views
type ViewsConfig struct {
	Format string `yaml:"format"` // xml, yaml or json
}

// IconsConfig points at a directory of class icons (<class>.png)
type IconsConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// RenderConfig holds PNG rendering settings
type RenderConfig struct {
	Padding  int     `yaml:"padding"`
	FontSize float64 `yaml:"font_size"`
}

// WatchConfig selects the directory imported by the watcher. An empty Dir
// disables it.
type WatchConfig struct {
	Dir      string    `yaml:"dir,omitempty"`
	Pattern  string    `yaml:"pattern"`
	Debounce *Duration `yaml:"debounce,omitempty"`
}

// DiscoveryConfig holds nmap discovery settings
type DiscoveryConfig struct {
	Targets  []string  `yaml:"targets,omitempty"`
	Ports    string    `yaml:"ports"`
	Timeout  *Duration `yaml:"timeout,omitempty"`
	Interval *Duration `yaml:"interval,omitempty"` // nil = on demand only
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Or returns the duration, or def when d is nil
func (d *Duration) Or(def time.Duration) time.Duration {
	if d == nil {
		return def
	}
	return time.Duration(*d)
}
