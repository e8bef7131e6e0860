package config

import (
	"github.com/nibzard/taskman/internal/todo"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files that were read, in load order.
	Files []string
}

// Default values.
const (
	DefaultDataFile  = todo.DefaultFile
	DefaultLogDir    = "~/.taskman"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultFilter    = string(todo.FilterAll)
)

// Config holds the full configuration for taskman.
type Config struct {
	// Paths
	DataFile string `toml:"data_file"`
	LogDir   string `toml:"log_dir"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`

	// View selected when the TUI starts and for ls without -filter.
	DefaultFilter string `toml:"default_filter"`

	// Working directory (computed)
	WorkDir string `toml:"-"`
}

// Filter returns the configured default view. Unknown names select all tasks.
func (c *Config) Filter() todo.Filter {
	return todo.ParseFilter(c.DefaultFilter)
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.DataFile = DefaultDataFile
	cfg.LogDir = DefaultLogDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.LogTimestamps = false
	cfg.DefaultFilter = DefaultFilter
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"data_file",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"default_filter",
	}
}
