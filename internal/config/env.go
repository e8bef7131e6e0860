package config

import (
	"os"
	"strings"
)

// Environment variables read by loadFromEnv.
const (
	EnvDataFile      = "TASKMAN_DATA_FILE"
	EnvLogDir        = "TASKMAN_LOG_DIR"
	EnvLogLevel      = "TASKMAN_LOG_LEVEL"
	EnvLogFormat     = "TASKMAN_LOG_FORMAT"
	EnvLogTimestamps = "TASKMAN_LOG_TIMESTAMPS"
	EnvDefaultFilter = "TASKMAN_DEFAULT_FILTER"
)

// loadFromEnv overrides config from environment variables. If sources is
// non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	set := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}

	if v := os.Getenv(EnvDataFile); v != "" {
		cfg.DataFile = v
		set("data_file")
	}
	if v := os.Getenv(EnvLogDir); v != "" {
		cfg.LogDir = v
		set("log_dir")
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
		set("log_level")
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
		set("log_format")
	}
	if v := os.Getenv(EnvLogTimestamps); v != "" {
		cfg.LogTimestamps = boolFromString(v)
		set("log_timestamps")
	}
	if v := os.Getenv(EnvDefaultFilter); v != "" {
		cfg.DefaultFilter = v
		set("default_filter")
	}
}

func boolFromString(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
