package config

import (
	"flag"
)

// flagToField maps global flag names to config field names.
var flagToField = map[string]string{
	"data":           "data_file",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"filter":         "default_filter",
}

// parseFlags defines the global flags on fs and parses args. Only flags that
// were set on the command line override cfg. If sources is non-nil, it tracks
// the source of each value.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("taskman", flag.ContinueOnError)
	}

	var (
		dataFile      = cfg.DataFile
		logDir        = cfg.LogDir
		logLevel      = cfg.LogLevel
		logFormat     = cfg.LogFormat
		logTimestamps = cfg.LogTimestamps
		filter        = cfg.DefaultFilter
	)
	fs.StringVar(&dataFile, "data", dataFile, "Path to the tasks file")
	fs.StringVar(&logDir, "log-dir", logDir, "Log directory")
	fs.StringVar(&logLevel, "log-level", logLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&logFormat, "log-format", logFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&logTimestamps, "log-timestamps", logTimestamps, "Show timestamps in logs")
	fs.StringVar(&filter, "filter", filter, "Default view (all, pending, completed)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		field, ok := flagToField[f.Name]
		if !ok {
			return
		}
		switch field {
		case "data_file":
			cfg.DataFile = dataFile
		case "log_dir":
			cfg.LogDir = logDir
		case "log_level":
			cfg.LogLevel = logLevel
		case "log_format":
			cfg.LogFormat = logFormat
		case "log_timestamps":
			cfg.LogTimestamps = logTimestamps
		case "default_filter":
			cfg.DefaultFilter = filter
		}
		if sources != nil {
			sources[field] = SourceFlag
		}
	})

	return nil
}
