package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# taskman configuration file
# Values can be overridden by TASKMAN_* environment variables or CLI flags

# Tasks file (relative to the working directory, ~ is expanded)
data_file = "tasks.json"

# Directory for TUI run logs (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.taskman"

# Logging: debug, info, warn, error
log_level = "info"

# Log format: text, json, logfmt
log_format = "text"

# Show timestamps in log lines
log_timestamps = false

# View shown at startup: all, pending, completed
default_filter = "all"
`
}
