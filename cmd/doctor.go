package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/nibzard/taskman/internal/config"
	"github.com/nibzard/taskman/internal/logging"
	"github.com/nibzard/taskman/internal/todo"
)

// doctorCommand checks the config, the tasks file and the log directory.
func (a *app) doctorCommand(args []string) error {
	fs := flag.NewFlagSet("taskman doctor", flag.ContinueOnError)
	fs.SetOutput(a.io.Err)
	verbose := fs.Bool("v", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	dataPath := a.cfg.DataFile
	if len(remaining) == 1 {
		dataPath = remaining[0]
	}

	w := a.io.Out
	fmt.Fprintln(w, "taskman doctor")
	fmt.Fprintln(w, "==============")
	fmt.Fprintln(w)

	allOK := true

	// Check config
	fmt.Fprintln(w, "Config:")
	if !checkConfig(w, a.sources, *verbose) {
		allOK = false
	}
	fmt.Fprintln(w)

	// Check tasks file
	fmt.Fprintf(w, "Tasks file: %s\n", dataPath)
	if !checkDataFile(w, dataPath, *verbose) {
		allOK = false
	}
	fmt.Fprintln(w)

	// Check log directory
	fmt.Fprintf(w, "Log directory: %s\n", config.DisplayPath(a.cfg.LogDir))
	if info, err := os.Stat(a.cfg.LogDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(w, "  ⚠️  Not found (created when the TUI first runs)")
		} else {
			fmt.Fprintf(w, "  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if !info.IsDir() {
		fmt.Fprintln(w, "  ❌ Error: path is not a directory")
		allOK = false
	} else {
		fmt.Fprintln(w, "  ✅ OK")
		if *verbose {
			if logDir, err := logging.FindLogDir(a.cfg.LogDir, dataPath); err == nil {
				if latest, _ := logging.FindLatestLog(logDir); latest != "" {
					fmt.Fprintf(w, "  Latest log: %s\n", config.DisplayPath(latest))
				}
			}
		}
	}
	fmt.Fprintln(w)

	// Overall status
	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed. taskman may lose or ignore data in this state.")
	return fmt.Errorf("doctor checks failed")
}

func checkConfig(w io.Writer, cws *config.ConfigWithSources, verbose bool) bool {
	cfg := cws.Config
	ok := true

	if file := cws.GetConfigFile(); file != "" {
		fmt.Fprintf(w, "  ✅ Config file: %s\n", config.DisplayPath(file))
	} else {
		fmt.Fprintln(w, "  ✅ Config file: none (defaults)")
	}

	if todo.Filter(cfg.DefaultFilter).Known() {
		fmt.Fprintf(w, "  ✅ Default filter: %s\n", cfg.DefaultFilter)
	} else {
		fmt.Fprintf(w, "  ❌ Default filter: %s (expected all|pending|completed)\n", cfg.DefaultFilter)
		ok = false
	}
	if knownLevel(cfg.LogLevel) {
		fmt.Fprintf(w, "  ✅ Log level: %s\n", cfg.LogLevel)
	} else {
		fmt.Fprintf(w, "  ⚠️  Log level: %s (using info)\n", cfg.LogLevel)
	}

	if verbose {
		fields := make([]string, 0, len(cws.Sources))
		for field := range cws.Sources {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(w, "  %-15s %s\n", field, cws.Sources[field])
		}
	}
	return ok
}

func knownLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return true
	}
	return false
}

func checkDataFile(w io.Writer, path string, verbose bool) bool {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(w, "  ⚠️  Not found (created on the first change)")
			return true
		}
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		return false
	}
	if info.IsDir() {
		fmt.Fprintln(w, "  ❌ Error: path is a directory")
		return false
	}

	result := todo.ValidateFile(path)
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  ⚠️  %s\n", warning)
	}
	if !result.Valid {
		fmt.Fprintln(w, "  ❌ Validation failed:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "     - %v\n", e)
		}
		store := todo.Open(path)
		var loadErr *todo.LoadError
		if errors.As(store.LoadIssue(), &loadErr) {
			fmt.Fprintln(w, "  ❌ The file cannot be loaded; taskman starts with an empty list and overwrites it on the next change.")
		} else {
			fmt.Fprintf(w, "  ⚠️  Loadable with fallbacks: %d tasks\n", len(store.Get(todo.FilterAll)))
		}
		return false
	}
	fmt.Fprintf(w, "  ✅ Valid (%d tasks)\n", result.Tasks)

	if verbose {
		store := todo.Open(path)
		for _, t := range store.Get(todo.FilterAll) {
			fmt.Fprintf(w, "    - [%s] #%d: %s\n", t.Status(), t.ID, t.Title)
		}
		fmt.Fprintf(w, "  %s\n", store.Summary())
	}
	return true
}
