// Package cmd implements the CLI command structure for taskman.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/taskman/internal/config"
	"github.com/nibzard/taskman/internal/logging"
	"github.com/nibzard/taskman/internal/todo"
)

// Version is set via ldflags at build time.
var Version = "dev"

// IO holds the streams a command reads from and writes to.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdIO returns the process streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// app carries what every subcommand needs.
type app struct {
	cfg     *config.Config
	sources *config.ConfigWithSources
	io      IO
	logger  *log.Logger
}

// Run executes the taskman CLI on the process streams.
func Run(ctx context.Context, args []string) error {
	return RunWithIO(ctx, args, StdIO())
}

// RunWithIO executes the taskman CLI with the given streams.
func RunWithIO(ctx context.Context, args []string, streams IO) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("taskman", flag.ContinueOnError)
	fs.SetOutput(streams.Err)
	fs.Usage = func() {
		printUsage(fs, streams.Err)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, streams.Out)
		return nil
	}
	if *showVersion {
		return versionCommand(streams.Out)
	}

	cfg := cws.Config
	a := &app{
		cfg:     cfg,
		sources: cws,
		io:      streams,
		logger: logging.New(streams.Err, logging.Options{
			Level:      cfg.LogLevel,
			Format:     cfg.LogFormat,
			Timestamps: cfg.LogTimestamps,
			Prefix:     logging.DefaultPrefix,
		}),
	}

	// Determine the subcommand
	// If no args or first arg is a flag, use "tui" as default
	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	// Execute the subcommand
	switch subcommand {
	case "tui":
		return a.tuiCommand(ctx, remainingArgs)
	case "add":
		return a.addCommand(remainingArgs)
	case "ls", "list":
		return a.lsCommand(remainingArgs)
	case "toggle", "done":
		return a.toggleCommand(remainingArgs)
	case "rm", "delete":
		return a.rmCommand(remainingArgs)
	case "export":
		return a.exportCommand(remainingArgs)
	case "doctor":
		return a.doctorCommand(remainingArgs)
	case "init":
		return a.initCommand(remainingArgs)
	case "tail":
		return a.tailCommand(ctx, remainingArgs)
	case "version":
		return versionCommand(streams.Out)
	case "help":
		printUsage(fs, streams.Out)
		return nil
	default:
		fmt.Fprintf(streams.Err, "Unknown command: %s\n", subcommand)
		printUsage(fs, streams.Err)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// openStore opens the configured data file. Load problems are logged by the
// store itself.
func (a *app) openStore(logger *log.Logger) *todo.Store {
	return todo.Open(a.cfg.DataFile, todo.WithLogger(logger))
}

// warnSave prints a failed save as a warning. The change stays applied in
// memory for the rest of the command, so the command itself succeeds.
func (a *app) warnSave(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(a.io.Err, "Warning: %v\n", err)
}

// versionCommand prints version information.
func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "taskman version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "taskman - A small task manager backed by a JSON file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  taskman [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui                 Launch the terminal UI (default command)")
	fmt.Fprintln(w, "  add <title...>      Add a task")
	fmt.Fprintln(w, "  ls                  List tasks")
	fmt.Fprintln(w, "  toggle <id>         Complete or reopen a task (alias: done)")
	fmt.Fprintln(w, "  rm <id>             Delete a task")
	fmt.Fprintln(w, "  export              Export tasks as json, csv or pdf")
	fmt.Fprintln(w, "  doctor              Check config and the tasks file")
	fmt.Fprintln(w, "  init                Write an example config file")
	fmt.Fprintln(w, "  tail                Show the latest TUI log")
	fmt.Fprintln(w, "  version             Show version information")
	fmt.Fprintln(w, "  help                Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	out := fs.Output()
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(out)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -filter string")
	fmt.Fprintln(w, "        View to list (all|pending|completed)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rm Options:")
	fmt.Fprintln(w, "  -y    Delete without asking")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export Options:")
	fmt.Fprintln(w, "  -format string")
	fmt.Fprintln(w, "        Output format (json|csv|pdf, default from -o extension or json)")
	fmt.Fprintln(w, "  -o string")
	fmt.Fprintln(w, "        Output file (default stdout)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Doctor Options:")
	fmt.Fprintln(w, "  -v    List every task")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Init Options:")
	fmt.Fprintln(w, "  -user")
	fmt.Fprintln(w, "        Write the user config instead of ./taskman.toml")
	fmt.Fprintln(w, "  -force")
	fmt.Fprintln(w, "        Overwrite an existing file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tail Options:")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
}
