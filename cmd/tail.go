package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/nibzard/taskman/internal/logging"
)

// tailCommand prints the latest TUI run log for the configured tasks file.
func (a *app) tailCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskman tail", flag.ContinueOnError)
	fs.SetOutput(a.io.Err)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	logDir, err := logging.FindLogDir(a.cfg.LogDir, a.cfg.DataFile)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}

	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(a.io.Out, "No log files found.")
		return nil
	}

	fmt.Fprintf(a.io.Out, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(a.io.Out, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(a.io.Out)

	return logging.TailLog(ctx, a.io.Out, logPath, *n, *follow)
}
