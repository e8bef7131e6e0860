package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/nibzard/taskman/internal/logging"
	"github.com/nibzard/taskman/internal/todo"
	"github.com/nibzard/taskman/internal/ui"
)

// tuiCommand launches the TUI. Logs go to a per-run file so they do not
// draw over the screen.
func (a *app) tuiCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("taskman tui", flag.ContinueOnError)
	fs.SetOutput(a.io.Err)
	filterName := fs.String("filter", a.cfg.DefaultFilter, "View shown at startup (all|pending|completed)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	runLog, err := logging.NewRunLogger(a.cfg.LogDir, a.cfg.DataFile)
	if err != nil {
		return fmt.Errorf("creating run log: %w", err)
	}
	defer runLog.Close()

	logger := logging.New(runLog.Writer(), logging.Options{
		Level:      a.cfg.LogLevel,
		Format:     a.cfg.LogFormat,
		Timestamps: true,
	})
	logger.Info("Starting TUI", "data_file", a.cfg.DataFile, "run_id", runLog.RunID)

	store := a.openStore(logger)
	if !ui.IsTTY(a.io.Out) {
		return fmt.Errorf("tui requires a TTY")
	}

	err = ui.RunTUI(ctx, store,
		ui.WithFilter(todo.ParseFilter(*filterName)),
		ui.WithLogger(logger),
	)
	if err != nil {
		logger.Error("TUI exited", "err", err)
		return err
	}
	logger.Info("TUI exited", "summary", store.Summary().String())
	return nil
}
