package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/nibzard/taskman/internal/export"
	"github.com/nibzard/taskman/internal/todo"
)

// exportCommand writes tasks in json, csv or pdf to a file or stdout.
func (a *app) exportCommand(args []string) error {
	fs := flag.NewFlagSet("taskman export", flag.ContinueOnError)
	fs.SetOutput(a.io.Err)
	format := fs.String("format", "", "Output format (json|csv|pdf)")
	output := fs.String("o", "", "Output file (default stdout)")
	filterName := fs.String("filter", string(todo.FilterAll), "Tasks to export (all|pending|completed)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	if *format == "" {
		*format = string(export.FormatJSON)
		if guessed := export.FormatFromPath(*output); guessed != "" {
			*format = string(guessed)
		}
	}
	if *format == string(export.FormatPDF) && *output == "" {
		return fmt.Errorf("pdf export needs an output file (-o)")
	}

	store := a.openStore(a.logger)
	data, err := export.Export(store.Get(todo.ParseFilter(*filterName)), *format)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if *output == "" {
		_, err := a.io.Out.Write(data)
		return err
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(a.io.Err, "Exported %d bytes to %s\n", len(data), *output)
	return nil
}
