package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nibzard/taskman/internal/config"
)

// initCommand writes the example config to ./taskman.toml or, with -user,
// to the user config location.
func (a *app) initCommand(args []string) error {
	fs := flag.NewFlagSet("taskman init", flag.ContinueOnError)
	fs.SetOutput(a.io.Err)
	user := fs.Bool("user", false, "Write the user config instead of ./taskman.toml")
	force := fs.Bool("force", false, "Overwrite an existing file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	path := filepath.Join(a.cfg.WorkDir, config.ProjectConfigNames[0])
	if *user {
		path = config.UserConfigPath()
		if path == "" {
			return fmt.Errorf("cannot determine user config location")
		}
	}

	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ExampleConfig()), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(a.io.Out, "Wrote %s\n", config.DisplayPath(path))
	return nil
}
