package cmd

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nibzard/taskman/internal/todo"
)

// addCommand adds a task whose title is the remaining arguments.
func (a *app) addCommand(args []string) error {
	title, err := todo.ValidateTitle(strings.Join(args, " "))
	if err != nil {
		fmt.Fprintln(a.io.Err, "Please enter a task title.")
		return fmt.Errorf("add: %w", err)
	}

	store := a.openStore(a.logger)
	task, err := store.Add(title)
	a.warnSave(err)
	fmt.Fprintf(a.io.Out, "Added task #%d: %s\n", task.ID, task.Title)
	return nil
}

// lsCommand prints the tasks of one view followed by the summary line.
func (a *app) lsCommand(args []string) error {
	fs := flag.NewFlagSet("taskman ls", flag.ContinueOnError)
	fs.SetOutput(a.io.Err)
	filterName := fs.String("filter", a.cfg.DefaultFilter, "View to list (all|pending|completed)")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("unexpected arguments: %v", positional[1:])
	}
	if len(positional) == 1 {
		*filterName = positional[0]
	}
	filter := todo.Filter(strings.ToLower(strings.TrimSpace(*filterName)))
	if !filter.Known() {
		return fmt.Errorf("unknown filter %q (want all, pending or completed)", *filterName)
	}

	store := a.openStore(a.logger)
	tasks := store.Get(filter)
	if len(tasks) == 0 {
		fmt.Fprintln(a.io.Out, "No tasks found.")
	} else {
		fmt.Fprintln(a.io.Out, renderTaskTable(tasks))
	}
	fmt.Fprintln(a.io.Out, store.Summary())
	return nil
}

// toggleCommand flips the completed flag of one task.
func (a *app) toggleCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: taskman toggle <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	store := a.openStore(a.logger)
	task, ok := findTask(store, id)
	if !ok {
		return fmt.Errorf("no task with id %d", id)
	}
	a.warnSave(store.Toggle(id))

	state := "done"
	if task.Completed {
		state = "pending"
	}
	fmt.Fprintf(a.io.Out, "Marked task #%d %s.\n", id, state)
	return nil
}

// rmCommand deletes one task after asking on stdin, unless -y is given.
func (a *app) rmCommand(args []string) error {
	fs := flag.NewFlagSet("taskman rm", flag.ContinueOnError)
	fs.SetOutput(a.io.Err)
	yes := fs.Bool("y", false, "Delete without asking")

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("usage: taskman rm [-y] <id>")
	}
	id, err := parseID(positional[0])
	if err != nil {
		return err
	}

	store := a.openStore(a.logger)
	task, ok := findTask(store, id)
	if !ok {
		return fmt.Errorf("no task with id %d", id)
	}

	if !*yes {
		fmt.Fprintf(a.io.Out, "Delete task #%d %q? [y/N]: ", task.ID, task.Title)
		if !confirm(a.io.In) {
			fmt.Fprintln(a.io.Out, "Cancelled.")
			return nil
		}
	}

	a.warnSave(store.Delete(id))
	fmt.Fprintf(a.io.Out, "Deleted task #%d.\n", id)
	return nil
}

// renderTaskTable draws tasks as a table with the Task Manager columns.
// Completed rows are dimmed when the output supports color.
func renderTaskTable(tasks []todo.Task) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		created := t.CreatedAt
		if len(created) > 19 {
			created = created[:19]
		}
		rows = append(rows, []string{strconv.Itoa(t.ID), t.Title, t.Status(), created})
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	header := cell.Bold(true)
	done := cell.Foreground(lipgloss.Color("#888888"))

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Task", "Status", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case row >= 0 && row < len(tasks) && tasks[row].Completed:
				return done
			default:
				return cell
			}
		}).
		String()
}

func findTask(store *todo.Store, id int) (todo.Task, bool) {
	for _, t := range store.Get(todo.FilterAll) {
		if t.ID == id {
			return t, true
		}
	}
	return todo.Task{}, false
}

// parseID accepts 0 as well: records written without an id load with id 0.
func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

// confirm reads one line and reports whether it is a yes.
func confirm(r io.Reader) bool {
	if r == nil {
		return false
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// parseInterspersed parses flags that may appear before or after positional
// arguments, so "rm 3 -y" and "rm -y 3" both work. A "--" ends flag parsing.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if len(args) > len(rest) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
