// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"

	"github.com/nibzard/taskman/internal/logging"
	"github.com/nibzard/taskman/internal/todo"
)

// TaskStore is the part of *todo.Store the TUI drives.
type TaskStore interface {
	Add(title string) (todo.Task, error)
	Toggle(id int) error
	Delete(id int) error
	Get(filter todo.Filter) []todo.Task
	Summary() todo.Summary
}

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	filter todo.Filter
	logger *log.Logger
}

// WithFilter sets the view shown at startup.
func WithFilter(f todo.Filter) TUIOption {
	return func(c *tuiConfig) {
		c.filter = f
	}
}

// WithLogger sets the logger for user actions.
func WithLogger(logger *log.Logger) TUIOption {
	return func(c *tuiConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// RunTUI runs the task manager on the terminal until the user quits or ctx
// is cancelled.
func RunTUI(ctx context.Context, store TaskStore, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newTUIModel(store, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeConfirmDelete
)

const (
	msgEmptyTitle     = "Please enter a task title."
	msgNoSelection    = "Please select a task first."
	msgNoDeleteTarget = "Please select a task to delete."
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
	filterLabels  = map[todo.Filter]string{todo.FilterAll: "All", todo.FilterPending: "Pending", todo.FilterCompleted: "Completed"}
	filterHotkeys = map[string]todo.Filter{"1": todo.FilterAll, "2": todo.FilterPending, "3": todo.FilterCompleted}
)

// Column widths. The Task column takes whatever the terminal has left.
const (
	idWidth       = 5
	statusWidth   = 8
	createdWidth  = 19
	minTitleWidth = 20
	defaultWidth  = 80

	// chromeLines counts the lines around the table rows: title block,
	// filter bar, column header, summary block and footer.
	chromeLines = 10
)

type tuiModel struct {
	store  TaskStore
	logger *log.Logger

	filter todo.Filter
	tasks  []todo.Task // current view, refreshed after every change
	cursor int
	mode   mode
	input  textinput.Model

	pendingDelete int
	status        string
	warning       bool
	showHelp      bool
	width         int
	height        int // 0 until the first WindowSizeMsg; all rows are shown
	offset        int // first visible row
}

func newTUIModel(store TaskStore, opts ...TUIOption) *tuiModel {
	c := &tuiConfig{
		filter: todo.FilterAll,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.Prompt = "New task: "
	ti.CharLimit = 256
	ti.Width = 40

	m := &tuiModel{
		store:  store,
		logger: c.logger,
		filter: todo.ParseFilter(string(c.filter)),
		input:  ti,
		width:  defaultWidth,
	}
	m.refresh()
	return m
}

func (m *tuiModel) Init() tea.Cmd {
	return nil
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-len(m.input.Prompt)-2, 10)
		m.scroll()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		switch m.mode {
		case modeAdd:
			_, cmd = m.updateAdd(msg)
		case modeConfirmDelete:
			_, cmd = m.updateConfirmDelete(msg)
		default:
			_, cmd = m.updateList(msg)
		}
		m.scroll()
		return m, cmd
	}
	return m, nil
}

func (m *tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if f, ok := filterHotkeys[key]; ok {
		m.setFilter(f)
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "?", "h":
		m.showHelp = !m.showHelp
	case "up", "k":
		m.cursor = clampCursor(m.cursor-1, len(m.tasks))
	case "down", "j":
		m.cursor = clampCursor(m.cursor+1, len(m.tasks))
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = clampCursor(len(m.tasks)-1, len(m.tasks))
	case "a":
		m.mode = modeAdd
		m.input.SetValue("")
		m.setStatus("Type a title and press enter (esc cancels).")
		return m, m.input.Focus()
	case " ", "space", "enter", "x":
		m.toggleSelected()
	case "d", "delete":
		task, ok := m.selected()
		if !ok {
			m.setStatus(msgNoDeleteTarget)
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDelete = task.ID
		m.setStatus(fmt.Sprintf("Delete task #%d %q? (y/n)", task.ID, task.Title))
	}
	return m, nil
}

func (m *tuiModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.leaveAdd()
		m.setStatus("Cancelled.")
		return m, nil
	case "enter":
		title, err := todo.ValidateTitle(m.input.Value())
		if err != nil {
			m.setStatus(msgEmptyTitle)
			return m, nil
		}
		task, err := m.store.Add(title)
		m.logger.Debug("Add task", "id", task.ID)
		m.leaveAdd()
		m.refresh()
		m.selectID(task.ID)
		if !m.reportSaveError(err) {
			m.setStatus(fmt.Sprintf("Added task #%d.", task.ID))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *tuiModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id := m.pendingDelete
		m.mode = modeList
		m.pendingDelete = 0
		err := m.store.Delete(id)
		m.logger.Debug("Delete task", "id", id)
		m.refresh()
		if !m.reportSaveError(err) {
			m.setStatus(fmt.Sprintf("Deleted task #%d.", id))
		}
	case "n", "N", "esc", "q":
		m.mode = modeList
		m.pendingDelete = 0
		m.setStatus("Delete cancelled.")
	}
	return m, nil
}

func (m *tuiModel) toggleSelected() {
	task, ok := m.selected()
	if !ok {
		m.setStatus(msgNoSelection)
		return
	}
	err := m.store.Toggle(task.ID)
	m.logger.Debug("Toggle task", "id", task.ID)
	m.refresh()
	m.selectID(task.ID)
	if m.reportSaveError(err) {
		return
	}
	state := "done"
	if task.Completed {
		state = "pending"
	}
	m.setStatus(fmt.Sprintf("Marked task #%d %s.", task.ID, state))
}

func (m *tuiModel) setFilter(f todo.Filter) {
	var keep int
	if task, ok := m.selected(); ok {
		keep = task.ID
	}
	m.filter = f
	m.refresh()
	m.selectID(keep)
	m.setStatus("")
}

func (m *tuiModel) leaveAdd() {
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
}

// refresh reloads the view from the store and keeps the cursor in range.
func (m *tuiModel) refresh() {
	m.tasks = m.store.Get(m.filter)
	m.cursor = clampCursor(m.cursor, len(m.tasks))
}

// visibleRows is the number of table rows that fit the terminal, or 0 when
// the height is unknown.
func (m *tuiModel) visibleRows() int {
	if m.height <= 0 {
		return 0
	}
	used := chromeLines
	if m.mode == modeAdd {
		used++
	}
	if m.status != "" {
		used++
	}
	return max(m.height-used, 1)
}

// scroll moves the row window just enough to keep the cursor visible.
func (m *tuiModel) scroll() {
	visible := m.visibleRows()
	n := len(m.tasks)
	if visible == 0 || n <= visible {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	m.offset = min(max(m.offset, 0), n-visible)
}

// rowWindow returns the half-open range of rows to draw out of n.
func (m *tuiModel) rowWindow(n int) (start, end int) {
	visible := m.visibleRows()
	if visible == 0 || n <= visible {
		return 0, n
	}
	start = min(max(m.offset, 0), n-visible)
	return start, start + visible
}

func (m *tuiModel) selected() (todo.Task, bool) {
	if len(m.tasks) == 0 {
		return todo.Task{}, false
	}
	return m.tasks[m.cursor], true
}

// selectID moves the cursor to the task with id if it is in the view.
func (m *tuiModel) selectID(id int) {
	for i, t := range m.tasks {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *tuiModel) setStatus(s string) {
	m.status = s
	m.warning = false
}

// reportSaveError shows err as a warning and reports whether there was one.
func (m *tuiModel) reportSaveError(err error) bool {
	if err == nil {
		return false
	}
	m.logger.Warn("Could not save tasks", "err", err)
	m.status = "Warning: " + err.Error()
	m.warning = true
	return true
}

func (m *tuiModel) View() string {
	return strings.TrimSuffix(render(m, m.tasks), "\n")
}

// render draws the whole screen from the model state and the visible tasks.
func render(m *tuiModel, tasks []todo.Task) string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		return b.String()
	}

	writeFilterBar(&b, m.filter)
	writeTable(&b, m, tasks)

	b.WriteString("\n")
	b.WriteString(m.store.Summary().String())
	if start, end := m.rowWindow(len(tasks)); end-start < len(tasks) {
		b.WriteString(faintStyle.Render(fmt.Sprintf("  (rows %d-%d of %d)", start+1, end, len(tasks))))
	}
	b.WriteString("\n\n")

	if m.mode == modeAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.status != "" {
		if m.warning {
			b.WriteString(warnStyle.Render(m.status))
		} else {
			b.WriteString(m.status)
		}
		b.WriteString("\n")
	}
	writeFooter(&b, m.mode)
	return b.String()
}

func writeTitle(b *strings.Builder) {
	title := "Task Manager"
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeFilterBar(b *strings.Builder, active todo.Filter) {
	b.WriteString("Filter:")
	for i, f := range todo.Filters() {
		label := fmt.Sprintf("%d %s", i+1, filterLabels[f])
		if f == active {
			label = activeStyle.Render("[" + label + "]")
		} else {
			label = " " + label + " "
		}
		b.WriteString(" " + label)
	}
	b.WriteString("\n\n")
}

func writeTable(b *strings.Builder, m *tuiModel, tasks []todo.Task) {
	titleWidth := max(m.width-idWidth-statusWidth-createdWidth-8, minTitleWidth)

	header := "  " + joinColumns(titleWidth, "ID", "Task", "Status", "Created")
	b.WriteString(headerStyle.Render(header) + "\n")

	if len(tasks) == 0 {
		b.WriteString(faintStyle.Render("  " + emptyMessage(m.filter)))
		b.WriteString("\n")
		return
	}

	start, end := m.rowWindow(len(tasks))
	for i := start; i < end; i++ {
		t := tasks[i]
		created := t.CreatedAt
		if len(created) > createdWidth {
			created = created[:createdWidth]
		}
		row := joinColumns(titleWidth, strconv.Itoa(t.ID), t.Title, t.Status(), created)
		if t.Completed {
			row = doneStyle.Render(row)
		}
		if i == m.cursor && m.mode != modeAdd {
			row = cursorStyle.Render("> " + row)
		} else {
			row = "  " + row
		}
		b.WriteString(row + "\n")
	}
}

func joinColumns(titleWidth int, id, title, status, created string) string {
	return pad(id, idWidth) + " " +
		pad(ansi.Truncate(title, titleWidth, "…"), titleWidth) + " " +
		pad(status, statusWidth) + " " +
		created
}

// pad right-fills s with spaces to width terminal cells.
func pad(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func emptyMessage(f todo.Filter) string {
	switch f {
	case todo.FilterPending:
		return "No pending tasks."
	case todo.FilterCompleted:
		return "No completed tasks."
	default:
		return "No tasks yet. Press a to add one."
	}
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  a              Add a task\n")
	b.WriteString("  space, enter   Complete / undo the selected task\n")
	b.WriteString("  d              Delete the selected task (asks first)\n")
	b.WriteString("  1, 2, 3        Show all, pending or completed tasks\n")
	b.WriteString("  up/k, down/j   Move the selection\n")
	b.WriteString("  ?, h           Toggle this help screen\n")
	b.WriteString("  q, ctrl+c      Quit\n\n")
}

func writeFooter(b *strings.Builder, md mode) {
	var hint string
	switch md {
	case modeAdd:
		hint = "enter save | esc cancel"
	case modeConfirmDelete:
		hint = "y delete | n cancel"
	default:
		hint = "a add | space toggle | d delete | 1/2/3 filter | ? help | q quit"
	}
	b.WriteString(faintStyle.Render(hint) + "\n")
}

func clampCursor(cur, n int) int {
	if n <= 0 || cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
