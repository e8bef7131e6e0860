package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultFile is the data file used when no path is configured.
const DefaultFile = "tasks.json"

// TimeLayout is the created_at format: ISO-8601, second precision, local time.
const TimeLayout = "2006-01-02T15:04:05"

// ErrEmptyTitle is returned by ValidateTitle for blank titles.
var ErrEmptyTitle = errors.New("task title is empty")

// ErrNotArray reports a data file whose top-level value is not an array.
var ErrNotArray = errors.New("top-level value is not an array")

// Task is a single to-do item.
type Task struct {
	ID        int
	Title     string
	Completed bool
	CreatedAt string

	// extra holds record fields this package does not interpret.
	extra map[string]json.RawMessage
	// raw holds the original encoding of known fields whose value the typed
	// fields cannot represent exactly. It is written back in their place.
	raw map[string]json.RawMessage
}

// dropRaw forgets the original encoding of key after the field changed.
// The map is copied because copies of the task share it.
func (t *Task) dropRaw(key string) {
	if _, ok := t.raw[key]; !ok {
		return
	}
	var kept map[string]json.RawMessage
	for k, v := range t.raw {
		if k == key {
			continue
		}
		if kept == nil {
			kept = make(map[string]json.RawMessage, len(t.raw)-1)
		}
		kept[k] = v
	}
	t.raw = kept
}

// Status returns the display status of the task.
func (t Task) Status() string {
	if t.Completed {
		return "Done"
	}
	return "Pending"
}

// Created parses CreatedAt. Fractional seconds and zone offsets written by
// other tools are accepted and truncated to seconds.
func (t Task) Created() (time.Time, error) {
	if t.CreatedAt == "" {
		return time.Time{}, fmt.Errorf("task %d has no created_at", t.ID)
	}
	layouts := []string{TimeLayout, "2006-01-02T15:04:05.999999999", time.RFC3339, time.RFC3339Nano}
	for _, layout := range layouts {
		ts, err := time.ParseInLocation(layout, t.CreatedAt, time.Local)
		if err == nil {
			return ts.Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("task %d: unrecognized created_at %q", t.ID, t.CreatedAt)
}

// Extra returns the raw JSON of an unknown record field.
func (t Task) Extra(key string) (json.RawMessage, bool) {
	v, ok := t.extra[key]
	return v, ok
}

// ValidateTitle trims title and rejects it if nothing is left.
// Callers run it before Store.Add; the store itself stores whatever it is given.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrEmptyTitle
	}
	return trimmed, nil
}

// Filter selects a subset of tasks.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// Filters lists the recognized selectors in display order.
func Filters() []Filter {
	return []Filter{FilterAll, FilterPending, FilterCompleted}
}

// ParseFilter maps a selector name to a Filter. Unknown names select all tasks.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterPending:
		return FilterPending
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// Known reports whether f is one of the recognized selectors.
func (f Filter) Known() bool {
	switch f {
	case FilterAll, FilterPending, FilterCompleted:
		return true
	}
	return false
}

// Match reports whether t belongs to the filtered view.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// Summary counts tasks in the unfiltered collection.
type Summary struct {
	Total     int
	Completed int
	Pending   int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d tasks | %d completed", s.Total, s.Completed)
}

// SaveError reports a failed write of the data file.
// The mutation that triggered the save has already been applied in memory.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("could not save tasks to %s: %s", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *SaveError) Unwrap() error {
	return e.Err
}

// LoadError describes why an existing data file was discarded on open.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
