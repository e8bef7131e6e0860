package todo

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Store owns the task collection and keeps the data file in sync with it.
type Store struct {
	path      string
	tasks     []Task
	lastID    int
	logger    *log.Logger
	now       func() time.Time
	loadIssue error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load fallbacks and save failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp new tasks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open creates a store backed by path and loads it immediately.
// An empty path selects DefaultFile. Open never fails: an unusable file
// leaves the store empty and is reported by LoadIssue.
func Open(path string, opts ...Option) *Store {
	if strings.TrimSpace(path) == "" {
		path = DefaultFile
	}
	s := &Store{
		path:   path,
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load()
	return s
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// LoadIssue returns the reason an existing data file was discarded on open,
// or nil if it loaded cleanly or did not exist.
func (s *Store) LoadIssue() error {
	return s.loadIssue
}

func (s *Store) load() {
	tasks, warnings, err := readFile(s.path)
	if err != nil {
		s.tasks = nil
		s.loadIssue = &LoadError{Path: s.path, Err: err}
		s.logger.Warn("Tasks file unusable, starting with an empty list", "path", s.path, "err", err)
		return
	}
	for _, w := range warnings {
		s.logger.Warn("Tasks file record", "path", s.path, "detail", w)
	}
	s.tasks = tasks
	s.lastID = maxID(tasks)
	s.warnDuplicateIDs()
	s.logger.Debug("Loaded tasks", "path", s.path, "count", len(s.tasks))
}

func (s *Store) warnDuplicateIDs() {
	seen := make(map[int]bool, len(s.tasks))
	for _, t := range s.tasks {
		if seen[t.ID] {
			s.logger.Warn("Duplicate task id; toggle affects the first match, delete removes all", "path", s.path, "id", t.ID)
			continue
		}
		seen[t.ID] = true
	}
}

// Add appends a new pending task and saves. The title is trimmed but not
// otherwise checked; see ValidateTitle. The task is added even when the
// returned error (a *SaveError) is non-nil.
func (s *Store) Add(title string) (Task, error) {
	task := Task{
		ID:        s.nextID(),
		Title:     strings.TrimSpace(title),
		Completed: false,
		CreatedAt: s.now().Truncate(time.Second).Format(TimeLayout),
	}
	s.tasks = append(s.tasks, task)
	s.lastID = task.ID
	s.logger.Debug("Added task", "id", task.ID)
	return task, s.save()
}

// Toggle flips the completed flag of the first task with id. An unknown id
// changes nothing. The file is saved either way.
func (s *Store) Toggle(id int) error {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = !s.tasks[i].Completed
			s.tasks[i].dropRaw("completed")
			s.logger.Debug("Toggled task", "id", id, "completed", s.tasks[i].Completed)
			break
		}
	}
	return s.save()
}

// Delete removes every task with id. An unknown id changes nothing. The file
// is saved either way.
func (s *Store) Delete(id int) error {
	kept := s.tasks[:0]
	removed := 0
	for _, t := range s.tasks {
		if t.ID == id {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	// Clear the tail so removed records are not retained by the backing array.
	for i := len(kept); i < len(s.tasks); i++ {
		s.tasks[i] = Task{}
	}
	s.tasks = kept
	if removed > 0 {
		s.logger.Debug("Deleted task", "id", id)
	}
	return s.save()
}

// Get returns a copy of the tasks selected by filter, in insertion order.
// Unknown filter values select all tasks.
func (s *Store) Get(filter Filter) []Task {
	out := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Summary counts the unfiltered collection.
func (s *Store) Summary() Summary {
	sum := Summary{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Completed {
			sum.Completed++
		}
	}
	sum.Pending = sum.Total - sum.Completed
	return sum
}

// nextID is one past the largest id this store has seen, so ids deleted
// during the store's lifetime are not handed out again. A fresh store starts
// from the largest id in the file, or 1 when it is empty.
func (s *Store) nextID() int {
	next := maxID(s.tasks)
	if s.lastID > next {
		next = s.lastID
	}
	return next + 1
}

func maxID(tasks []Task) int {
	max := 0
	for _, t := range tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}

func (s *Store) save() error {
	data, err := Encode(s.tasks)
	if err != nil {
		return &SaveError{Path: s.path, Err: err}
	}
	if err := writeFile(s.path, data); err != nil {
		s.logger.Debug("Save failed", "path", s.path, "err", err)
		return &SaveError{Path: s.path, Err: err}
	}
	return nil
}
