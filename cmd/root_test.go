package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nibzard/taskman/internal/config"
	"github.com/nibzard/taskman/internal/logging"
	"github.com/nibzard/taskman/internal/todo"
)

// testEnv isolates a CLI run from the real home directory and config files.
type testEnv struct {
	home string
	work string
	data string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, name := range []string{
		config.EnvDataFile, config.EnvLogDir, config.EnvLogLevel,
		config.EnvLogFormat, config.EnvLogTimestamps, config.EnvDefaultFilter,
	} {
		t.Setenv(name, "")
	}
	t.Chdir(work)
	return &testEnv{home: home, work: work, data: filepath.Join(work, "tasks.json")}
}

type result struct {
	out string
	err string
	run error
}

// run executes the CLI with -data pointing at the env's tasks file.
func (e *testEnv) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"-data", e.data}, args...)
	err := RunWithIO(context.Background(), full, IO{
		In:  strings.NewReader(stdin),
		Out: &out,
		Err: &errOut,
	})
	return result{out: out.String(), err: errOut.String(), run: err}
}

func (e *testEnv) tasks(t *testing.T) []todo.Task {
	t.Helper()
	return todo.Open(e.data).Get(todo.FilterAll)
}

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantOut string
		wantErr string
	}{
		{name: "help flag", args: []string{"-help"}, wantOut: "Commands:"},
		{name: "short help flag", args: []string{"-h"}},
		{name: "help command", args: []string{"help"}, wantOut: "Global Options:"},
		{name: "version flag", args: []string{"-version"}, wantOut: "taskman version dev"},
		{name: "short version flag", args: []string{"-v"}, wantOut: "taskman version"},
		{name: "version command", args: []string{"version"}, wantOut: "taskman version"},
		{name: "unknown command", args: []string{"frobnicate"}, wantErr: "unknown command"},
		{name: "tui rejects arguments", args: []string{"tui", "extra"}, wantErr: "unexpected arguments"},
		{name: "unknown global flag", args: []string{"-nope"}, wantErr: "loading config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			res := env.run(t, "", tt.args...)
			if tt.wantErr != "" {
				if res.run == nil || !strings.Contains(res.run.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", res.run, tt.wantErr)
				}
				return
			}
			if res.run != nil {
				t.Fatalf("unexpected error: %v", res.run)
			}
			if !strings.Contains(res.out, tt.wantOut) {
				t.Errorf("stdout = %q, want containing %q", res.out, tt.wantOut)
			}
		})
	}
}

func TestAddCommand(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "", "add", "Buy", "milk")
	if res.run != nil {
		t.Fatalf("add: %v", res.run)
	}
	if !strings.Contains(res.out, "Added task #1: Buy milk") {
		t.Errorf("stdout = %q", res.out)
	}

	res = env.run(t, "", "add", "  Write report  ")
	if res.run != nil {
		t.Fatalf("add: %v", res.run)
	}

	tasks := env.tasks(t)
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[1].ID != 2 || tasks[1].Title != "Write report" || tasks[1].Completed {
		t.Errorf("second task = %+v", tasks[1])
	}
}

func TestAddCommandEmptyTitle(t *testing.T) {
	env := newTestEnv(t)

	for _, args := range [][]string{{"add"}, {"add", "   "}} {
		res := env.run(t, "", args...)
		if res.run == nil {
			t.Fatalf("%v: expected error", args)
		}
		if !strings.Contains(res.err, "Please enter a task title.") {
			t.Errorf("%v: stderr = %q", args, res.err)
		}
	}
	if _, err := os.Stat(env.data); !os.IsNotExist(err) {
		t.Errorf("tasks file should not be created, stat err = %v", err)
	}
}

func TestLsCommand(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, "", "add", "Buy milk")
	env.run(t, "", "add", "Write report")
	env.run(t, "", "toggle", "1")

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
		wantErr bool
	}{
		{
			name: "all",
			args: []string{"ls"},
			want: []string{"Buy milk", "Write report", "2 tasks | 1 completed"},
		},
		{
			name:    "pending flag",
			args:    []string{"ls", "-filter", "pending"},
			want:    []string{"Write report", "2 tasks | 1 completed"},
			notWant: []string{"Buy milk"},
		},
		{
			name:    "completed positional",
			args:    []string{"list", "completed"},
			want:    []string{"Buy milk", "Done"},
			notWant: []string{"Write report"},
		},
		{
			name:    "unknown filter",
			args:    []string{"ls", "someday"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.run(t, "", tt.args...)
			if tt.wantErr {
				if res.run == nil {
					t.Fatal("expected error")
				}
				return
			}
			if res.run != nil {
				t.Fatalf("unexpected error: %v", res.run)
			}
			for _, s := range tt.want {
				if !strings.Contains(res.out, s) {
					t.Errorf("stdout missing %q:\n%s", s, res.out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(res.out, s) {
					t.Errorf("stdout should not contain %q:\n%s", s, res.out)
				}
			}
		})
	}
}

func TestLsCommandEmpty(t *testing.T) {
	env := newTestEnv(t)
	res := env.run(t, "", "ls")
	if res.run != nil {
		t.Fatalf("ls: %v", res.run)
	}
	if !strings.Contains(res.out, "No tasks found.") || !strings.Contains(res.out, "0 tasks | 0 completed") {
		t.Errorf("stdout = %q", res.out)
	}
}

func TestToggleCommand(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, "", "add", "Buy milk")

	res := env.run(t, "", "toggle", "1")
	if res.run != nil || !strings.Contains(res.out, "Marked task #1 done.") {
		t.Fatalf("toggle: err=%v out=%q", res.run, res.out)
	}
	if !env.tasks(t)[0].Completed {
		t.Error("task should be completed")
	}

	res = env.run(t, "", "done", "1")
	if res.run != nil || !strings.Contains(res.out, "Marked task #1 pending.") {
		t.Fatalf("done: err=%v out=%q", res.run, res.out)
	}
	if env.tasks(t)[0].Completed {
		t.Error("task should be pending again")
	}

	errCases := map[string][]string{
		"missing id": {"toggle"},
		"bad id":     {"toggle", "abc"},
		"no zero id": {"toggle", "0"},
		"absent id":  {"toggle", "42"},
	}
	for name, args := range errCases {
		t.Run(name, func(t *testing.T) {
			if res := env.run(t, "", args...); res.run == nil {
				t.Errorf("%v: expected error", args)
			}
		})
	}
}

func TestRmCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		stdin     string
		wantOut   string
		wantCount int
	}{
		{name: "yes flag", args: []string{"rm", "-y", "1"}, wantOut: "Deleted task #1.", wantCount: 1},
		{name: "yes flag after id", args: []string{"delete", "1", "-y"}, wantOut: "Deleted task #1.", wantCount: 1},
		{name: "confirmed", args: []string{"rm", "1"}, stdin: "y\n", wantOut: "Deleted task #1.", wantCount: 1},
		{name: "declined", args: []string{"rm", "1"}, stdin: "n\n", wantOut: "Cancelled.", wantCount: 2},
		{name: "no input", args: []string{"rm", "1"}, wantOut: "Cancelled.", wantCount: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.run(t, "", "add", "Buy milk")
			env.run(t, "", "add", "Write report")

			res := env.run(t, tt.stdin, tt.args...)
			if res.run != nil {
				t.Fatalf("rm: %v", res.run)
			}
			if !strings.Contains(res.out, tt.wantOut) {
				t.Errorf("stdout = %q, want containing %q", res.out, tt.wantOut)
			}
			if got := len(env.tasks(t)); got != tt.wantCount {
				t.Errorf("got %d tasks, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestRmCommandDoesNotReuseIDs(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, "", "add", "one")
	env.run(t, "", "add", "two")
	env.run(t, "", "rm", "-y", "1")

	res := env.run(t, "", "add", "three")
	if !strings.Contains(res.out, "Added task #3: three") {
		t.Errorf("stdout = %q, want id 3", res.out)
	}
}

func TestRmCommandErrors(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, "", "add", "Buy milk")

	for _, args := range [][]string{{"rm"}, {"rm", "-y", "x"}, {"rm", "-y", "9"}, {"rm", "1", "2"}} {
		if res := env.run(t, "", args...); res.run == nil {
			t.Errorf("%v: expected error", args)
		}
	}
	if got := len(env.tasks(t)); got != 1 {
		t.Errorf("got %d tasks, want 1", got)
	}
}

func TestSaveFailureIsWarning(t *testing.T) {
	env := newTestEnv(t)
	env.data = filepath.Join(env.work, "missing", "tasks.json")

	res := env.run(t, "", "add", "Buy milk")
	if res.run != nil {
		t.Fatalf("add should succeed despite save failure: %v", res.run)
	}
	if !strings.Contains(res.err, "Warning:") {
		t.Errorf("stderr = %q, want a warning", res.err)
	}
	if !strings.Contains(res.out, "Added task #1: Buy milk") {
		t.Errorf("stdout = %q", res.out)
	}
}

func TestExportCommand(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, "", "add", "Buy milk")
	env.run(t, "", "add", "Write report")
	env.run(t, "", "toggle", "2")

	t.Run("json to stdout", func(t *testing.T) {
		res := env.run(t, "", "export")
		if res.run != nil {
			t.Fatalf("export: %v", res.run)
		}
		var got []map[string]any
		if err := json.Unmarshal([]byte(res.out), &got); err != nil {
			t.Fatalf("stdout is not JSON: %v\n%s", err, res.out)
		}
		if len(got) != 2 || got[0]["title"] != "Buy milk" {
			t.Errorf("exported = %v", got)
		}
	})

	t.Run("csv filtered", func(t *testing.T) {
		res := env.run(t, "", "export", "-format", "csv", "-filter", "completed")
		if res.run != nil {
			t.Fatalf("export: %v", res.run)
		}
		records, err := csv.NewReader(strings.NewReader(res.out)).ReadAll()
		if err != nil {
			t.Fatalf("stdout is not CSV: %v", err)
		}
		if len(records) != 2 || records[1][1] != "Write report" {
			t.Errorf("records = %v", records)
		}
	})

	t.Run("format from extension", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "report.pdf")
		res := env.run(t, "", "export", "-o", out)
		if res.run != nil {
			t.Fatalf("export: %v", res.run)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF-")) {
			t.Errorf("file does not look like a PDF: %q", data[:min(len(data), 16)])
		}
		if !strings.Contains(res.err, "Exported") {
			t.Errorf("stderr = %q", res.err)
		}
	})

	t.Run("pdf needs output file", func(t *testing.T) {
		if res := env.run(t, "", "export", "-format", "pdf"); res.run == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if res := env.run(t, "", "export", "-format", "xml"); res.run == nil {
			t.Error("expected error")
		}
	})
}

func TestDoctorCommand(t *testing.T) {
	t.Run("missing file passes", func(t *testing.T) {
		env := newTestEnv(t)
		res := env.run(t, "", "doctor")
		if res.run != nil {
			t.Fatalf("doctor: %v\n%s", res.run, res.out)
		}
		if !strings.Contains(res.out, "All checks passed") {
			t.Errorf("stdout = %q", res.out)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		env := newTestEnv(t)
		env.run(t, "", "add", "Buy milk")
		res := env.run(t, "", "doctor", "-v")
		if res.run != nil {
			t.Fatalf("doctor: %v\n%s", res.run, res.out)
		}
		for _, s := range []string{"Valid (1 tasks)", "#1: Buy milk", "data_file"} {
			if !strings.Contains(res.out, s) {
				t.Errorf("stdout missing %q:\n%s", s, res.out)
			}
		}
	})

	t.Run("corrupt file fails", func(t *testing.T) {
		env := newTestEnv(t)
		if err := os.WriteFile(env.data, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		res := env.run(t, "", "doctor")
		if res.run == nil {
			t.Fatalf("expected doctor to fail:\n%s", res.out)
		}
		if !strings.Contains(res.out, "cannot be loaded") {
			t.Errorf("stdout = %q", res.out)
		}
	})

	t.Run("bad default filter fails", func(t *testing.T) {
		env := newTestEnv(t)
		t.Setenv(config.EnvDefaultFilter, "someday")
		res := env.run(t, "", "doctor")
		if res.run == nil {
			t.Fatalf("expected doctor to fail:\n%s", res.out)
		}
	})
}

func TestInitCommand(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "", "init")
	if res.run != nil {
		t.Fatalf("init: %v", res.run)
	}
	path := filepath.Join(env.work, "taskman.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != config.ExampleConfig() {
		t.Error("written config differs from the example")
	}

	if res := env.run(t, "", "init"); res.run == nil || !strings.Contains(res.run.Error(), "already exists") {
		t.Errorf("second init error = %v", res.run)
	}
	if res := env.run(t, "", "init", "-force"); res.run != nil {
		t.Errorf("init -force: %v", res.run)
	}

	res = env.run(t, "", "init", "-user")
	if res.run != nil {
		t.Fatalf("init -user: %v", res.run)
	}
	if _, err := os.Stat(filepath.Join(env.home, ".taskman", "taskman.toml")); err != nil {
		t.Errorf("user config not written: %v", err)
	}
}

func TestTailCommand(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "", "tail")
	if res.run != nil {
		t.Fatalf("tail: %v", res.run)
	}
	if !strings.Contains(res.out, "No log files found.") {
		t.Errorf("stdout = %q", res.out)
	}

	logDir, err := logging.FindLogDir(filepath.Join(env.home, ".taskman"), env.data)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(logDir, "run.log"), []byte("one\ntwo\nthree\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res = env.run(t, "", "tail", "-n", "2")
	if res.run != nil {
		t.Fatalf("tail: %v", res.run)
	}
	if !strings.Contains(res.out, "two\nthree\n") || strings.Contains(res.out, "one\n") {
		t.Errorf("stdout = %q", res.out)
	}
}

func TestParseInterspersed(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantPos []string
		wantY   bool
	}{
		{name: "flag first", args: []string{"-y", "3"}, wantPos: []string{"3"}, wantY: true},
		{name: "flag last", args: []string{"3", "-y"}, wantPos: []string{"3"}, wantY: true},
		{name: "no flag", args: []string{"3"}, wantPos: []string{"3"}},
		{name: "double dash", args: []string{"--", "-y"}, wantPos: []string{"-y"}},
		{name: "empty", args: nil, wantPos: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			y := fs.Bool("y", false, "")
			got, err := parseInterspersed(fs, tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantPos, ",") {
				t.Errorf("positional = %v, want %v", got, tt.wantPos)
			}
			if *y != tt.wantY {
				t.Errorf("y = %v, want %v", *y, tt.wantY)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "1", want: 1},
		{in: " 42 ", want: 42},
		{in: "0", want: 0},
		{in: "-3", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		" y ":   true,
		"n\n":   false,
		"\n":    false,
		"":      false,
		"yep\n": false,
	}
	for input, want := range tests {
		if got := confirm(strings.NewReader(input)); got != want {
			t.Errorf("confirm(%q) = %v, want %v", input, got, want)
		}
	}
	if confirm(nil) {
		t.Error("confirm(nil) should be false")
	}
}

func TestTuiCommandLogsLoadIssue(t *testing.T) {
	env := newTestEnv(t)
	if err := os.WriteFile(env.data, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	res := env.run(t, "", "tui")
	if res.run == nil || !strings.Contains(res.run.Error(), "TTY") {
		t.Fatalf("error = %v, want a TTY error", res.run)
	}
	if strings.Contains(res.err, "Warning") || strings.Contains(res.err, "empty list") {
		t.Errorf("load problem should only be logged, stderr = %q", res.err)
	}

	logDir, err := logging.FindLogDir(filepath.Join(env.home, ".taskman"), env.data)
	if err != nil {
		t.Fatal(err)
	}
	logPath, err := logging.FindLatestLog(logDir)
	if err != nil || logPath == "" {
		t.Fatalf("no run log written (err %v)", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Tasks file unusable") {
		t.Errorf("run log missing the load warning:\n%s", data)
	}
}

func TestLegacyRecordWithoutID(t *testing.T) {
	env := newTestEnv(t)
	content := `[{"title": "legacy"}, {"id": 2, "title": "current", "completed": false, "created_at": "2024-01-01T09:00:00"}]`
	if err := os.WriteFile(env.data, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	res := env.run(t, "", "toggle", "0")
	if res.run != nil || !strings.Contains(res.out, "Marked task #0 done.") {
		t.Fatalf("toggle 0: err=%v out=%q", res.run, res.out)
	}
	if tasks := env.tasks(t); !tasks[0].Completed {
		t.Errorf("legacy task should be completed: %+v", tasks[0])
	}

	res = env.run(t, "", "rm", "-y", "0")
	if res.run != nil || !strings.Contains(res.out, "Deleted task #0.") {
		t.Fatalf("rm 0: err=%v out=%q", res.run, res.out)
	}
	if got := env.tasks(t); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("remaining tasks = %+v", got)
	}
}
