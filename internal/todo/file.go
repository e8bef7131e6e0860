package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// knownFields are written first, in this order.
var knownFields = []string{"id", "title", "completed", "created_at"}

// Encode renders tasks in the data file format.
func Encode(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses the data file format. Elements that are not JSON objects are
// dropped and reported as warnings. Malformed JSON and non-array documents
// return an error.
func Decode(data []byte) ([]Task, []string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, fmt.Errorf("parse tasks: empty document")
	}
	if trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, nil, fmt.Errorf("parse tasks: invalid JSON")
		}
		return nil, nil, fmt.Errorf("parse tasks: %w", ErrNotArray)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, nil, fmt.Errorf("parse tasks: %w", err)
	}

	tasks := make([]Task, 0, len(elems))
	var warnings []string
	for i, elem := range elems {
		task, taskWarnings, err := decodeRecord(elem)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("[%d]: dropped: %v", i, err))
			continue
		}
		for _, w := range taskWarnings {
			warnings = append(warnings, fmt.Sprintf("[%d].%s", i, w))
		}
		tasks = append(tasks, task)
	}
	return tasks, warnings, nil
}

// decodeRecord reads one record leniently. A known field of the wrong type
// holds its zero value in memory, keeps its original encoding for the next
// write and produces a warning.
func decodeRecord(data []byte) (Task, []string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Task{}, nil, fmt.Errorf("not an object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Task{}, nil, err
	}

	var t Task
	var warnings []string
	keepRaw := func(key string, raw json.RawMessage) {
		if t.raw == nil {
			t.raw = make(map[string]json.RawMessage)
		}
		t.raw[key] = raw
	}
	decodeField := func(key string, dst any) {
		raw, ok := fields[key]
		if !ok {
			return
		}
		delete(fields, key)
		if err := json.Unmarshal(raw, dst); err != nil {
			keepRaw(key, raw)
			warnings = append(warnings, fmt.Sprintf("%s: kept unrecognized value %s", key, raw))
		}
	}
	if raw, ok := fields["id"]; ok {
		delete(fields, "id")
		id, exact, ok := decodeID(raw)
		t.ID = id
		if !exact {
			keepRaw("id", raw)
		}
		if !ok {
			warnings = append(warnings, fmt.Sprintf("id: kept unrecognized value %s", raw))
		}
	}
	decodeField("title", &t.Title)
	decodeField("completed", &t.Completed)
	decodeField("created_at", &t.CreatedAt)

	if len(fields) > 0 {
		t.extra = fields
	}
	return t, warnings, nil
}

// decodeID reads an id that may be written as an integral float such as 1.0.
// exact reports whether strconv.Itoa(id) reproduces raw; ok is false when raw
// is not an integral number, in which case id is 0.
func decodeID(raw json.RawMessage) (id int, exact, ok bool) {
	literal := string(bytes.TrimSpace(raw))
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, literal == strconv.Itoa(id), true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false, false
	}
	return int(f), false, true
}

// MarshalJSON writes the known fields in a fixed order followed by any
// unknown fields sorted by key.
func (t Task) MarshalJSON() ([]byte, error) {
	values := []any{t.ID, t.Title, t.Completed, t.CreatedAt}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range knownFields {
		if i > 0 {
			buf.WriteByte(',')
		}
		value := values[i]
		if raw, ok := t.raw[key]; ok {
			value = raw
		}
		if err := writeMember(&buf, key, value); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(t.extra))
	for key := range t.extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		buf.WriteByte(',')
		if err := writeMember(&buf, key, t.extra[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a record with the same leniency as Decode.
func (t *Task) UnmarshalJSON(data []byte) error {
	task, _, err := decodeRecord(data)
	if err != nil {
		return fmt.Errorf("decode task: %w", err)
	}
	*t = task
	return nil
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := marshalRaw(key)
	if err != nil {
		return err
	}
	v, err := marshalRaw(value)
	if err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// readFile loads tasks from path. A missing file yields (nil, nil, nil).
func readFile(path string) ([]Task, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read tasks file: %w", err)
	}
	return Decode(data)
}

// writeFile replaces path with data via a temporary file in the same
// directory. The existing file mode is kept.
func writeFile(path string, data []byte) (err error) {
	mode := os.FileMode(0644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace tasks file: %w", err)
	}
	return nil
}
