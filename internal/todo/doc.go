// Package todo owns the task collection and its JSON file.
//
// The data file (tasks.json by default) is a JSON array of task records:
//
//	[
//	  {
//	    "id": 1,
//	    "title": "Buy milk",
//	    "completed": false,
//	    "created_at": "2024-01-01T09:30:00"
//	  }
//	]
//
// # Loading
//
// A missing file is an empty collection. A file that cannot be read, is not
// valid JSON, or whose top-level value is not an array is also treated as an
// empty collection; the condition is logged and reported by Store.LoadIssue,
// never returned as an error. Records are accepted as-is: missing fields take
// their zero value and unknown fields are carried through to the next save.
//
// # Saving
//
// Every mutation (Add, Toggle, Delete) rewrites the whole file, even when
// nothing changed. The file is written to a temporary sibling and renamed
// into place, so the target always holds a complete array. A failed save is
// returned as a *SaveError; the in-memory mutation is kept.
//
// # File Format
//
// When writing the data file, the package uses:
//   - 2-space indentation
//   - Trailing newline
//   - Stable key order: id, title, completed, created_at, then unknown keys sorted
//   - No escaping of non-ASCII or HTML characters
//
// A Store is not safe for concurrent use.
package todo
