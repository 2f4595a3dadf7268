// Package state persists the per-task installed marker as flat files
// under the state directory.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// installedMarker is the only content that counts as installed.
const installedMarker = "installed"

// IOError wraps a failure to read or write a task's state file.
type IOError struct {
	Task string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("state file for task %s: %v", e.Task, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Store reads and writes single-bit installed markers keyed by task
// name.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the state file path for the named task.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".state")
}

// IsInstalled reports whether the named task's state file exists with
// the installed marker. A missing file simply means not installed.
func (s *Store) IsInstalled(name string) (bool, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &IOError{Task: name, Err: err}
	}
	return strings.TrimSpace(string(data)) == installedMarker, nil
}

// MarkInstalled records the named task as installed.
func (s *Store) MarkInstalled(name string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &IOError{Task: name, Err: err}
	}
	if err := os.WriteFile(s.Path(name), []byte(installedMarker), 0644); err != nil {
		return &IOError{Task: name, Err: err}
	}
	return nil
}

// ClearInstalled removes the named task's state file. Clearing an
// absent marker is not an error.
func (s *Store) ClearInstalled(name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return &IOError{Task: name, Err: err}
	}
	return nil
}
