// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package continuation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/siemens/reachdig/types"
)

// FileName is the name of the continuation file inside the output directory.
const FileName = "continue.json"

// Counters are the progress counters of a single source file.
type Counters struct {
	Tested  int    `json:"tested"`
	Up      int    `json:"up"`
	Down    int    `json:"down"`
	Invalid int    `json:"invalid"`
	Last    string `json:"last,omitempty"` // most recently advanced subject
}

// Store keeps the progress counters of all source files. Stores are safe for
// concurrent use, but only a single coordinator is supposed to advance them.
type Store struct {
	path string

	mu       sync.Mutex
	counters map[string]Counters // source file -> counters
}

// Open returns the Store persisted at the specified path. A missing file
// results in an empty Store.
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		counters: map[string]Counters{},
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("cannot read continuation file: %w", err)
	}
	if err := json.Unmarshal(data, &s.counters); err != nil {
		return nil, fmt.Errorf("cannot parse continuation file %s: %w", path, err)
	}
	if s.counters == nil {
		s.counters = map[string]Counters{}
	}
	return s, nil
}

// Restore returns the counters of the specified source file.
func (s *Store) Restore(sourceFile string) Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[sourceFile]
}

// Last returns the most recently advanced subject of the specified source
// file.
func (s *Store) Last(sourceFile string) string {
	return s.Restore(sourceFile).Last
}

// Position returns the index into the specified lines of a source file to
// resume testing from. If the stored pass covered all lines and ended with
// the current last line, the counters get reset and Position returns 0.
func (s *Store) Position(sourceFile string, lines []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters[sourceFile]
	if len(lines) > 0 && c.Tested == len(lines) && c.Last == lines[len(lines)-1] {
		delete(s.counters, sourceFile)
		return 0
	}
	if c.Tested > len(lines) {
		return len(lines)
	}
	return c.Tested
}

// Advance accounts for the next subject of the specified source file. Subjects
// skipped without any test are advanced with status None.
func (s *Store) Advance(sourceFile, subject string, status types.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters[sourceFile]
	c.Tested++
	switch status {
	case types.Up:
		c.Up++
	case types.Down:
		c.Down++
	case types.Invalid:
		c.Invalid++
	}
	c.Last = subject
	s.counters[sourceFile] = c
}

// Reset removes the counters of the specified source file.
func (s *Store) Reset(sourceFile string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, sourceFile)
}

// Save atomically writes all counters to the continuation file.
func (s *Store) Save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.counters, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("cannot write continuation file: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cannot write continuation file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("cannot write continuation file: %w", err)
	}
	return nil
}
