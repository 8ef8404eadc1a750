// Package state persists the most recent monitoring result as a simple
// file snapshot so the status command can report between invocations.
// No transactional guarantees: each save overwrites the previous file.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/theadarsh-ai/WBSMonitor/internal/monitor"
)

const stateDir = ".wbsmonitor"
const stateFile = "result.json"

// Store reads and writes result snapshots under a base directory.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store rooted at baseDir (typically the working
// directory).
func NewStore(baseDir string) *Store {
	return &Store{path: filepath.Join(baseDir, stateDir, stateFile)}
}

// Save writes the result snapshot, creating the state directory if
// needed.
func (s *Store) Save(result *monitor.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// Load reads the last saved result snapshot.
func (s *Store) Load() (*monitor.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read result snapshot: %w", err)
	}
	var result monitor.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse result snapshot: %w", err)
	}
	return &result, nil
}

// Exists reports whether a result snapshot has been saved.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clean removes the state directory.
func (s *Store) Clean() error {
	return os.RemoveAll(filepath.Dir(s.path))
}
