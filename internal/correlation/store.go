package correlation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the contextKey -> Record table across restarts.
type Store interface {
	Load() (map[string]Record, error)
	Save(map[string]Record) error
}

// FileStore keeps the table as one JSON file. Writes go through a temp file
// and rename so a crash mid-write never corrupts the previous snapshot.
type FileStore struct {
	path string
}

// NewFileStore creates a file store, creating parent directories as needed.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("correlation: store path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("correlation: create store dir: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the persisted table. A missing file yields an empty table.
func (s *FileStore) Load() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Record{}, nil
		}
		return nil, fmt.Errorf("correlation: read store: %w", err)
	}

	table := make(map[string]Record)
	if len(data) == 0 {
		return table, nil
	}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("correlation: parse store: %w", err)
	}
	return table, nil
}

// Save writes a full snapshot of the table.
func (s *FileStore) Save(table map[string]Record) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("correlation: marshal store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("correlation: write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("correlation: replace store: %w", err)
	}
	return nil
}
