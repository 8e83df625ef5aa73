package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store is a small persisted key/value map, the local-storage analogue.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(keys ...string) error
}

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

// FileStore keeps every key in one JSON document and rewrites it on change.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

const (
	stateFile     = "session.json"
	corruptSuffix = ".corrupt"
)

// OpenFileStore loads the state file under dir, creating dir if needed. A
// missing file is an empty store. An undecodable file is moved aside to
// session.json.corrupt and the store starts empty, which reads as signed out.
func OpenFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	s := &FileStore{path: filepath.Join(dir, stateFile), values: map[string]string{}}

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read state file: %w", err)
	}

	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		backup := s.path + corruptSuffix
		slog.Warn("state file unreadable, starting signed out", "path", s.path, "backup", backup, "error", err)
		if renameErr := os.Rename(s.path, backup); renameErr != nil {
			slog.Warn("state file not moved aside", "path", s.path, "error", renameErr)
		}
		s.values = map[string]string{}
		return s, nil
	}
	if s.values == nil {
		s.values = map[string]string{}
	}

	return s, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.flush()
}

func (s *FileStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.values, k)
	}
	return s.flush()
}

// flush writes through a temp file so a crash never leaves half a document.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
