// Package storage keeps uploaded load documents on disk, one directory per
// load, under a single document root.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"freightdesk/pkg/apierror"
)

type Storage struct {
	validator *PathValidator
}

func New(root string) (*Storage, error) {
	validator, err := NewPathValidator(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(validator.RootAbs(), 0o755); err != nil {
		return nil, fmt.Errorf("create document root: %w", err)
	}

	return &Storage{validator: validator}, nil
}

func (s *Storage) Root() string {
	return s.validator.RootAbs()
}

// Key is the storage key of a document: <loadID>/<docID>-<name>.
func Key(loadID string, docID string, name string) string {
	return path.Join(loadID, docID+"-"+name)
}

// Create opens a new document file for reading and writing. The file is
// truncated if it already exists.
func (s *Storage) Create(key string) (*os.File, error) {
	resolved, err := s.validator.Resolve(key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return nil, fmt.Errorf("create load directory: %w", err)
	}

	file, err := os.OpenFile(resolved, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create document %q: %w", key, err)
	}

	return file, nil
}

func (s *Storage) Open(key string) (*os.File, fs.FileInfo, error) {
	resolved, err := s.validator.Resolve(key)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, apierror.New("NOT_FOUND", "Document file not found", key, http.StatusNotFound)
		}
		return nil, nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	if info.IsDir() {
		_ = file.Close()
		return nil, nil, apierror.New("BAD_REQUEST", "document key points to a directory", key, http.StatusBadRequest)
	}

	return file, info, nil
}

func (s *Storage) Remove(key string) error {
	resolved, err := s.validator.Resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(resolved); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	return nil
}

// RemoveLoad deletes every document stored for a load.
func (s *Storage) RemoveLoad(loadID string) error {
	resolved, err := s.validator.Resolve(loadID)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(resolved); err != nil {
		return fmt.Errorf("remove documents of %q: %w", loadID, err)
	}

	return nil
}
