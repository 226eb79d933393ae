package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidvella/xsort/store"
)

// Ext is the file extension of a run on disk.
const Ext = ".run"

// Storage keeps each run as a text file in a single directory.
type Storage struct {
	dir string
}

// NewLocalStorage returns a Storage rooted at dir, creating it if needed.
func NewLocalStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", dir, err)
	}
	return &Storage{dir: dir}, nil
}

// Dir returns the directory holding the runs.
func (s *Storage) Dir() string {
	return s.dir
}

// Path returns the file that holds id.
func (s *Storage) Path(id store.RunID) string {
	return filepath.Join(s.dir, string(id)+Ext)
}

func (s *Storage) Create(_ context.Context, id store.RunID) (io.WriteCloser, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(s.Path(id), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrRunExists, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", id, err)
	}
	return file, nil
}

func (s *Storage) Open(_ context.Context, id store.RunID) (io.ReadCloser, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	file, err := os.Open(s.Path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", id, err)
	}
	return file, nil
}

func (s *Storage) Delete(_ context.Context, id store.RunID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	err := os.Remove(s.Path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s: %w", id, err)
	}
	return nil
}

// List returns the ids of all runs in the directory.
func (s *Storage) List(_ context.Context) ([]store.RunID, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var ids []store.RunID
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Ext) {
			continue
		}
		ids = append(ids, store.RunID(strings.TrimSuffix(entry.Name(), Ext)))
	}
	return ids, nil
}
