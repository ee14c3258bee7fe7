package jsondb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maruel/manuscript/internal/storage"
)

// Document is a single JSON value persisted in a file.
type Document[T any] struct {
	path string
}

// NewDocument returns a document backed by path, creating its directory.
func NewDocument[T any](path string) (*Document[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return &Document[T]{path: path}, nil
}

// Path returns the backing file path.
func (d *Document[T]) Path() string {
	return d.path
}

// Exists reports whether the file exists.
func (d *Document[T]) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// Load decodes the file. A missing file is a *storage.ParseError too.
func (d *Document[T]) Load() (T, error) {
	var v T
	data, err := os.ReadFile(d.path)
	if err != nil {
		return v, &storage.ParseError{Path: d.path, Err: err}
	}
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, &storage.ParseError{Path: d.path, Err: err}
	}
	return v, nil
}

// Save rewrites the file with v.
func (d *Document[T]) Save(v T) error {
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(d.path), err)
	}
	return storage.WriteFileAtomic(d.path, data)
}

// Seed writes v only when the file does not exist yet.
func (d *Document[T]) Seed(v T) error {
	if _, err := os.Stat(d.path); !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return d.Save(v)
}
