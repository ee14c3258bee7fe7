package jsondb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maruel/manuscript/internal/storage"
)

// Table is a JSON array of rows persisted in a single file.
type Table[T any] struct {
	path string
}

// NewTable returns a table backed by path, creating the directory and an empty
// array file when missing.
func NewTable[T any](path string) (*Table[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	t := &Table[T]{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := t.Replace(nil); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Path returns the backing file path.
func (t *Table[T]) Path() string {
	return t.path
}

// Load reads all rows. A missing or empty file has no rows.
func (t *Table[T]) Load() ([]T, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &storage.ParseError{Path: t.path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, &storage.ParseError{Path: t.path, Err: err}
	}
	return rows, nil
}

// Replace rewrites the file with rows.
func (t *Table[T]) Replace(rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	data, err := marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal rows: %w", err)
	}
	return storage.WriteFileAtomic(t.path, data)
}

// marshal encodes v with two-space indentation and without HTML escaping so
// CJK text and punctuation stay readable in the file.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
