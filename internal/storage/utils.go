package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/maruel/ksid"
)

// GenerateID returns a random UUID string, used for projects and tree nodes.
func GenerateID() string {
	return uuid.NewString()
}

// GenerateSortableID returns a time-sortable id, used for version entries.
func GenerateSortableID() string {
	return ksid.NewID().String()
}

var errUnsafeName = errors.New("must be usable as a single file name")

// ValidateFileID checks that id can be used as a file or directory name.
func ValidateFileID(id string) error {
	return validation.Validate(id,
		validation.Required,
		validation.By(func(v any) error {
			s, _ := v.(string)
			if s == "." || s == ".." || strings.ContainsAny(s, `/\`) || s != filepath.Base(s) || strings.ContainsRune(s, 0) {
				return errUnsafeName
			}
			return nil
		}),
	)
}

// EnsureDir creates dir and its parents.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return "", err
	}
	return dir, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// over path, so readers never observe a truncated file.
func WriteFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		return errors.Join(fmt.Errorf("failed to write %s: %w", path, err), f.Close(), os.Remove(tmp))
	}
	if err := f.Close(); err != nil {
		return errors.Join(fmt.Errorf("failed to close temp file: %w", err), os.Remove(tmp))
	}
	if err := os.Chmod(tmp, 0o644); err != nil { //nolint:gosec // G302: 0o644 is intentional for user documents
		return errors.Join(fmt.Errorf("failed to chmod temp file: %w", err), os.Remove(tmp))
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Join(fmt.Errorf("failed to rename %s: %w", path, err), os.Remove(tmp))
	}
	return nil
}
