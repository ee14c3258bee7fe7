package project

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maruel/manuscript/internal/storage"
	"github.com/maruel/manuscript/internal/storage/jsondb"
	"github.com/maruel/manuscript/internal/tree"
)

const (
	// MetaFilename is the project metadata file name.
	MetaFilename = "project.json"
	// ChaptersDirname is the directory holding chapter bodies.
	ChaptersDirname = "chapters"
	// DefaultChapterExt is the chapter file extension when none is configured.
	DefaultChapterExt = ".md"
)

// Options configures a Store.
type Options struct {
	// ChapterExt is the chapter file extension including the dot.
	ChapterExt string
	// Clock stamps created_at and updated_at. Defaults to time.Now.
	Clock storage.Clock
}

// Store is the single source of truth for project metadata and chapter bodies.
//
// Tree structure and chapter text are stored separately: saving the project
// never touches chapter files and writing a chapter never rewrites project.json.
type Store struct {
	dir         string
	chaptersDir string
	ext         string
	clock       storage.Clock
	meta        *jsondb.Document[Record]
}

// NewStore opens the project stored in dir, creating the chapters directory.
func NewStore(dir string, opts Options) (*Store, error) {
	chaptersDir, err := storage.EnsureDir(filepath.Join(dir, ChaptersDirname))
	if err != nil {
		return nil, fmt.Errorf("failed to create chapters directory: %w", err)
	}
	meta, err := jsondb.NewDocument[Record](filepath.Join(dir, MetaFilename))
	if err != nil {
		return nil, err
	}
	ext := opts.ChapterExt
	if ext == "" {
		ext = DefaultChapterExt
	}
	return &Store{dir: dir, chaptersDir: chaptersDir, ext: ext, clock: opts.Clock, meta: meta}, nil
}

// Dir returns the project directory.
func (s *Store) Dir() string {
	return s.dir
}

// Exists reports whether project metadata has been persisted.
func (s *Store) Exists() bool {
	return s.meta.Exists()
}

// CreateDefault creates, persists and returns a new empty project.
func (s *Store) CreateDefault(title string) (*Project, error) {
	now := storage.ToTime(s.clock.Now())
	p := &Project{
		ID:        storage.GenerateID(),
		Title:     title,
		Root:      tree.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads project.json.
//
// A missing or malformed file is a *storage.ParseError; there is no fallback.
func (s *Store) Load() (*Project, error) {
	rec, err := s.meta.Load()
	if err != nil {
		return nil, err
	}
	p, err := FromRecord(rec)
	if err != nil {
		return nil, &storage.ParseError{Path: s.meta.Path(), Err: err}
	}
	return p, nil
}

// Save stamps p.UpdatedAt and rewrites the whole project.json.
func (s *Store) Save(p *Project) error {
	p.UpdatedAt = storage.ToTime(s.clock.Now())
	if err := s.meta.Save(p.Record()); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// ChapterPath returns the file holding the chapter's text.
func (s *Store) ChapterPath(id string) string {
	return filepath.Join(s.chaptersDir, id+s.ext)
}

// ReadChapter returns the chapter's text.
//
// A chapter that was never written reads as "". Read failures are logged and
// also read as "".
func (s *Store) ReadChapter(id string) string {
	if err := storage.ValidateFileID(id); err != nil {
		slog.Warn("Invalid chapter id", "id", id, "err", err)
		return ""
	}
	data, err := os.ReadFile(s.ChapterPath(id))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to read chapter", "id", id, "err", err)
		}
		return ""
	}
	return string(data)
}

// WriteChapter overwrites the chapter's text. Empty text is allowed.
func (s *Store) WriteChapter(id, text string) error {
	if err := storage.ValidateFileID(id); err != nil {
		return fmt.Errorf("invalid chapter id %q: %w", id, err)
	}
	if err := storage.WriteFileAtomic(s.ChapterPath(id), []byte(text)); err != nil {
		return fmt.Errorf("failed to write chapter %s: %w", id, err)
	}
	return nil
}

// DeleteChapter removes the chapter's text file. A missing file is not an error.
func (s *Store) DeleteChapter(id string) error {
	if err := storage.ValidateFileID(id); err != nil {
		return fmt.Errorf("invalid chapter id %q: %w", id, err)
	}
	if err := os.Remove(s.ChapterPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete chapter %s: %w", id, err)
	}
	return nil
}
