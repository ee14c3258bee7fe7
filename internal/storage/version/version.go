// Package version keeps an append-only log of chapter snapshots.
//
// Each snapshot is a blob file under versions/<chapter_id>/ plus a metadata
// row in versions/versions.json. Rows are never modified once written.
package version

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/maruel/manuscript/internal/storage"
	"github.com/maruel/manuscript/internal/storage/git"
	"github.com/maruel/manuscript/internal/storage/jsondb"
)

const (
	// DirName is the versions directory inside a project.
	DirName = "versions"
	// IndexFilename is the metadata index inside DirName.
	IndexFilename = "versions.json"

	blobExt = ".md"
)

var errNoMirror = errors.New("git mirror is not enabled")

// Entry describes one snapshot.
type Entry struct {
	ID        string       `json:"id" jsonschema:"description=Snapshot identifier"`
	ChapterID string       `json:"chapter_id" jsonschema:"description=Chapter the snapshot was taken from; not validated against the tree"`
	CreatedAt storage.Time `json:"created_at" jsonschema:"description=Snapshot time (local wall clock)"`
	RelPath   string       `json:"rel_path" jsonschema:"description=Blob location relative to the versions directory"`
	WordCount int          `json:"word_count" jsonschema:"description=Word count at snapshot time"`
}

// Options configures a Store.
type Options struct {
	// Clock stamps created_at. Defaults to time.Now.
	Clock storage.Clock
	// Mirror, when set, receives a commit for each snapshot.
	Mirror *git.Repo
}

// Store is the snapshot log of a project.
type Store struct {
	dir    string
	clock  storage.Clock
	index  *jsondb.Table[Entry]
	mirror *git.Repo
}

// NewStore opens the versions directory of the project in projectDir.
func NewStore(projectDir string, opts Options) (*Store, error) {
	dir, err := storage.EnsureDir(filepath.Join(projectDir, DirName))
	if err != nil {
		return nil, fmt.Errorf("failed to create versions directory: %w", err)
	}
	index, err := jsondb.NewTable[Entry](filepath.Join(dir, IndexFilename))
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, clock: opts.Clock, index: index, mirror: opts.Mirror}, nil
}

// Dir returns the versions directory.
func (s *Store) Dir() string {
	return s.dir
}

// Snapshot stores content as a new version of the chapter.
//
// The blob is written before the index row; a crash in between leaves an
// orphan blob, which is harmless.
func (s *Store) Snapshot(ctx context.Context, chapterID, content string, wordCount int) (Entry, error) {
	if err := storage.ValidateFileID(chapterID); err != nil {
		return Entry{}, fmt.Errorf("invalid chapter id %q: %w", chapterID, err)
	}
	e := Entry{
		ID:        storage.GenerateSortableID(),
		ChapterID: chapterID,
		CreatedAt: storage.ToTime(s.clock.Now()),
		WordCount: max(wordCount, 0),
	}
	e.RelPath = path.Join(chapterID, e.CreatedAt.FileSafe()+"_"+e.ID+blobExt)

	if _, err := storage.EnsureDir(filepath.Join(s.dir, chapterID)); err != nil {
		return Entry{}, fmt.Errorf("failed to create chapter versions directory: %w", err)
	}
	if err := storage.WriteFileAtomic(s.blobPath(e), []byte(content)); err != nil {
		return Entry{}, fmt.Errorf("failed to write snapshot: %w", err)
	}
	rows := s.load()
	rows = append(rows, e)
	if err := s.index.Replace(rows); err != nil {
		return Entry{}, fmt.Errorf("failed to update version index: %w", err)
	}
	s.commit(ctx, e)
	return e, nil
}

// List returns the chapter's snapshots, most recent first.
//
// Snapshots with the same timestamp keep their index order.
func (s *Store) List(chapterID string) []Entry {
	var out []Entry
	for _, e := range s.load() {
		if e.ChapterID == chapterID {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		return strings.Compare(string(b.CreatedAt), string(a.CreatedAt))
	})
	return out
}

// Latest returns the chapter's most recent snapshot.
func (s *Store) Latest(chapterID string) (Entry, bool) {
	l := s.List(chapterID)
	if len(l) == 0 {
		return Entry{}, false
	}
	return l[0], true
}

// All returns the whole index in insertion order.
func (s *Store) All() []Entry {
	return s.load()
}

// Read returns the snapshot's content, or "" when the blob is gone.
//
// A missing blob is recovered from the mirror's HEAD when a mirror is configured.
func (s *Store) Read(ctx context.Context, e Entry) string {
	p := s.blobPath(e)
	if !s.contains(p) {
		slog.WarnContext(ctx, "Version blob outside versions directory", "id", e.ID, "rel_path", e.RelPath)
		return ""
	}
	data, err := os.ReadFile(p)
	if err == nil {
		return string(data)
	}
	if !errors.Is(err, os.ErrNotExist) {
		slog.WarnContext(ctx, "Failed to read version blob", "id", e.ID, "err", err)
		return ""
	}
	if s.mirror == nil {
		return ""
	}
	data, err = s.mirror.FileAtCommit(ctx, "HEAD", e.RelPath)
	if err != nil {
		slog.DebugContext(ctx, "Version blob not in mirror", "id", e.ID, "err", err)
		return ""
	}
	slog.InfoContext(ctx, "Recovered version blob from mirror", "id", e.ID)
	return string(data)
}

// ReadAt returns the snapshot's content as committed in the mirror at rev, a
// commit hash or "HEAD".
func (s *Store) ReadAt(ctx context.Context, e Entry, rev string) (string, error) {
	if s.mirror == nil {
		return "", errNoMirror
	}
	if !s.contains(s.blobPath(e)) {
		return "", fmt.Errorf("version %s: blob outside versions directory", e.ID)
	}
	data, err := s.mirror.FileAtCommit(ctx, rev, e.RelPath)
	if err != nil {
		return "", fmt.Errorf("version %s at %s: %w", e.ID, rev, err)
	}
	return string(data), nil
}

// CommitCount returns the number of mirror commits, 0 without a mirror.
func (s *Store) CommitCount(ctx context.Context) (int, error) {
	if s.mirror == nil {
		return 0, nil
	}
	return s.mirror.CommitCount(ctx)
}

// History lists mirror commits for the chapter, newest first. It is empty when
// no mirror is configured.
func (s *Store) History(ctx context.Context, chapterID string, n int) ([]*git.Commit, error) {
	if s.mirror == nil {
		return nil, nil
	}
	return s.mirror.History(ctx, chapterID, n)
}

// load reads the index. An unreadable index is an empty history: editing must
// never be blocked by broken history data.
func (s *Store) load() []Entry {
	rows, err := s.index.Load()
	if err != nil {
		slog.Warn("Version index unreadable, treating history as empty", "path", s.index.Path(), "err", err)
		return nil
	}
	return rows
}

func (s *Store) blobPath(e Entry) string {
	return filepath.Join(s.dir, filepath.FromSlash(e.RelPath))
}

func (s *Store) contains(p string) bool {
	rel, err := filepath.Rel(s.dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// commit mirrors the snapshot. Failures are logged only.
func (s *Store) commit(ctx context.Context, e Entry) {
	if s.mirror == nil {
		return
	}
	msg := fmt.Sprintf("snapshot %s\n\nchapter: %s\nwords: %d\nat: %s", e.ID, e.ChapterID, e.WordCount, e.CreatedAt)
	if err := s.mirror.Commit(ctx, msg, []string{e.RelPath, IndexFilename}); err != nil {
		slog.WarnContext(ctx, "Failed to mirror snapshot", "id", e.ID, "err", err)
	}
}
