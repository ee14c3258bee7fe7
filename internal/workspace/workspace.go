// Package workspace opens a project directory and exposes the operations an
// editor performs on it: tree edits, chapter reads and writes, snapshots,
// restores and word count statistics.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/maruel/manuscript/internal/config"
	"github.com/maruel/manuscript/internal/storage"
	"github.com/maruel/manuscript/internal/storage/git"
	"github.com/maruel/manuscript/internal/storage/knowledge"
	"github.com/maruel/manuscript/internal/storage/project"
	"github.com/maruel/manuscript/internal/storage/stats"
	"github.com/maruel/manuscript/internal/storage/version"
	"github.com/maruel/manuscript/internal/textmetrics"
	"github.com/maruel/manuscript/internal/tree"
)

// FirstChapterTitle is the title of the chapter created in an empty project.
const FirstChapterTitle = "第一章"

var errNotChapter = errors.New("not a chapter")

// Options tunes Open.
type Options struct {
	// Clock drives every timestamp. Defaults to time.Now.
	Clock storage.Clock
}

// Workspace is an opened project.
//
// It is not safe for concurrent use; callers serialize access.
type Workspace struct {
	dir       string
	cfg       config.Config
	clock     storage.Clock
	projects  *project.Store
	versions  *version.Store
	stats     *stats.Store
	knowledge *knowledge.Store
	project   *project.Project
}

// Open opens the project in dir, creating it when dir holds none.
//
// A project.json that exists but cannot be parsed is returned as a
// *storage.ParseError.
func Open(dir string, cfg *config.Config, opts Options) (*Workspace, error) {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	if _, err := storage.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}
	projects, err := project.NewStore(dir, project.Options{ChapterExt: cfg.ChapterExt, Clock: opts.Clock})
	if err != nil {
		return nil, err
	}
	var mirror *git.Repo
	if cfg.GitMirror {
		if mirror, err = git.Open(filepath.Join(dir, version.DirName), git.Author{}); err != nil {
			slog.Warn("Git mirror disabled", "err", err)
			mirror = nil
		}
	}
	versions, err := version.NewStore(dir, version.Options{Clock: opts.Clock, Mirror: mirror})
	if err != nil {
		return nil, err
	}
	st, err := stats.NewStore(dir)
	if err != nil {
		return nil, err
	}
	kb, err := knowledge.NewStore(dir)
	if err != nil {
		return nil, err
	}
	var p *project.Project
	if projects.Exists() {
		p, err = projects.Load()
	} else {
		p, err = projects.CreateDefault(cfg.DefaultProjectName)
	}
	if err != nil {
		return nil, err
	}
	return &Workspace{
		dir:       dir,
		cfg:       *cfg,
		clock:     opts.Clock,
		projects:  projects,
		versions:  versions,
		stats:     st,
		knowledge: kb,
		project:   p,
	}, nil
}

// Dir returns the project directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Config returns the configuration the workspace was opened with.
func (w *Workspace) Config() config.Config {
	return w.cfg
}

// Project returns the current project. It must not be modified.
func (w *Workspace) Project() *project.Project {
	return w.project
}

// Tree returns the current chapter tree. It must not be modified.
func (w *Workspace) Tree() *tree.Tree {
	return w.project.Root
}

// Versions returns the snapshot store.
func (w *Workspace) Versions() *version.Store {
	return w.versions
}

// Stats returns the word count history store.
func (w *Workspace) Stats() *stats.Store {
	return w.stats
}

// Knowledge returns the knowledge base store.
func (w *Workspace) Knowledge() *knowledge.Store {
	return w.knowledge
}

// Reload rereads project.json, picking up edits made by another process.
func (w *Workspace) Reload() error {
	p, err := w.projects.Load()
	if err != nil {
		return err
	}
	w.project = p
	return nil
}

// mutate applies fn to a copy of the tree and saves it. The in-memory project
// only changes once the save succeeded.
func (w *Workspace) mutate(fn func(t *tree.Tree) (bool, error)) (bool, error) {
	t := w.project.Root.Clone()
	changed, err := fn(t)
	if err != nil || !changed {
		return false, err
	}
	p := *w.project
	p.Root = t
	if err := w.projects.Save(&p); err != nil {
		return false, err
	}
	w.project = &p
	return true, nil
}

// AddNode adds a folder or chapter under parentID ("" is the root).
func (w *Workspace) AddNode(parentID, title string, isFolder bool) (*tree.Node, error) {
	var n *tree.Node
	_, err := w.mutate(func(t *tree.Tree) (bool, error) {
		var err error
		n, err = t.Add(parentID, title, isFolder)
		return err == nil, err
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// RenameNode retitles a node. An empty title keeps the current one.
func (w *Workspace) RenameNode(id, title string) error {
	_, err := w.mutate(func(t *tree.Tree) (bool, error) {
		return title != "", t.Rename(id, title)
	})
	return err
}

// DeleteNode removes a node with its subtree and the text of every removed
// chapter. Their snapshots are kept.
//
// It returns the removed chapter ids.
func (w *Workspace) DeleteNode(id string) ([]string, error) {
	var removed []string
	_, err := w.mutate(func(t *tree.Tree) (bool, error) {
		var err error
		removed, err = t.Delete(id)
		return err == nil, err
	})
	if err != nil {
		return nil, err
	}
	var errs []error
	for _, cid := range removed {
		if err := w.projects.DeleteChapter(cid); err != nil {
			errs = append(errs, err)
		}
	}
	return removed, errors.Join(errs...)
}

// MoveNode swaps a node with the sibling delta positions away. It reports
// whether the order changed.
func (w *Workspace) MoveNode(id string, delta int) (bool, error) {
	return w.mutate(func(t *tree.Tree) (bool, error) {
		return t.Move(id, delta)
	})
}

// MoveNodeTo moves a node under parentID at position idx.
func (w *Workspace) MoveNodeTo(id, parentID string, idx int) error {
	_, err := w.mutate(func(t *tree.Tree) (bool, error) {
		return true, t.MoveTo(id, parentID, idx)
	})
	return err
}

// EnsureFirstChapter adds a first chapter under the root when the tree has none
// and returns the first chapter.
func (w *Workspace) EnsureFirstChapter() (*tree.Node, error) {
	if n, ok := w.Tree().FirstLeaf(); ok {
		return n, nil
	}
	return w.AddNode(tree.RootID, FirstChapterTitle, false)
}

// ReadChapter returns the chapter's text, "" when never written.
func (w *Workspace) ReadChapter(id string) string {
	return w.projects.ReadChapter(id)
}

// WriteChapter replaces the chapter's text.
func (w *Workspace) WriteChapter(id, text string) error {
	return w.projects.WriteChapter(id, text)
}

// Snapshot stores the chapter's current text as a new version.
func (w *Workspace) Snapshot(ctx context.Context, id string) (version.Entry, error) {
	return w.SnapshotText(ctx, id, w.ReadChapter(id))
}

// SnapshotText stores text as a new version of the chapter.
func (w *Workspace) SnapshotText(ctx context.Context, id, text string) (version.Entry, error) {
	return w.versions.Snapshot(ctx, id, text, textmetrics.WordCount(text))
}

// FindVersion returns the snapshot with the given id.
func (w *Workspace) FindVersion(id string) (version.Entry, bool) {
	for _, e := range w.versions.All() {
		if e.ID == id {
			return e, true
		}
	}
	return version.Entry{}, false
}

// Restore writes the snapshot's text back as its chapter's content and records
// the restored text as a new snapshot.
func (w *Workspace) Restore(ctx context.Context, e version.Entry) (version.Entry, string, error) {
	n, ok := w.Tree().Find(e.ChapterID)
	if !ok || n.IsFolder {
		return version.Entry{}, "", fmt.Errorf("cannot restore version %s: %w: %q", e.ID, errNotChapter, e.ChapterID)
	}
	text := w.versions.Read(ctx, e)
	if err := w.WriteChapter(e.ChapterID, text); err != nil {
		return version.Entry{}, "", err
	}
	ne, err := w.SnapshotText(ctx, e.ChapterID, text)
	if err != nil {
		return version.Entry{}, "", err
	}
	return ne, text, nil
}

// RecomputeTotals returns the word count of every chapter of t, reading text
// with read.
func RecomputeTotals(t *tree.Tree, read func(id string) string) map[string]int {
	out := map[string]int{}
	for n := range t.Leaves() {
		out[n.ID] = textmetrics.WordCount(read(n.ID))
	}
	return out
}

// Totals returns the per chapter word counts and their sum.
func (w *Workspace) Totals() (map[string]int, int) {
	counts := RecomputeTotals(w.Tree(), w.ReadChapter)
	return counts, textmetrics.Sum(counts)
}

// RecordTotal appends total to the word count history, stamped now.
func (w *Workspace) RecordTotal(total int) error {
	return w.stats.AppendTotal(total, storage.ToTime(w.clock.Now()))
}

// IsNotChapter reports whether err means an id does not name a chapter.
func IsNotChapter(err error) bool {
	return errors.Is(err, errNotChapter)
}
