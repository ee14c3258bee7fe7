package workspace

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/maruel/manuscript/internal/config"
	"github.com/maruel/manuscript/internal/storage"
	"github.com/maruel/manuscript/internal/storage/project"
	"github.com/maruel/manuscript/internal/storage/version"
	"github.com/maruel/manuscript/internal/tree"
)

func fakeClock() storage.Clock {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func setupWorkspace(t *testing.T) *Workspace {
	t.Helper()
	w, err := Open(t.TempDir(), nil, Options{Clock: fakeClock()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return w
}

func TestOpen(t *testing.T) {
	t.Run("creates and reopens", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.Default()
		cfg.DefaultProjectName = "长夜"
		w, err := Open(dir, &cfg, Options{Clock: fakeClock()})
		if err != nil {
			t.Fatal(err)
		}
		if w.Project().Title != "长夜" {
			t.Errorf("Title = %q", w.Project().Title)
		}
		first, err := w.EnsureFirstChapter()
		if err != nil {
			t.Fatal(err)
		}
		if first.Title != FirstChapterTitle {
			t.Errorf("first chapter = %+v", first)
		}
		again, err := w.EnsureFirstChapter()
		if err != nil || again.ID != first.ID {
			t.Errorf("EnsureFirstChapter() again = %+v, %v", again, err)
		}
		w2, err := Open(dir, &cfg, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if w2.Project().ID != w.Project().ID || w2.Tree().Len() != 1 {
			t.Errorf("reopened project = %+v", w2.Project())
		}
	})

	t.Run("corrupt project", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, project.MetaFilename), []byte("{"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Open(dir, nil, Options{}); !storage.IsParseError(err) {
			t.Errorf("Open() = %v, want ParseError", err)
		}
	})

	t.Run("git mirror", func(t *testing.T) {
		cfg := config.Default()
		cfg.GitMirror = true
		w, err := Open(t.TempDir(), &cfg, Options{Clock: fakeClock()})
		if err != nil {
			t.Fatal(err)
		}
		n, err := w.AddNode("", "c", false)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.WriteChapter(n.ID, "abc"); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Snapshot(t.Context(), n.ID); err != nil {
			t.Fatal(err)
		}
		h, err := w.Versions().History(t.Context(), n.ID, 0)
		if err != nil || len(h) != 1 {
			t.Errorf("History() = %v, %v", h, err)
		}
	})
}

func TestTreeEdits(t *testing.T) {
	w := setupWorkspace(t)
	folder, err := w.AddNode("", "", true)
	if err != nil {
		t.Fatal(err)
	}
	a, err := w.AddNode(folder.ID, "A", false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := w.AddNode(folder.ID, "B", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.AddNode(a.ID, "x", false); err == nil {
		t.Error("AddNode under a chapter succeeded")
	}
	if err := w.RenameNode(a.ID, "Alpha"); err != nil {
		t.Fatal(err)
	}
	if err := w.RenameNode(a.ID, ""); err != nil {
		t.Fatal(err)
	}
	if err := w.RenameNode("missing", "x"); !tree.IsNotFound(err) {
		t.Errorf("RenameNode(missing) = %v", err)
	}
	moved, err := w.MoveNode(b.ID, -1)
	if err != nil || !moved {
		t.Fatalf("MoveNode() = %v, %v", moved, err)
	}
	if moved, err := w.MoveNode(b.ID, -1); err != nil || moved {
		t.Errorf("MoveNode() at edge = %v, %v", moved, err)
	}
	if err := w.MoveNodeTo(a.ID, "", 0); err != nil {
		t.Fatal(err)
	}

	// Everything above must have been persisted.
	w2, err := Open(w.Dir(), nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := tree.Record{ID: tree.RootID, Title: tree.RootTitle, IsFolder: true, Children: []tree.Record{
		{ID: a.ID, Title: "Alpha", Children: []tree.Record{}},
		{ID: folder.ID, Title: "新文件夹", IsFolder: true, Children: []tree.Record{
			{ID: b.ID, Title: "B", Children: []tree.Record{}},
		}},
	}}
	if got := w2.Tree().Record(); !reflect.DeepEqual(got, want) {
		t.Errorf("persisted tree = %+v, want %+v", got, want)
	}
	if w2.Project().UpdatedAt == w2.Project().CreatedAt {
		t.Error("updated_at not refreshed")
	}
}

func TestFailedEditKeepsTree(t *testing.T) {
	w := setupWorkspace(t)
	f, err := w.AddNode("", "f", true)
	if err != nil {
		t.Fatal(err)
	}
	before := w.Tree().Record()
	if err := w.MoveNodeTo(f.ID, f.ID, 0); err == nil {
		t.Fatal("MoveNodeTo(self) succeeded")
	}
	if _, err := w.DeleteNode(tree.RootID); err == nil {
		t.Fatal("DeleteNode(root) succeeded")
	}
	if got := w.Tree().Record(); !reflect.DeepEqual(got, before) {
		t.Errorf("tree changed after failed edits: %+v", got)
	}
}

func TestDeleteFolder(t *testing.T) {
	w := setupWorkspace(t)
	f, err := w.AddNode("", "卷一", true)
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, title := range []string{"一", "二"} {
		n, err := w.AddNode(f.ID, title, false)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.WriteChapter(n.ID, "text "+title); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Snapshot(t.Context(), n.ID); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, n.ID)
	}
	removed, err := w.DeleteNode(f.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(removed, ids) {
		t.Errorf("DeleteNode() = %v, want %v", removed, ids)
	}
	if w.Tree().Len() != 0 {
		t.Errorf("tree still has %d nodes", w.Tree().Len())
	}
	for _, id := range ids {
		if _, err := os.Stat(filepath.Join(w.Dir(), project.ChaptersDirname, id+".md")); !os.IsNotExist(err) {
			t.Errorf("chapter %s still on disk: %v", id, err)
		}
		if got := w.ReadChapter(id); got != "" {
			t.Errorf("ReadChapter(%s) = %q", id, got)
		}
		l := w.Versions().List(id)
		if len(l) != 1 {
			t.Fatalf("List(%s) = %+v", id, l)
		}
		if got := w.Versions().Read(t.Context(), l[0]); got == "" {
			t.Errorf("version of %s lost its blob", id)
		}
	}
}

func TestSnapshotRestore(t *testing.T) {
	w := setupWorkspace(t)
	c, err := w.EnsureFirstChapter()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteChapter(c.ID, "你好world"); err != nil {
		t.Fatal(err)
	}
	e, err := w.Snapshot(t.Context(), c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if e.WordCount != 3 {
		t.Errorf("WordCount = %d, want 3", e.WordCount)
	}
	if err := w.WriteChapter(c.ID, "rewritten"); err != nil {
		t.Fatal(err)
	}
	found, ok := w.FindVersion(e.ID)
	if !ok || found != e {
		t.Fatalf("FindVersion() = %+v, %v", found, ok)
	}
	ne, text, err := w.Restore(t.Context(), found)
	if err != nil {
		t.Fatal(err)
	}
	if text != "你好world" || w.ReadChapter(c.ID) != "你好world" {
		t.Errorf("restored text = %q, chapter = %q", text, w.ReadChapter(c.ID))
	}
	l := w.Versions().List(c.ID)
	if len(l) != 2 || l[0].ID != ne.ID || l[0].WordCount != 3 {
		t.Errorf("List() after restore = %+v", l)
	}

	f, err := w.AddNode("", "f", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := w.Restore(t.Context(), version.Entry{ID: "v", ChapterID: f.ID}); !IsNotChapter(err) {
		t.Errorf("Restore(folder) = %v", err)
	}
}

func TestTotals(t *testing.T) {
	w := setupWorkspace(t)
	a, err := w.AddNode("", "a", false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := w.AddNode("", "b", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteChapter(a.ID, "one two"); err != nil {
		t.Fatal(err)
	}
	counts, total := w.Totals()
	if want := map[string]int{a.ID: 2, b.ID: 0}; !reflect.DeepEqual(counts, want) {
		t.Errorf("Totals() = %v, want %v", counts, want)
	}
	if total != 2 {
		t.Errorf("total = %d", total)
	}
	if err := w.RecordTotal(total); err != nil {
		t.Fatal(err)
	}
	if h := w.Stats().History(); len(h) != 1 || h[0].TotalWords != 2 {
		t.Errorf("History() = %+v", h)
	}

	got := RecomputeTotals(w.Tree(), func(string) string { return "字字" })
	if got[a.ID] != 2 || got[b.ID] != 2 {
		t.Errorf("RecomputeTotals() = %v", got)
	}
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir, nil, Options{Clock: fakeClock()})
	if err != nil {
		t.Fatal(err)
	}
	other, err := Open(dir, nil, Options{Clock: fakeClock()})
	if err != nil {
		t.Fatal(err)
	}
	n, err := other.AddNode("", "外部", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := w.Tree().Find(n.ID); ok {
		t.Fatal("edit visible before Reload")
	}
	if err := w.Reload(); err != nil {
		t.Fatal(err)
	}
	if got, ok := w.Tree().Find(n.ID); !ok || got.Title != "外部" {
		t.Errorf("Find() after Reload = %+v, %v", got, ok)
	}
	if err := os.WriteFile(filepath.Join(dir, project.MetaFilename), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Reload(); !storage.IsParseError(err) {
		t.Errorf("Reload() of corrupt project = %v, want ParseError", err)
	}
	if _, ok := w.Tree().Find(n.ID); !ok {
		t.Error("failed Reload replaced the tree")
	}
}
