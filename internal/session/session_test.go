package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maruel/manuscript/internal/workspace"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)

func setupSession(t *testing.T) (*Session, *workspace.Workspace, string) {
	t.Helper()
	now := t0
	clock := func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
	ws, err := workspace.Open(t.TempDir(), nil, workspace.Options{Clock: clock})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c, err := ws.EnsureFirstChapter()
	if err != nil {
		t.Fatal(err)
	}
	return New(ws, Options{}), ws, c.ID
}

func TestOpen(t *testing.T) {
	s, ws, id := setupSession(t)
	if _, err := s.Open("missing"); err == nil {
		t.Error("Open(missing) succeeded")
	}
	f, err := ws.AddNode("", "f", true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Open(f.ID); err == nil {
		t.Error("Open(folder) succeeded")
	}
	if err := ws.WriteChapter(id, "old text"); err != nil {
		t.Fatal(err)
	}
	text, err := s.Open(id)
	if err != nil || text != "old text" {
		t.Fatalf("Open() = %q, %v", text, err)
	}
	s.SetText("new words here")
	other, err := ws.AddNode("", "二", false)
	if err != nil {
		t.Fatal(err)
	}
	s.Rebuild()
	if _, err := s.Open(other.ID); err != nil {
		t.Fatal(err)
	}
	if got := ws.ReadChapter(id); got != "new words here" {
		t.Errorf("previous chapter = %q, want it saved on switch", got)
	}
	if s.Current() != other.ID || s.Text() != "" {
		t.Errorf("Current() = %q, Text() = %q", s.Current(), s.Text())
	}
	if s.Total() != 3 {
		t.Errorf("Total() = %d, want 3", s.Total())
	}
	if c := s.Counts(); len(c) != 2 || c[id] != 3 || c[other.ID] != 0 {
		t.Errorf("Counts() = %v", c)
	}
}

func TestTick(t *testing.T) {
	s, ws, id := setupSession(t)
	if st, err := s.Tick(t.Context(), t0); err != nil || st.Chapter != "" || st.Sampled {
		t.Fatalf("Tick() without chapter = %+v, %v", st, err)
	}
	if _, err := s.Open(id); err != nil {
		t.Fatal(err)
	}

	// An empty chapter is never snapshotted but the total is still sampled.
	st, err := s.Tick(t.Context(), t0)
	if err != nil {
		t.Fatal(err)
	}
	if st.Snapshot != nil || !st.Sampled {
		t.Errorf("Tick() on empty chapter = %+v", st)
	}

	s.SetText("你好world")
	st, err = s.Tick(t.Context(), t0.Add(5*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if st.Snapshot == nil || st.Words != 3 || st.Total != 3 || st.Sampled {
		t.Fatalf("Tick() = %+v", st)
	}
	if got := ws.ReadChapter(id); got != "你好world" {
		t.Errorf("chapter = %q", got)
	}

	s.SetText("你好world again")
	st, err = s.Tick(t.Context(), t0.Add(30*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if st.Snapshot != nil || st.Sampled || st.Total != 4 {
		t.Errorf("Tick() inside intervals = %+v", st)
	}

	st, err = s.Tick(t.Context(), t0.Add(70*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if st.Snapshot == nil || !st.Sampled {
		t.Errorf("Tick() after intervals = %+v", st)
	}
	if l := ws.Versions().List(id); len(l) != 2 || l[0].WordCount != 4 {
		t.Errorf("List() = %+v", l)
	}
	h := ws.Stats().History()
	if len(h) != 2 || h[0].TotalWords != 0 || h[1].TotalWords != 4 {
		t.Errorf("History() = %+v", h)
	}
}

func TestSnapshotThrottlePerChapter(t *testing.T) {
	s, ws, a := setupSession(t)
	b, err := ws.AddNode("", "b", false)
	if err != nil {
		t.Fatal(err)
	}
	s.Rebuild()
	for i, id := range []string{a, b.ID} {
		if _, err := s.Open(id); err != nil {
			t.Fatal(err)
		}
		s.SetText("words")
		st, err := s.Tick(t.Context(), t0.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatal(err)
		}
		if st.Snapshot == nil {
			t.Errorf("chapter %d not snapshotted", i)
		}
	}
}

func TestRefresh(t *testing.T) {
	s, ws, id := setupSession(t)
	if _, err := s.Open(id); err != nil {
		t.Fatal(err)
	}
	if err := ws.WriteChapter(id, "edited elsewhere"); err != nil {
		t.Fatal(err)
	}
	s.Refresh(id)
	if s.Text() != "edited elsewhere" || s.Total() != 2 {
		t.Errorf("Text() = %q, Total() = %d", s.Text(), s.Total())
	}
	s.SetText("local")
	if err := ws.WriteChapter(id, "clobber"); err != nil {
		t.Fatal(err)
	}
	s.Refresh(id)
	if s.Text() != "local" {
		t.Errorf("Refresh() dropped unsaved edits: %q", s.Text())
	}
}

func TestRebuildClosesDeleted(t *testing.T) {
	s, ws, id := setupSession(t)
	if _, err := s.Open(id); err != nil {
		t.Fatal(err)
	}
	s.SetText("unsaved")
	if _, err := ws.DeleteNode(id); err != nil {
		t.Fatal(err)
	}
	s.Rebuild()
	if s.Current() != "" || s.Total() != 0 {
		t.Errorf("Current() = %q, Total() = %d", s.Current(), s.Total())
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}
	if got := ws.ReadChapter(id); got != "" {
		t.Errorf("deleted chapter rewritten: %q", got)
	}
}

func TestRun(t *testing.T) {
	s, ws, id := setupSession(t)
	if _, err := s.Open(id); err != nil {
		t.Fatal(err)
	}
	s.SetText("final")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	if err := s.Run(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v", err)
	}
	if got := ws.ReadChapter(id); got != "final" {
		t.Errorf("chapter = %q, want saved on exit", got)
	}
}
