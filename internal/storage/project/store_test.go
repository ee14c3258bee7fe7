package project

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/maruel/manuscript/internal/storage"
	"github.com/maruel/manuscript/internal/tree"
)

// fakeClock returns a clock advancing one second per call.
func fakeClock() storage.Clock {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), Options{Clock: fakeClock()})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func TestStore(t *testing.T) {
	t.Run("CreateDefault", func(t *testing.T) {
		s := setupStore(t)
		if s.Exists() {
			t.Fatal("Exists() before create")
		}
		p, err := s.CreateDefault("我的小说")
		if err != nil {
			t.Fatal(err)
		}
		if !s.Exists() {
			t.Error("Exists() after create = false")
		}
		if p.ID == "" || p.Title != "我的小说" || p.Root.Len() != 0 {
			t.Errorf("CreateDefault() = %+v", p)
		}
		if p.CreatedAt == "" || p.UpdatedAt < p.CreatedAt {
			t.Errorf("timestamps = %q, %q", p.CreatedAt, p.UpdatedAt)
		}
		loaded, err := s.Load()
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(loaded.Record(), p.Record()) {
			t.Errorf("Load() = %+v, want %+v", loaded.Record(), p.Record())
		}
	})

	t.Run("Load", func(t *testing.T) {
		tests := []struct {
			name    string
			content *string
		}{
			{"missing", nil},
			{"garbage", ptr("{{")},
			{"array", ptr("[]")},
			{"null", ptr("null")},
			{"string", ptr(`"p"`)},
			{"duplicate ids", ptr(`{"id":"p","root":{"id":"root","is_folder":true,"children":[{"id":"a"},{"id":"a"}]}}`)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := setupStore(t)
				if tt.content != nil {
					if err := os.WriteFile(filepath.Join(s.Dir(), MetaFilename), []byte(*tt.content), 0o644); err != nil {
						t.Fatal(err)
					}
				}
				if _, err := s.Load(); !storage.IsParseError(err) {
					t.Errorf("Load() = %v, want ParseError", err)
				}
			})
		}
	})

	t.Run("Load defaults", func(t *testing.T) {
		s := setupStore(t)
		if err := os.WriteFile(filepath.Join(s.Dir(), MetaFilename), []byte(`{"id": 7}`), 0o644); err != nil {
			t.Fatal(err)
		}
		p, err := s.Load()
		if err != nil {
			t.Fatal(err)
		}
		if p.ID != "7" || p.Title != DefaultTitle || p.Root.Root().ID != tree.RootID || p.Root.Len() != 0 {
			t.Errorf("Load() = %+v", p)
		}
	})

	t.Run("Save is idempotent", func(t *testing.T) {
		s := setupStore(t)
		p, err := s.CreateDefault("t")
		if err != nil {
			t.Fatal(err)
		}
		f, _ := p.Root.Add("", "Part1", true)
		if _, err := p.Root.Add(f.ID, "Ch1", false); err != nil {
			t.Fatal(err)
		}
		if err := s.Save(p); err != nil {
			t.Fatal(err)
		}
		first, _ := s.Load()
		if err := s.Save(p); err != nil {
			t.Fatal(err)
		}
		second, _ := s.Load()
		if !reflect.DeepEqual(first.Root.Record(), second.Root.Record()) {
			t.Error("root changed between saves")
		}
		if first.UpdatedAt == second.UpdatedAt {
			t.Error("updated_at not refreshed")
		}
		if first.CreatedAt != second.CreatedAt || first.ID != second.ID || first.Title != second.Title {
			t.Error("fields other than updated_at changed")
		}
	})

	t.Run("chapters", func(t *testing.T) {
		s := setupStore(t)
		if got := s.ReadChapter("never-written"); got != "" {
			t.Errorf("ReadChapter(missing) = %q", got)
		}
		for _, text := range []string{"你好world", ""} {
			if err := s.WriteChapter("c1", text); err != nil {
				t.Fatal(err)
			}
			if got := s.ReadChapter("c1"); got != text {
				t.Errorf("ReadChapter() = %q, want %q", got, text)
			}
		}
		if _, err := os.Stat(filepath.Join(s.Dir(), ChaptersDirname, "c1.md")); err != nil {
			t.Errorf("chapter file missing: %v", err)
		}
		if err := s.DeleteChapter("c1"); err != nil {
			t.Fatal(err)
		}
		if err := s.DeleteChapter("c1"); err != nil {
			t.Errorf("second DeleteChapter() = %v", err)
		}
		if err := s.WriteChapter("../escape", "x"); err == nil {
			t.Error("WriteChapter with unsafe id succeeded")
		}
		if got := s.ReadChapter("../escape"); got != "" {
			t.Errorf("ReadChapter(unsafe) = %q", got)
		}
	})

	t.Run("chapter extension", func(t *testing.T) {
		s, err := NewStore(t.TempDir(), Options{ChapterExt: ".txt"})
		if err != nil {
			t.Fatal(err)
		}
		if got := filepath.Base(s.ChapterPath("a")); got != "a.txt" {
			t.Errorf("ChapterPath() = %q", got)
		}
	})
}

func ptr(s string) *string {
	return &s
}
