package knowledge

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStore(t *testing.T) {
	t.Run("seeded", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewStore(dir)
		if err != nil {
			t.Fatal(err)
		}
		if got := s.Load(); !reflect.DeepEqual(got, Default()) {
			t.Errorf("Load() = %+v, want %+v", got, Default())
		}
		kb := KnowledgeBase{Characters: []string{"林"}, Places: nil}
		if err := s.Save(kb); err != nil {
			t.Fatal(err)
		}
		// Reopening must not reseed.
		s, err = NewStore(dir)
		if err != nil {
			t.Fatal(err)
		}
		want := KnowledgeBase{Characters: []string{"林"}, Places: []string{}}
		if got := s.Load(); !reflect.DeepEqual(got, want) {
			t.Errorf("Load() = %+v, want %+v", got, want)
		}
	})

	tests := []struct {
		name    string
		content string
		want    KnowledgeBase
	}{
		{"garbage", "{{", KnowledgeBase{Characters: []string{}, Places: []string{}}},
		{"array", "[]", KnowledgeBase{Characters: []string{}, Places: []string{}}},
		{"wrong field type", `{"characters":"x","places":["a"]}`, KnowledgeBase{Characters: []string{}, Places: []string{"a"}}},
		{"mixed entries", `{"characters":["a",1,true,null,{"k":"v"}]}`, KnowledgeBase{Characters: []string{"a", "1", "true", `{"k":"v"}`}, Places: []string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			p := filepath.Join(dir, DirName, Filename)
			if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(p, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			s, err := NewStore(dir)
			if err != nil {
				t.Fatal(err)
			}
			if got := s.Load(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Load() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
