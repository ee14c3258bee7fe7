package search

import (
	"testing"

	"github.com/maruel/manuscript/internal/tree"
)

func TestChapters(t *testing.T) {
	tr := tree.New()
	texts := map[string]string{}
	add := func(title, text string) string {
		t.Helper()
		n, err := tr.Add("", title, false)
		if err != nil {
			t.Fatal(err)
		}
		texts[n.ID] = text
		return n.ID
	}
	start := add("Getting Started", "This is a guide to get started with the dragon story")
	adv := add("Advanced Dragon", "Dragons everywhere. The dragon sleeps.")
	cn := add("黑森林", "主角走进黑森林，黑森林里很安静。")
	if _, err := tr.Add("", "Dragon folder", true); err != nil {
		t.Fatal(err)
	}
	read := func(id string) string { return texts[id] }

	tests := []struct {
		name      string
		opts      Options
		wantIDs   []string
		wantFirst string
	}{
		{"empty query", Options{}, nil, ""},
		{"no results", Options{Query: "nonexistent"}, nil, ""},
		{"case insensitive", Options{Query: "DRAGON"}, []string{adv, start}, ""},
		{"title only", Options{Query: "dragon", TitleOnly: true}, []string{adv}, ""},
		{"limit", Options{Query: "dragon", Limit: 1}, []string{adv}, ""},
		{"cjk", Options{Query: "黑森林"}, []string{cn}, "主角走进黑森林，黑森林里很安静。"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chapters(tr, read, tt.opts)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Chapters() = %+v, want ids %v", got, tt.wantIDs)
			}
			for i, r := range got {
				if r.ID != tt.wantIDs[i] {
					t.Errorf("result %d = %s, want %s", i, r.ID, tt.wantIDs[i])
				}
				if r.Score <= 0 || r.Score > 1 {
					t.Errorf("score = %v", r.Score)
				}
			}
			if tt.wantFirst != "" && got[0].Snippet != tt.wantFirst {
				t.Errorf("snippet = %q, want %q", got[0].Snippet, tt.wantFirst)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog while the cat watches from a distance"
	got := preview([]rune(text), []rune(text), []rune("lazy"))
	want := "...fox jumps over the lazy dog while the cat watches fro..."
	if got != want {
		t.Errorf("preview() = %q, want %q", got, want)
	}
}
