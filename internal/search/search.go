// Package search finds chapters whose title or text contains a query.
package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/maruel/manuscript/internal/tree"
)

// Result is one matching chapter.
type Result struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"` // Text around the first body match.
	Matches int     `json:"matches"`
	Score   float64 `json:"score"` // Relevance in [0, 1].
}

// Options controls a search.
type Options struct {
	Query string
	// Limit caps the number of results; 0 means no limit.
	Limit int
	// TitleOnly skips chapter text.
	TitleOnly bool
}

const (
	titleWeight = 0.5
	bodyWeight  = 0.1
	before      = 20 // Runes of context before the match.
	after       = 30 // Runes of context after the match.
)

// Chapters searches every chapter of t, reading text with read.
//
// Matching is case-insensitive. Results are ordered by score, then by tree order.
func Chapters(t *tree.Tree, read func(id string) string, opts Options) []Result {
	query := strings.ToLower(opts.Query)
	if query == "" {
		return nil
	}
	var results []Result
	for n := range t.Leaves() {
		matches := strings.Count(strings.ToLower(n.Title), query)
		score := titleWeight * float64(matches)
		snippet := ""
		if !opts.TitleOnly {
			text := read(n.ID)
			lower := strings.ToLower(text)
			if m := strings.Count(lower, query); m > 0 {
				matches += m
				score += bodyWeight * float64(m)
				snippet = preview([]rune(lower), []rune(text), []rune(query))
			}
		}
		if matches == 0 {
			continue
		}
		results = append(results, Result{ID: n.ID, Title: n.Title, Snippet: snippet, Matches: matches, Score: min(score, 1)})
	}
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

// preview cuts text around the first occurrence of query in lower, its lower
// cased form. Runes are compared so multibyte text is never split.
func preview(lower, text, query []rune) string {
	idx := -1
	for i := 0; i+len(query) <= len(lower); i++ {
		if slices.Equal(lower[i:i+len(query)], query) {
			idx = i
			break
		}
	}
	if idx < 0 || len(lower) != len(text) {
		// Case folding changed the length; fall back to the lower cased text.
		text = lower
	}
	if idx < 0 {
		idx = 0
	}
	start := max(idx-before, 0)
	end := min(idx+len(query)+after, len(text))
	s := strings.Join(strings.Fields(string(text[start:end])), " ")
	if start > 0 {
		s = "..." + s
	}
	if end < len(text) {
		s += "..."
	}
	return s
}
