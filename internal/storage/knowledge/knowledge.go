// Package knowledge stores the project's character and place lists.
package knowledge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/maruel/manuscript/internal/storage/jsondb"
)

const (
	// DirName is the knowledge directory inside a project.
	DirName = "knowledge"
	// Filename is the knowledge base file inside DirName.
	Filename = "knowledge.json"
)

// KnowledgeBase lists the named entities of a story.
type KnowledgeBase struct {
	Characters []string `json:"characters" jsonschema:"description=Character names"`
	Places     []string `json:"places" jsonschema:"description=Place names"`
}

// Default returns the knowledge base seeded into new projects.
func Default() KnowledgeBase {
	return KnowledgeBase{
		Characters: []string{"主角", "反派", "导师"},
		Places:     []string{"王都", "黑森林", "旧港"},
	}
}

// Store persists a KnowledgeBase.
type Store struct {
	doc *jsondb.Document[map[string]json.RawMessage]
}

// NewStore opens the knowledge base of the project in projectDir, seeding the
// defaults on first access.
func NewStore(projectDir string) (*Store, error) {
	doc, err := jsondb.NewDocument[map[string]json.RawMessage](filepath.Join(projectDir, DirName, Filename))
	if err != nil {
		return nil, err
	}
	s := &Store{doc: doc}
	if doc.Exists() {
		return s, nil
	}
	if err := s.Save(Default()); err != nil {
		return nil, err
	}
	return s, nil
}

// Load returns the knowledge base. Malformed content yields empty lists.
func (s *Store) Load() KnowledgeBase {
	m, err := s.doc.Load()
	if err != nil {
		slog.Warn("Knowledge base unreadable, treating as empty", "path", s.doc.Path(), "err", err)
		m = nil
	}
	return KnowledgeBase{
		Characters: stringList(m["characters"]),
		Places:     stringList(m["places"]),
	}
}

// Save rewrites the knowledge base.
func (s *Store) Save(kb KnowledgeBase) error {
	m := map[string]json.RawMessage{}
	for k, v := range map[string][]string{"characters": kb.Characters, "places": kb.Places} {
		if v == nil {
			v = []string{}
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", k, err)
		}
		m[k] = raw
	}
	if err := s.doc.Save(m); err != nil {
		return fmt.Errorf("failed to save knowledge base: %w", err)
	}
	return nil
}

// stringList decodes a JSON array, stringifying non-string entries. Anything
// else is an empty list.
func stringList(raw json.RawMessage) []string {
	var items []any
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case nil:
		case string:
			out = append(out, v)
		case float64, bool:
			out = append(out, fmt.Sprint(v))
		default:
			b, _ := json.Marshal(v)
			out = append(out, string(b))
		}
	}
	return out
}
