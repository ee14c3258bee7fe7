// Package project stores a writing project: its metadata and chapter tree in
// project.json, and one text file per chapter under chapters/.
package project

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/maruel/manuscript/internal/storage"
	"github.com/maruel/manuscript/internal/tree"
)

// DefaultTitle is the title used when a record has none.
const DefaultTitle = "我的小说"

var errNotObject = errors.New("project record must be a JSON object")

// Project is the in-memory form of project.json.
type Project struct {
	ID        string
	Title     string
	Root      *tree.Tree
	CreatedAt storage.Time
	UpdatedAt storage.Time
}

// Record is the persisted form of a Project.
type Record struct {
	ID        string       `json:"id" jsonschema:"description=Project identifier"`
	Title     string       `json:"title" jsonschema:"description=Project title"`
	CreatedAt storage.Time `json:"created_at" jsonschema:"description=Creation time (local wall clock)"`
	UpdatedAt storage.Time `json:"updated_at" jsonschema:"description=Last save time (local wall clock)"`
	Root      tree.Record  `json:"root" jsonschema:"description=Invisible root folder of the chapter tree"`
}

// UnmarshalJSON decodes a record, applying defaults for missing fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	if t := bytes.TrimSpace(data); len(t) == 0 || t[0] != '{' {
		return errNotObject
	}
	var raw struct {
		ID        json.RawMessage `json:"id"`
		Title     *string         `json:"title"`
		CreatedAt storage.Time    `json:"created_at"`
		UpdatedAt storage.Time    `json:"updated_at"`
		Root      *tree.Record    `json:"root"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{
		ID:        idString(raw.ID),
		Title:     DefaultTitle,
		CreatedAt: raw.CreatedAt,
		UpdatedAt: raw.UpdatedAt,
	}
	if raw.Title != nil {
		r.Title = *raw.Title
	}
	if raw.Root != nil {
		r.Root = *raw.Root
	} else {
		r.Root = tree.New().Record()
	}
	return nil
}

// Record returns the persisted form of p.
func (p *Project) Record() Record {
	root := p.Root
	if root == nil {
		root = tree.New()
	}
	return Record{
		ID:        p.ID,
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Root:      root.Record(),
	}
}

// FromRecord builds a Project from its persisted form.
func FromRecord(rec Record) (*Project, error) {
	root, err := tree.FromRecord(rec.Root)
	if err != nil {
		return nil, err
	}
	return &Project{
		ID:        rec.ID,
		Title:     rec.Title,
		Root:      root,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func idString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
