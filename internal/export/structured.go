package export

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// Document is the structured form written by the JSON and YAML exporters.
type Document struct {
	Title    string    `json:"title" yaml:"title"`
	Chapters []Chapter `json:"chapters" yaml:"chapters"`
}

// Chapter is a folder or chapter with its text.
type Chapter struct {
	Title    string    `json:"title" yaml:"title"`
	Folder   bool      `json:"folder,omitempty" yaml:"folder,omitempty"`
	Text     string    `json:"text,omitempty" yaml:"text,omitempty"`
	Children []Chapter `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewDocument builds the structured form of src.
func NewDocument(src Source) Document {
	var build func(id string) []Chapter
	build = func(id string) []Chapter {
		n, _ := src.Tree.Find(id)
		out := make([]Chapter, 0, len(n.Children))
		for _, cid := range n.Children {
			c, _ := src.Tree.Find(cid)
			ch := Chapter{Title: c.Title, Folder: c.IsFolder}
			if c.IsFolder {
				ch.Children = build(cid)
			} else {
				ch.Text = src.Read(cid)
			}
			out = append(out, ch)
		}
		return out
	}
	return Document{Title: src.Title, Chapters: build(src.Tree.Root().ID)}
}

// JSONExporter writes the project as indented JSON.
type JSONExporter struct{}

// Export writes the project as JSON.
func (e *JSONExporter) Export(src Source, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(NewDocument(src))
}

// Extension returns the file extension for this format.
func (e *JSONExporter) Extension() string {
	return "json"
}

// YAMLExporter writes the project as YAML.
type YAMLExporter struct{}

// Export writes the project as YAML.
func (e *YAMLExporter) Export(src Source, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(src)); err != nil {
		return err
	}
	return enc.Close()
}

// Extension returns the file extension for this format.
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
