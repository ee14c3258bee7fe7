// Package export renders a project into a single document.
package export

import (
	"fmt"
	"io"
	"iter"

	"github.com/maruel/manuscript/internal/tree"
)

// Source is what an exporter reads.
type Source struct {
	Title string
	Tree  *tree.Tree
	// Read returns a chapter's text.
	Read func(id string) string
}

// Exporter writes a Source in one format.
type Exporter interface {
	Export(src Source, w io.Writer) error
	Extension() string
}

// NewExporter returns the exporter for format.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "txt", "text":
		return &TXTExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: txt, md, json, yaml)", format)
	}
}

// item is a node in export order.
type item struct {
	node  *tree.Node
	depth int
	text  string
}

// flatten yields every node in depth-first pre-order with chapter text loaded.
func (s Source) flatten() iter.Seq[item] {
	return func(yield func(item) bool) {
		for n := range s.Tree.All() {
			it := item{node: n, depth: s.Tree.Depth(n.ID)}
			if !n.IsFolder {
				it.text = s.Read(n.ID)
			}
			if !yield(it) {
				return
			}
		}
	}
}
