package export

import (
	"io"
	"strings"
	"unicode"
)

// TXTExporter writes plain text: folders as "# title", chapters as
// "## title" followed by their body.
type TXTExporter struct{}

// Export writes the project as plain text.
func (e *TXTExporter) Export(src Source, w io.Writer) error {
	var parts []string
	for it := range src.flatten() {
		if it.node.IsFolder {
			parts = append(parts, "\n# "+it.node.Title+"\n")
			continue
		}
		parts = append(parts, "\n## "+it.node.Title+"\n")
		parts = append(parts, strings.TrimRightFunc(it.text, unicode.IsSpace)+"\n")
	}
	_, err := io.WriteString(w, strings.TrimLeftFunc(strings.Join(parts, "\n"), unicode.IsSpace))
	return err
}

// Extension returns the file extension for this format.
func (e *TXTExporter) Extension() string {
	return "txt"
}
