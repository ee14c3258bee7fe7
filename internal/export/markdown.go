package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// MarkdownExporter writes Markdown with heading levels following tree depth.
type MarkdownExporter struct{}

// Export writes the project as Markdown. The project title is the only level
// one heading; nodes deeper than level six stay at level six.
func (e *MarkdownExporter) Export(src Source, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if src.Title != "" {
		fmt.Fprintf(bw, "# %s\n", src.Title)
	}
	first := src.Title == ""
	for it := range src.flatten() {
		if !first {
			bw.WriteString("\n")
		}
		first = false
		level := min(it.depth+2, 6)
		fmt.Fprintf(bw, "%s %s\n", strings.Repeat("#", level), it.node.Title)
		if body := strings.TrimRightFunc(it.text, unicode.IsSpace); body != "" {
			fmt.Fprintf(bw, "\n%s\n", body)
		}
	}
	return bw.Flush()
}

// Extension returns the file extension for this format.
func (e *MarkdownExporter) Extension() string {
	return "md"
}
