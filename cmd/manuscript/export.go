package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/maruel/manuscript/internal/export"
	"github.com/maruel/manuscript/internal/storage"
)

// exportsDir is where exports land inside the project directory.
const exportsDir = "exports"

func (a *app) exportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the whole project into one document",
		Long: `Export every chapter in tree order into a single document.

Without --out the file is written to exports/<title>_<timestamp>.<ext> inside
the project directory. Use --out - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			e, err := export.NewExporter(format)
			if err != nil {
				return err
			}
			src := export.Source{Title: a.ws.Project().Title, Tree: a.ws.Tree(), Read: a.ws.ReadChapter}
			if out == "-" {
				return e.Export(src, cmd.OutOrStdout())
			}
			path := out
			if path == "" {
				dir, err := storage.EnsureDir(filepath.Join(a.ws.Dir(), exportsDir))
				if err != nil {
					return fmt.Errorf("failed to create exports directory: %w", err)
				}
				path = filepath.Join(dir, exportName(a.ws.Project().Title, storage.ToTime(time.Now()), e.Extension()))
			}
			f, err := os.Create(path) //nolint:gosec // G304: path is chosen by the user
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			defer func() {
				err = errors.Join(err, f.Close())
			}()
			bw := bufio.NewWriter(f)
			if err := e.Export(src, bw); err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}
			if err := bw.Flush(); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "txt", "output format (txt, md, json, yaml)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, - for stdout")
	return cmd
}

// exportName returns the file name of an export of the project titled title.
// Path separators and control characters in the title are replaced.
func exportName(title string, ts storage.Time, ext string) string {
	base := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if storage.ValidateFileID(base) != nil {
		base = "export"
	}
	return fmt.Sprintf("%s_%s.%s", base, ts.FileSafe(), ext)
}
