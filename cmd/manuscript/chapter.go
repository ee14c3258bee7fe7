package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/maruel/manuscript/internal/textmetrics"
)

func (a *app) writeCmd() *cobra.Command {
	var file string
	var snapshot bool
	cmd := &cobra.Command{
		Use:   "write <chapter>",
		Short: "Replace a chapter's text from stdin or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.resolveChapter(args[0])
			if err != nil {
				return err
			}
			var r io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file) //nolint:gosec // G304: file is chosen by the user
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				r = f
			}
			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("failed to read text: %w", err)
			}
			text := string(data)
			if err := a.ws.WriteChapter(n.ID, text); err != nil {
				return err
			}
			wc := textmetrics.WordCount(text)
			if snapshot && wc > 0 {
				if _, err := a.ws.SnapshotText(cmd.Context(), n.ID, text); err != nil {
					return err
				}
			}
			_, total := a.ws.Totals()
			if err := a.ws.RecordTotal(total); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d words (total %d)\n", n.Title, wc, total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "i", "", "read the text from this file instead of stdin")
	cmd.Flags().BoolVarP(&snapshot, "snapshot", "s", false, "also take a snapshot")
	return cmd
}

func (a *app) catCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <chapter>",
		Short: "Print a chapter's text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.resolveChapter(args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), a.ws.ReadChapter(n.ID))
			return err
		},
	}
}
