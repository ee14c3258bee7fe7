package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maruel/manuscript/internal/storage/version"
)

var errNoVersion = errors.New("version not found")

func (a *app) findVersion(id string) (version.Entry, error) {
	e, ok := a.ws.FindVersion(id)
	if !ok {
		return version.Entry{}, fmt.Errorf("%w: %q", errNoVersion, id)
	}
	return e, nil
}

func (a *app) snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <chapter>",
		Short: "Store the chapter's current text as a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.resolveChapter(args[0])
			if err != nil {
				return err
			}
			e, err := a.ws.Snapshot(cmd.Context(), n.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d words\n", e.ID, e.CreatedAt, e.WordCount)
			return nil
		},
	}
}

func (a *app) versionsCmd() *cobra.Command {
	var history bool
	var limit int
	cmd := &cobra.Command{
		Use:   "versions <chapter>",
		Short: "List a chapter's snapshots, most recent first",
		Long: `List a chapter's snapshots, most recent first.

The chapter may be given by id even when it was deleted from the tree. With
--history the commits of the git mirror are listed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if n, err := a.resolveChapter(id); err == nil {
				id = n.ID
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if history {
				commits, err := a.ws.Versions().History(cmd.Context(), id, limit)
				if err != nil {
					return err
				}
				for _, c := range commits {
					fmt.Fprintf(w, "%.12s\t%s\t%s\n", c.Hash, c.AuthorDate.Format("2006-01-02 15:04:05"), c.Message)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				total, err := a.ws.Versions().CommitCount(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d mirror commits\n", len(commits), total)
				return nil
			}
			for i, e := range a.ws.Versions().List(id) {
				if limit > 0 && i == limit {
					break
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", e.ID, e.CreatedAt, e.WordCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "list git mirror commits")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of entries (0 for all)")
	return cmd
}

func (a *app) showVersionCmd() *cobra.Command {
	var commit string
	cmd := &cobra.Command{
		Use:   "show-version <version-id>",
		Short: "Print the text of a snapshot",
		Long: `Print the text of a snapshot. With --commit the text is read from the git
mirror at that commit instead of the versions directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.findVersion(args[0])
			if err != nil {
				return err
			}
			var text string
			if commit != "" {
				if text, err = a.ws.Versions().ReadAt(cmd.Context(), e, commit); err != nil {
					return err
				}
			} else {
				text = a.ws.Versions().Read(cmd.Context(), e)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&commit, "commit", "", "git mirror commit hash or HEAD")
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <version-id>",
		Short: "Make a snapshot the chapter's current text",
		Long: `Write the snapshot's text back as its chapter's content. The restored text
is recorded as a new snapshot so the log stays append-only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.findVersion(args[0])
			if err != nil {
				return err
			}
			ne, _, err := a.ws.Restore(cmd.Context(), e)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s as %s (%d words)\n", e.ID, ne.ID, ne.WordCount)
			return nil
		},
	}
}
