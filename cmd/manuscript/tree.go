package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maruel/manuscript/internal/tree"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the project and its first chapter",
		Long: `Create the project directory with its default configuration, knowledge
base and a first chapter. Running init on an existing project only adds the
first chapter when the tree has none.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.ws.EnsureFirstChapter()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (first chapter %s)\n", a.ws.Dir(), a.ws.Project().Title, n.ID)
			return nil
		},
	}
}

func (a *app) treeCmd() *cobra.Command {
	var ids bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Display the chapter tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := a.ws.Tree()
			counts, total := a.ws.Totals()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%d words)\n", a.ws.Project().Title, total)
			for n := range t.All() {
				indent := strings.Repeat("  ", t.Depth(n.ID)+1)
				suffix := ""
				if ids {
					suffix = "  " + n.ID
				}
				if n.IsFolder {
					fmt.Fprintf(w, "%s%s/%s\n", indent, n.Title, suffix)
				} else {
					fmt.Fprintf(w, "%s%s  [%d]%s\n", indent, n.Title, counts[n.ID], suffix)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&ids, "ids", false, "show node ids")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	var parent string
	var folder bool
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a chapter or folder",
		Long: `Add a chapter, or a folder with --folder, at the end of a folder.

Examples:
  manuscript add "第二章"
  manuscript add --folder "卷二"
  manuscript add --parent "卷二" "第三章"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.resolveFolder(parent)
			if err != nil {
				return err
			}
			title := ""
			if len(args) == 1 {
				title = args[0]
			}
			n, err := a.ws.AddNode(p.ID, title, folder)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "parent folder id or title (default root)")
	cmd.Flags().BoolVarP(&folder, "folder", "f", false, "add a folder instead of a chapter")
	return cmd
}

func (a *app) renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <node> <title>",
		Short: "Rename a chapter or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			n, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			return a.ws.RenameNode(n.ID, args[1])
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <node>",
		Short: "Delete a chapter or a folder with everything it holds",
		Long: `Delete a node and its subtree. The text of every removed chapter is
deleted; their snapshots are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			removed, err := a.ws.DeleteNode(n.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d chapter(s)\n", len(removed))
			return err
		},
	}
}

func (a *app) mvCmd() *cobra.Command {
	var up, down bool
	var into string
	var index int
	cmd := &cobra.Command{
		Use:   "mv <node>",
		Short: "Reorder a node or move it to another folder",
		Long: `Move a node one position up or down among its siblings, or under another
folder with --into.

Examples:
  manuscript mv --up "第三章"
  manuscript mv --into "卷二" --index 0 "第三章"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			switch {
			case into != "":
				p, err := a.resolveFolder(into)
				if err != nil {
					return err
				}
				return a.ws.MoveNodeTo(n.ID, p.ID, index)
			case up || down:
				delta := 1
				if up {
					delta = -1
				}
				moved, err := a.ws.MoveNode(n.ID, delta)
				if err != nil {
					return err
				}
				if !moved {
					fmt.Fprintln(cmd.OutOrStdout(), "already at the edge")
				}
				return nil
			default:
				return errors.New("one of --up, --down or --into is required")
			}
		},
	}
	cmd.Flags().BoolVar(&up, "up", false, "move before the previous sibling")
	cmd.Flags().BoolVar(&down, "down", false, "move after the next sibling")
	cmd.Flags().StringVar(&into, "into", "", "destination folder id or title ("+tree.RootID+" for the top level)")
	cmd.Flags().IntVar(&index, "index", -1, "position in the destination folder, -1 appends")
	cmd.MarkFlagsMutuallyExclusive("up", "down", "into")
	return cmd
}
