package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maruel/manuscript/internal/search"
)

func (a *app) searchCmd() *cobra.Command {
	var opts search.Options
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find chapters whose title or text contains a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Query = strings.Join(args, " ")
			results := search.Chapters(a.ws.Tree(), a.ws.ReadChapter, opts)
			w := cmd.OutOrStdout()
			for _, r := range results {
				fmt.Fprintf(w, "%s %s %s\n", barStyle.Render(r.Title), idStyle.Render(shortID(r.ID)), countStyle.Render(fmt.Sprint(r.Matches)))
				if r.Snippet != "" {
					fmt.Fprintf(w, "    %s\n", labelStyle.Render(r.Snippet))
				}
			}
			if len(results) == 0 {
				fmt.Fprintln(w, "no match")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of results (0 for all)")
	cmd.Flags().BoolVar(&opts.TitleOnly, "title-only", false, "only match chapter titles")
	return cmd
}
