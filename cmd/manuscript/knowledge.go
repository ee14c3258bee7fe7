package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) knowledgeCmd() *cobra.Command {
	var characters, places []string
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Show or extend the character and place lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := a.ws.Knowledge()
			kb := store.Load()
			if len(characters)+len(places) > 0 {
				kb.Characters = appendNew(kb.Characters, characters)
				kb.Places = appendNew(kb.Places, places)
				if err := store.Save(kb); err != nil {
					return err
				}
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Characters"), strings.Join(kb.Characters, ", "))
			fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Places"), strings.Join(kb.Places, ", "))
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&characters, "character", "c", nil, "add a character")
	cmd.Flags().StringSliceVarP(&places, "place", "p", nil, "add a place")
	return cmd
}

// appendNew appends the values of add missing from list.
func appendNew(list, add []string) []string {
	for _, v := range add {
		if v = strings.TrimSpace(v); v != "" && !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
