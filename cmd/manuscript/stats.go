package main

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const (
	dashboardDays = 14
	topChapters   = 10
	barWidth      = 30
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)
)

func (a *app) statsCmd() *cobra.Command {
	var record bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the writing dashboard",
		Long: `Show the project total, today's progress, daily progress over the last 14
days and the longest chapters.

Daily progress is the spread between the day's largest and smallest sampled
totals.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			counts, total := a.ws.Totals()
			if record {
				if err := a.ws.RecordTotal(total); err != nil {
					return err
				}
			}
			daily := a.ws.Stats().DailyProgress()
			days := slices.Sorted(maps.Keys(daily))
			if len(days) > dashboardDays {
				days = days[len(days)-dashboardDays:]
			}
			today := a.ws.Stats().Today(time.Now())

			var b strings.Builder
			b.WriteString(headerStyle.Render(a.ws.Project().Title) + "\n")
			fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Total words:"), countStyle.Render(fmt.Sprint(total)))
			fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Today:      "), countStyle.Render(fmt.Sprint(today)))

			if len(days) > 0 {
				b.WriteString("\n" + headerStyle.Render("Daily progress") + "\n")
				peak := 1
				for _, d := range days {
					peak = max(peak, daily[d])
				}
				for _, d := range days {
					v := daily[d]
					bar := strings.Repeat("█", v*barWidth/peak)
					fmt.Fprintf(&b, "%s %s %d\n", labelStyle.Render(d[5:]), barStyle.Render(bar), v)
				}
			}

			type chapter struct {
				id    string
				words int
			}
			var chapters []chapter
			for id, wc := range counts {
				chapters = append(chapters, chapter{id, wc})
			}
			slices.SortFunc(chapters, func(x, y chapter) int {
				return cmp.Or(cmp.Compare(y.words, x.words), cmp.Compare(x.id, y.id))
			})
			if len(chapters) > topChapters {
				chapters = chapters[:topChapters]
			}
			if len(chapters) > 0 {
				b.WriteString("\n" + headerStyle.Render("Top chapters") + "\n")
				for i, c := range chapters {
					title := c.id
					if n, ok := a.ws.Tree().Find(c.id); ok {
						title = n.Title
					}
					fmt.Fprintf(&b, "%2d. %s %s %s\n", i+1, title, idStyle.Render(shortID(c.id)), countStyle.Render(fmt.Sprint(c.words)))
				}
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), b.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&record, "record", false, "append the current total to the history first")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
