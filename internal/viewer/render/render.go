// Package render draws a standings.Board as plain-text tables.
package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/okian/strikeboard/internal/domain/standings"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Standings writes the ranked leaderboard, one row per team.
func Standings(w io.Writer, board standings.Board) error {
	tw := table(w)
	fmt.Fprintln(tw, "RANK\tTEAM\tLANE\tTOTAL\tX\t/")
	for _, t := range board.Teams {
		name := t.Team.Name
		if name == "" {
			name = t.Team.ID
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\n", t.Rank, name, t.LaneNo, t.TeamTotal, t.Strikes, t.Spares)
	}
	return tw.Flush()
}

// Lanes writes one block per display slot with each member's progress.
func Lanes(w io.Writer, board standings.Board) error {
	tw := table(w)
	for i, t := range board.Teams {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\tlane %d\t%s\t%d\n", dash(t.Position), t.LaneNo, t.Team.Name, t.TeamTotal)
		if len(t.Members) == 0 {
			fmt.Fprintln(tw, "\t-\t\t")
			continue
		}
		for _, m := range t.Members {
			name := m.Member.Name
			if name == "" {
				name = m.Member.ID
			}
			fmt.Fprintf(tw, "\t%s\t%d\tframe %d\t%s\n", name, m.TotalScore, m.FramesCompleted, dash(m.LastScore))
		}
	}
	return tw.Flush()
}
