package simulate

import (
	"context"

	"github.com/okian/strikeboard/pkg/logger"
)

// verifyResults compares the server's team totals with the games the
// simulator bowled. Teams without a display position are not on the board
// and are skipped. Mismatches are counted and logged, not fatal: a server
// with earlier data in the same tournament legitimately reports more.
func verifyResults(ctx context.Context, client *HTTPClient, expected map[string]map[string]int, stats *Stats) error {
	log := logger.Get().Named("simulate")
	for tournamentID, teams := range expected {
		board, err := client.leaderboard(ctx, tournamentID)
		if err != nil {
			return err
		}
		for _, t := range board.Teams {
			want, ok := teams[t.Team.ID]
			if !ok {
				continue
			}
			if t.TeamTotal == want {
				stats.TeamsVerified++
				continue
			}
			stats.TeamsMismatched++
			log.Warn(ctx, "team total differs from bowled games",
				logger.String("tournament", tournamentID),
				logger.String("team", t.Team.ID),
				logger.Int("server", t.TeamTotal),
				logger.Int("bowled", want))
		}
	}
	return nil
}
