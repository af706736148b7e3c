// Package simulate plays realistic bowling games against a running server,
// one roll at a time, and checks the resulting leaderboard.
package simulate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/strikeboard/internal/adapters/repository"
	"github.com/okian/strikeboard/internal/domain/frame"
	"github.com/okian/strikeboard/internal/domain/game"
	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/internal/domain/standings"
	"github.com/okian/strikeboard/pkg/logger"
)

type scoreRequest struct {
	SubmissionID string        `json:"submissionId"`
	MatchID      string        `json:"matchId"`
	TeamMemberID string        `json:"teamMemberId"`
	GameNumber   int           `json:"gameNumber"`
	Frames       []frame.Frame `json:"frames"`
	Handicap     int           `json:"handicap"`
}

type leaderboardResponse struct {
	Teams []standings.TeamScoreAggregate `json:"teams"`
}

// plan is one game to bowl.
type plan struct {
	tournamentID string
	teamID       string
	member       model.TeamMember
	matchID      string
	gameNumber   int
	seed         uint64
}

// Run plays every planned game and verifies the server's team totals.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("simulate")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("roster", cfg.RosterFile),
		logger.Int("games", cfg.Games),
		logger.Int("workers", cfg.Workers))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	roster, err := repository.LoadRoster(cfg.RosterFile)
	if err != nil {
		return stats, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	plans := buildPlans(roster, cfg.Games, seed)
	if len(plans) == 0 {
		return stats, fmt.Errorf("roster %s has no member bowling in a match", cfg.RosterFile)
	}

	expected := play(ctx, cfg, client, plans, stats)

	log.Info(ctx, "waiting for submissions to be processed", logger.Duration("settle", cfg.Settle))
	select {
	case <-ctx.Done():
		return stats, ctx.Err()
	case <-time.After(cfg.Settle):
	}

	if err := verifyResults(ctx, client, expected, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	resp, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// buildPlans lists games for every member whose team bowls in a match.
func buildPlans(roster model.Roster, games int, seed uint64) []plan {
	if games < 1 {
		games = 1
	}
	var plans []plan
	for _, m := range roster.Matches {
		for _, tm := range roster.TeamMembers {
			if !slices.Contains(m.TeamIDs, tm.TeamID) {
				continue
			}
			for g := 1; g <= games; g++ {
				plans = append(plans, plan{
					tournamentID: m.TournamentID,
					teamID:       tm.TeamID,
					member:       tm,
					matchID:      m.ID,
					gameNumber:   g,
					seed:         seed + uint64(len(plans)),
				})
			}
		}
	}
	return plans
}

// play bowls the plans on cfg.Workers goroutines and returns the expected
// team totals per tournament.
func play(ctx context.Context, cfg *Config, client *HTTPClient, plans []plan, stats *Stats) map[string]map[string]int {
	var (
		submitted, accepted, duplicate, failed, played int64

		mu       sync.Mutex
		expected = make(map[string]map[string]int)
		wg       sync.WaitGroup
	)
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	work := make(chan plan, workers*2)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range work {
				final, ok := bowl(ctx, cfg, client, p, &submitted, &accepted, &duplicate, &failed)
				if !ok {
					continue
				}
				atomic.AddInt64(&played, 1)
				mu.Lock()
				if expected[p.tournamentID] == nil {
					expected[p.tournamentID] = make(map[string]int)
				}
				expected[p.tournamentID][p.teamID] += final
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(work)
		for _, p := range plans {
			select {
			case <-ctx.Done():
				return
			case work <- p:
			}
		}
	}()
	wg.Wait()

	stats.GamesPlayed = int(played)
	stats.RollsSubmitted = int(submitted)
	stats.RollsAccepted = int(accepted)
	stats.RollsDuplicate = int(duplicate)
	stats.RollsFailed = int(failed)
	return expected
}

// bowl submits every snapshot of one game in order and returns its final
// score. A game with a failed submission is left out of the expectations.
func bowl(ctx context.Context, cfg *Config, client *HTTPClient, p plan, submitted, accepted, duplicate, failed *int64) (int, bool) {
	r := rand.New(rand.NewPCG(p.seed, uint64(p.gameNumber)))
	skill := r.Float64()
	snapshots := PlayGame(r, skill)

	ok := true
	for i, frames := range snapshots {
		if i > 0 && cfg.Pace > 0 {
			select {
			case <-ctx.Done():
				return 0, false
			case <-time.After(cfg.Pace):
			}
		}
		atomic.AddInt64(submitted, 1)
		switch client.submit(ctx, scoreRequest{
			SubmissionID: uuid.NewString(),
			MatchID:      p.matchID,
			TeamMemberID: p.member.ID,
			GameNumber:   p.gameNumber,
			Frames:       frames,
		}) {
		case resultAccepted:
			atomic.AddInt64(accepted, 1)
		case resultDuplicate:
			atomic.AddInt64(duplicate, 1)
		default:
			atomic.AddInt64(failed, 1)
			ok = false
		}
	}

	scored, err := game.Score(game.Game{
		MatchID:      p.matchID,
		TeamMemberID: p.member.ID,
		GameNumber:   p.gameNumber,
		Frames:       snapshots[len(snapshots)-1],
	})
	if err != nil {
		return 0, false
	}
	return scored.FinalScore, ok
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var rollsPerSecond float64
	if stats.Duration > 0 {
		rollsPerSecond = float64(stats.RollsSubmitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("gamesPlayed", stats.GamesPlayed),
		logger.Int("rollsSubmitted", stats.RollsSubmitted),
		logger.Int("rollsAccepted", stats.RollsAccepted),
		logger.Int("rollsDuplicate", stats.RollsDuplicate),
		logger.Int("rollsFailed", stats.RollsFailed),
		logger.Int("teamsVerified", stats.TeamsVerified),
		logger.Int("teamsMismatched", stats.TeamsMismatched),
		logger.Duration("duration", stats.Duration),
		logger.Float64("rollsPerSecond", rollsPerSecond))
}
