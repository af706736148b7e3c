// Package game scores a member's game and folds several games into a member total.
package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/strikeboard/internal/domain/frame"
	"github.com/okian/strikeboard/internal/domain/model"
)

// Game is one member's ten frames in a match, as entered by a scorekeeper.
type Game struct {
	MatchID      string        `json:"matchId"`
	TeamMemberID string        `json:"teamMemberId"`
	GameNumber   int           `json:"gameNumber"`
	Frames       []frame.Frame `json:"frames"`
	Handicap     int           `json:"handicap"`
}

// Scored is a game with every derivable frame value filled in.
type Scored struct {
	MatchID      string        `json:"matchId"`
	TeamMemberID string        `json:"teamMemberId"`
	GameNumber   int           `json:"gameNumber"`
	Frames       []frame.Frame `json:"frames"`
	Handicap     int           `json:"handicap"`
	// TotalScore is the frame 10 running total, or the latest determined
	// running total while the game is in progress.
	TotalScore int  `json:"totalScore"`
	FinalScore int  `json:"finalScore"`
	Complete   bool `json:"complete"`
}

// Score validates the frames of g and computes running totals.
func Score(g Game) (Scored, error) {
	if g.MatchID == "" || g.TeamMemberID == "" || g.GameNumber < 1 {
		return Scored{}, fmt.Errorf("%w: match, team member and a positive game number are required", ErrInvalidGame)
	}
	if err := frame.Validate(g.Frames); err != nil {
		return Scored{}, err
	}
	frames, err := frame.ComputeRunningTotals(g.Frames)
	if err != nil {
		return Scored{}, err
	}
	total, complete := frame.Total(frames)
	return Scored{
		MatchID:      g.MatchID,
		TeamMemberID: g.TeamMemberID,
		GameNumber:   g.GameNumber,
		Frames:       frames,
		Handicap:     g.Handicap,
		TotalScore:   total,
		FinalScore:   total + g.Handicap,
		Complete:     complete,
	}, nil
}

// Meta carries the roster context a score row needs beyond the game itself.
type Meta struct {
	TournamentID string
	MatchTeamIDs []string
	TeamID       string
	Member       model.Member
	RecordedAt   time.Time
}

// Events derives one score row per frame that has at least its first roll.
func Events(s Scored, meta Meta) []model.ScoreEvent {
	if meta.RecordedAt.IsZero() {
		meta.RecordedAt = time.Now().UTC()
	}
	events := make([]model.ScoreEvent, 0, len(s.Frames))
	best := 0
	for _, f := range s.Frames {
		if f.RunningTotal != nil {
			best = *f.RunningTotal
		}
		if !f.Started() {
			continue
		}
		events = append(events, model.ScoreEvent{
			ID:           uuid.NewString(),
			TournamentID: meta.TournamentID,
			MatchID:      s.MatchID,
			MatchTeamIDs: append([]string(nil), meta.MatchTeamIDs...),
			TeamID:       meta.TeamID,
			TeamMemberID: s.TeamMemberID,
			Member:       meta.Member,
			GameNumber:   s.GameNumber,
			Frame:        f.Number,
			Roll1:        f.Roll1,
			Roll2:        f.Roll2,
			Roll3:        f.Roll3,
			FrameScore:   frame.Value(f.Score),
			TotalScore:   best,
			Handicap:     s.Handicap,
			IsStrike:     f.IsStrike,
			IsSpare:      f.IsSpare,
			Pending:      f.Score == nil,
			RecordedAt:   meta.RecordedAt,
		})
	}
	return events
}
