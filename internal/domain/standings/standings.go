// Package standings turns raw score rows into the ranked team leaderboard.
//
// Aggregate is a pure function of its inputs. Viewers rebuild the whole board
// on every change instead of patching it, so applying the same snapshot twice
// always renders the same result.
package standings

import (
	"fmt"
	"sort"

	"github.com/okian/strikeboard/internal/domain/frame"
	"github.com/okian/strikeboard/internal/domain/game"
	"github.com/okian/strikeboard/internal/domain/model"
)

// MemberRollup is one member's line on a team card.
type MemberRollup struct {
	Member          model.Member `json:"member"`
	TotalScore      int          `json:"totalScore"`
	FramesCompleted int          `json:"framesCompleted"`
	LastScore       string       `json:"lastScore"`
}

// TeamScoreAggregate is a team's derived standing. It is rebuilt on every
// pass and never stored.
type TeamScoreAggregate struct {
	Team      model.Team     `json:"team"`
	LaneNo    int            `json:"laneNo"`
	Position  string         `json:"position"`
	Members   []MemberRollup `json:"members"`
	TeamTotal int            `json:"teamTotal"`
	Rank      int            `json:"rank"`
	Strikes   int            `json:"strikes"`
	Spares    int            `json:"spares"`
}

// Board is the outcome of one aggregation pass.
type Board struct {
	Teams []TeamScoreAggregate `json:"teams"`
	// Dropped counts events whose team has no position in the tournament.
	Dropped int `json:"dropped"`
}

// ByTeam indexes the ranked teams by team id.
func (b Board) ByTeam() map[string]TeamScoreAggregate {
	out := make(map[string]TeamScoreAggregate, len(b.Teams))
	for _, t := range b.Teams {
		out[t.Team.ID] = t
	}
	return out
}

// Option configures an aggregation pass.
type Option func(*options)

type options struct {
	metric game.Metric
}

// WithMetric sets how a member's games fold into the member total.
func WithMetric(m game.Metric) Option {
	return func(o *options) { o.metric = m }
}

// frameState is the latest row seen for one (member, game, frame).
type frameState struct {
	strike bool
	spare  bool
}

// gameRef identifies one of a member's games across matches.
type gameRef struct {
	match  string
	number int
}

type frameRef struct {
	gameRef
	frame int
}

type memberState struct {
	rollup MemberRollup
	// best total per game, handicap included
	games     map[gameRef]int
	gameOrder []gameRef
	frames    map[frameRef]frameState
	last      *model.ScoreEvent
}

type teamState struct {
	agg     TeamScoreAggregate
	members map[string]*memberState
	order   []string
}

// Aggregate builds the leaderboard from score rows and the tournament's team
// positions. Teams appear in the order of positions before ranking and teams
// with equal totals keep that order.
func Aggregate(events []model.ScoreEvent, positions []model.TeamPosition, opts ...Option) Board {
	o := options{metric: game.TeamTotal}
	for _, opt := range opts {
		opt(&o)
	}

	teams := make([]*teamState, 0, len(positions))
	byID := make(map[string]*teamState, len(positions))
	for _, p := range positions {
		if _, dup := byID[p.Team.ID]; dup {
			continue
		}
		ts := &teamState{
			agg: TeamScoreAggregate{
				Team:     p.Team,
				LaneNo:   p.Lane.LaneNo,
				Position: p.PositionNo,
				Members:  []MemberRollup{},
			},
			members: make(map[string]*memberState),
		}
		teams = append(teams, ts)
		byID[p.Team.ID] = ts
	}

	var board Board
	for i := range events {
		e := &events[i]
		ts, ok := byID[teamOf(e)]
		if !ok {
			board.Dropped++
			continue
		}
		ts.add(e)
	}

	board.Teams = make([]TeamScoreAggregate, 0, len(teams))
	for _, ts := range teams {
		board.Teams = append(board.Teams, ts.finish(o.metric))
	}
	sort.SliceStable(board.Teams, func(i, j int) bool {
		return board.Teams[i].TeamTotal > board.Teams[j].TeamTotal
	})
	for i := range board.Teams {
		board.Teams[i].Rank = i + 1
	}
	return board
}

// teamOf resolves the owning team. Rows written before the team was recorded
// fall back to the first team of the match.
func teamOf(e *model.ScoreEvent) string {
	if e.TeamID != "" {
		return e.TeamID
	}
	if len(e.MatchTeamIDs) > 0 {
		return e.MatchTeamIDs[0]
	}
	return ""
}

func memberKey(e *model.ScoreEvent) string {
	if e.Member.ID != "" {
		return e.Member.ID
	}
	return e.TeamMemberID
}

func (ts *teamState) add(e *model.ScoreEvent) {
	key := memberKey(e)
	ms, ok := ts.members[key]
	if !ok {
		ms = &memberState{
			rollup: MemberRollup{Member: e.Member},
			games:  make(map[gameRef]int),
			frames: make(map[frameRef]frameState),
		}
		ts.members[key] = ms
		ts.order = append(ts.order, key)
	}

	g := gameRef{match: e.MatchID, number: e.GameNumber}
	total := e.TotalScore + e.Handicap
	if prev, seen := ms.games[g]; !seen {
		ms.games[g] = total
		ms.gameOrder = append(ms.gameOrder, g)
	} else if total > prev {
		ms.games[g] = total
	}

	ms.rollup.FramesCompleted = max(ms.rollup.FramesCompleted, e.Frame)
	ms.frames[frameRef{gameRef: g, frame: e.Frame}] = frameState{strike: e.IsStrike, spare: e.IsSpare}

	if ms.last == nil || !before(e, ms.last) {
		ms.last = e
	}
}

// before reports whether a was bowled before b. Rows from different matches
// are ordered by when they were recorded.
func before(a, b *model.ScoreEvent) bool {
	if a.MatchID != b.MatchID && !a.RecordedAt.Equal(b.RecordedAt) {
		return a.RecordedAt.Before(b.RecordedAt)
	}
	if a.GameNumber != b.GameNumber {
		return a.GameNumber < b.GameNumber
	}
	return a.Frame < b.Frame
}

func (ts *teamState) finish(m game.Metric) TeamScoreAggregate {
	agg := ts.agg
	for _, key := range ts.order {
		ms := ts.members[key]
		finals := make([]int, 0, len(ms.gameOrder))
		for _, g := range ms.gameOrder {
			finals = append(finals, ms.games[g])
		}
		ms.rollup.TotalScore = m.Combine(finals)
		ms.rollup.LastScore = LastScore(ms.last)
		// Marks count once per frame rather than once per row; a rewritten
		// frame contributes its latest state only.
		for _, f := range ms.frames {
			if f.strike {
				agg.Strikes++
			}
			if f.spare {
				agg.Spares++
			}
		}
		agg.TeamTotal += ms.rollup.TotalScore
		agg.Members = append(agg.Members, ms.rollup)
	}
	return agg
}

// LastScore renders a frame the way score sheets show it: "X" for a strike,
// "7-/" for a spare and "7-2" otherwise. Unset rolls render as 0.
func LastScore(e *model.ScoreEvent) string {
	if e == nil {
		return ""
	}
	switch {
	case e.IsStrike:
		return "X"
	case e.IsSpare:
		return fmt.Sprintf("%d-/", frame.Value(e.Roll1))
	default:
		return fmt.Sprintf("%d-%d", frame.Value(e.Roll1), frame.Value(e.Roll2))
	}
}
