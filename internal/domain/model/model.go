// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/strikeboard/internal/domain/frame"
)

// Member is a bowler as shown on spectator displays.
type Member struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender,omitempty"`
}

// Team is a tournament team with its display attributes.
type Team struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	BrandName string `json:"brandName,omitempty"`
}

// Lane is a physical lane of the bowling center.
type Lane struct {
	ID     string `json:"id"`
	LaneNo int    `json:"laneNo"`
}

// TeamPosition assigns a team to a lane and a display slot ("L1".."L10")
// for one tournament.
type TeamPosition struct {
	TournamentID string `json:"tournamentId"`
	Team         Team   `json:"team"`
	Lane         Lane   `json:"lane"`
	PositionNo   string `json:"positionNo"`
}

// PositionAssignment is the write shape of a team position.
type PositionAssignment struct {
	TeamID   string `json:"teamId"`
	LaneID   string `json:"laneId"`
	Position string `json:"position"`
}

// Match groups the teams that bowl together in a tournament.
type Match struct {
	ID           string   `json:"id"`
	TournamentID string   `json:"tournamentId"`
	TeamIDs      []string `json:"teamIds"`
}

// TeamMember links a member to the team they bowl for.
type TeamMember struct {
	ID     string `json:"id"`
	TeamID string `json:"teamId"`
	Member Member `json:"member"`
}

// ScoreEvent is one persisted score row: the state of a single frame of a
// member's game at the time it was last written.
type ScoreEvent struct {
	ID           string   `json:"id"`
	TournamentID string   `json:"tournamentId"`
	MatchID      string   `json:"matchId"`
	MatchTeamIDs []string `json:"matchTeamIds"`
	// TeamID is the owning team resolved from the team member at write
	// time. Rows written before that lookup existed leave it empty.
	TeamID       string `json:"teamId,omitempty"`
	TeamMemberID string `json:"teamMemberId"`
	Member       Member `json:"member"`

	GameNumber int  `json:"gameNumber"`
	Frame      int  `json:"frame"`
	Roll1      *int `json:"roll1"`
	Roll2      *int `json:"roll2"`
	Roll3      *int `json:"roll3,omitempty"`

	FrameScore int  `json:"frameScore"`
	TotalScore int  `json:"totalScore"` // best known cumulative score through this frame
	Handicap   int  `json:"handicap"`
	IsStrike   bool `json:"isStrike"`
	IsSpare    bool `json:"isSpare"`
	Pending    bool `json:"pending"` // the frame's own score still waits on later rolls

	RecordedAt time.Time `json:"recordedAt"`
}

// GameKey identifies one game of one member in a match.
type GameKey struct {
	MatchID      string
	TeamMemberID string
	GameNumber   int
}

// FrameKey identifies a single frame row; writes with the same key replace
// each other.
type FrameKey struct {
	GameKey
	Frame int
}

// Game returns the key of the game the event belongs to.
func (e *ScoreEvent) Game() GameKey {
	return GameKey{MatchID: e.MatchID, TeamMemberID: e.TeamMemberID, GameNumber: e.GameNumber}
}

// Key returns the frame-level identity of the event.
func (e *ScoreEvent) Key() FrameKey {
	return FrameKey{GameKey: e.Game(), Frame: e.Frame}
}

// LiveScores is everything a viewer needs to rebuild a tournament leaderboard.
type LiveScores struct {
	LiveScores    []ScoreEvent   `json:"liveScores"`
	TeamPositions []TeamPosition `json:"teamPositions"`
}

// RosterPosition seeds a team position for a tournament.
type RosterPosition struct {
	TournamentID string `json:"tournamentId"`
	TeamID       string `json:"teamId"`
	LaneID       string `json:"laneId"`
	Position     string `json:"position"`
}

// Roster is the boundary data this service reads but does not manage:
// teams, lanes, matches and who bowls for whom.
type Roster struct {
	Teams       []Team           `json:"teams"`
	Lanes       []Lane           `json:"lanes"`
	Matches     []Match          `json:"matches"`
	TeamMembers []TeamMember     `json:"teamMembers"`
	Positions   []RosterPosition `json:"positions"`
}

// Submission is a scorekeeper's write of one game, queued for scoring.
type Submission struct {
	ID           string        `json:"submissionId"`
	MatchID      string        `json:"matchId"`
	TeamMemberID string        `json:"teamMemberId"`
	GameNumber   int           `json:"gameNumber"`
	Frames       []frame.Frame `json:"frames"`
	Handicap     int           `json:"handicap"`
	ReceivedAt   time.Time     `json:"receivedAt"`
}

// Notification kinds pushed to viewers.
const (
	ScoreUpdated = "score-updated"
	SlotsUpdated = "slots-updated"
)

// Notification tells viewers of a tournament that their data is stale. It
// never carries the data itself.
type Notification struct {
	Type         string `json:"type"`
	TournamentID string `json:"tournamentId"`
}
