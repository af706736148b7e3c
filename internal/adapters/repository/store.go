// Package repository stores score rows, team positions and the roster they
// refer to.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/strikeboard/internal/domain/model"
)

// Store provides read/write access to tournament scoring state.
type Store interface {
	// Seed loads roster data. Existing entries with the same ids are replaced.
	Seed(ctx context.Context, roster model.Roster) error

	// Match returns the match with id, or ErrNotFound.
	Match(ctx context.Context, id string) (model.Match, error)
	// TeamMember returns the team member with id, or ErrNotFound.
	TeamMember(ctx context.Context, id string) (model.TeamMember, error)

	// SaveGame writes the rows of one game. Rows are upserted per frame
	// (last write wins) and frames of the game missing from rows are removed.
	// Writes are ordered by the rows' RecordedAt; a write older than the
	// stored one returns ErrStale and changes nothing.
	SaveGame(ctx context.Context, game model.GameKey, rows []model.ScoreEvent) error
	// LiveScores returns every score row of a tournament ordered by
	// recording time.
	LiveScores(ctx context.Context, tournamentID string) ([]model.ScoreEvent, error)

	// TeamPositions returns the tournament's positions ordered by lane.
	TeamPositions(ctx context.Context, tournamentID string) ([]model.TeamPosition, error)
	// ReplaceTeamPositions swaps all positions of a tournament at once.
	ReplaceTeamPositions(ctx context.Context, tournamentID string, assignments []model.PositionAssignment) ([]model.TeamPosition, error)

	// Count returns the number of stored score rows.
	Count(ctx context.Context) int
}

// writeTime is the ordering stamp of a game write: the newest RecordedAt,
// or now when the card is empty.
func writeTime(rows []model.ScoreEvent) time.Time {
	var at time.Time
	for i := range rows {
		if rows[i].RecordedAt.After(at) {
			at = rows[i].RecordedAt
		}
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return at
}

func checkRows(game model.GameKey, rows []model.ScoreEvent) error {
	for i := range rows {
		if rows[i].Game() != game {
			return fmt.Errorf("%w: row %d is for %+v", ErrInvalidGame, i, rows[i].Game())
		}
	}
	return nil
}

func checkAssignments(assignments []model.PositionAssignment) error {
	teams := make(map[string]struct{}, len(assignments))
	slots := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		if a.TeamID == "" || a.LaneID == "" || a.Position == "" {
			return fmt.Errorf("%w: team, lane and position are required", ErrInvalidPosition)
		}
		if _, dup := teams[a.TeamID]; dup {
			return fmt.Errorf("%w: team %s assigned twice", ErrInvalidPosition, a.TeamID)
		}
		if _, dup := slots[a.Position]; dup {
			return fmt.Errorf("%w: position %s assigned twice", ErrInvalidPosition, a.Position)
		}
		teams[a.TeamID] = struct{}{}
		slots[a.Position] = struct{}{}
	}
	return nil
}
