package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/pkg/metrics"
)

type storedRow struct {
	event model.ScoreEvent
	seq   uint64
}

// MemoryStore is an in-process Store guarded by a single RWMutex.
type MemoryStore struct {
	mu sync.RWMutex

	teams     map[string]model.Team
	lanes     map[string]model.Lane
	matches   map[string]model.Match
	members   map[string]model.TeamMember
	positions map[string][]model.TeamPosition // by tournament

	rows    map[model.FrameKey]storedRow
	written map[model.GameKey]time.Time
	seq     uint64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:     make(map[string]model.Team),
		lanes:     make(map[string]model.Lane),
		matches:   make(map[string]model.Match),
		members:   make(map[string]model.TeamMember),
		positions: make(map[string][]model.TeamPosition),
		rows:      make(map[model.FrameKey]storedRow),
		written:   make(map[model.GameKey]time.Time),
	}
}

// Seed implements Store.
func (s *MemoryStore) Seed(ctx context.Context, roster model.Roster) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range roster.Teams {
		s.teams[t.ID] = t
	}
	for _, l := range roster.Lanes {
		s.lanes[l.ID] = l
	}
	for _, m := range roster.Matches {
		s.matches[m.ID] = m
	}
	for _, tm := range roster.TeamMembers {
		s.members[tm.ID] = tm
	}

	byTournament := make(map[string][]model.PositionAssignment)
	order := []string{}
	for _, p := range roster.Positions {
		if _, ok := byTournament[p.TournamentID]; !ok {
			order = append(order, p.TournamentID)
		}
		byTournament[p.TournamentID] = append(byTournament[p.TournamentID], model.PositionAssignment{
			TeamID: p.TeamID, LaneID: p.LaneID, Position: p.Position,
		})
	}
	for _, id := range order {
		positions, err := s.resolve(id, byTournament[id])
		if err != nil {
			return fmt.Errorf("seed tournament %s: %w", id, err)
		}
		s.positions[id] = positions
	}
	return nil
}

// Match implements Store.
func (s *MemoryStore) Match(_ context.Context, id string) (model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return model.Match{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	return m, nil
}

// TeamMember implements Store.
func (s *MemoryStore) TeamMember(_ context.Context, id string) (model.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tm, ok := s.members[id]
	if !ok {
		return model.TeamMember{}, fmt.Errorf("team member %s: %w", id, ErrNotFound)
	}
	return tm, nil
}

// SaveGame implements Store.
func (s *MemoryStore) SaveGame(_ context.Context, game model.GameKey, rows []model.ScoreEvent) error {
	if err := checkRows(game, rows); err != nil {
		return err
	}
	start := time.Now()
	at := writeTime(rows)

	s.mu.Lock()
	if prev, ok := s.written[game]; ok && prev.After(at) {
		s.mu.Unlock()
		return ErrStale
	}
	s.written[game] = at
	keep := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		s.seq++
		s.rows[r.Key()] = storedRow{event: r, seq: s.seq}
		keep[r.Frame] = struct{}{}
	}
	for key := range s.rows {
		if key.GameKey != game {
			continue
		}
		if _, ok := keep[key.Frame]; !ok {
			delete(s.rows, key)
		}
	}
	count := len(s.rows)
	s.mu.Unlock()

	metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateScoreRows(count)
	return nil
}

// LiveScores implements Store.
func (s *MemoryStore) LiveScores(_ context.Context, tournamentID string) ([]model.ScoreEvent, error) {
	start := time.Now()
	s.mu.RLock()
	found := make([]storedRow, 0)
	for _, r := range s.rows {
		if r.event.TournamentID == tournamentID {
			found = append(found, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if !a.event.RecordedAt.Equal(b.event.RecordedAt) {
			return a.event.RecordedAt.Before(b.event.RecordedAt)
		}
		return a.seq < b.seq
	})
	out := make([]model.ScoreEvent, len(found))
	for i, r := range found {
		out[i] = r.event
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	return out, nil
}

// TeamPositions implements Store.
func (s *MemoryStore) TeamPositions(_ context.Context, tournamentID string) ([]model.TeamPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TeamPosition(nil), s.positions[tournamentID]...), nil
}

// ReplaceTeamPositions implements Store.
func (s *MemoryStore) ReplaceTeamPositions(_ context.Context, tournamentID string, assignments []model.PositionAssignment) ([]model.TeamPosition, error) {
	if err := checkAssignments(assignments); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	positions, err := s.resolve(tournamentID, assignments)
	if err != nil {
		return nil, err
	}
	s.positions[tournamentID] = positions
	return append([]model.TeamPosition(nil), positions...), nil
}

// Count implements Store.
func (s *MemoryStore) Count(context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// resolve expands assignments into positions. Callers hold s.mu.
func (s *MemoryStore) resolve(tournamentID string, assignments []model.PositionAssignment) ([]model.TeamPosition, error) {
	out := make([]model.TeamPosition, 0, len(assignments))
	for _, a := range assignments {
		team, ok := s.teams[a.TeamID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown team %s", ErrInvalidPosition, a.TeamID)
		}
		lane, ok := s.lanes[a.LaneID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown lane %s", ErrInvalidPosition, a.LaneID)
		}
		out = append(out, model.TeamPosition{
			TournamentID: tournamentID,
			Team:         team,
			Lane:         lane,
			PositionNo:   a.Position,
		})
	}
	sortPositions(out)
	return out, nil
}

func sortPositions(p []model.TeamPosition) {
	sort.SliceStable(p, func(i, j int) bool {
		if p[i].Lane.LaneNo != p[j].Lane.LaneNo {
			return p[i].Lane.LaneNo < p[j].Lane.LaneNo
		}
		return p[i].PositionNo < p[j].PositionNo
	})
}
