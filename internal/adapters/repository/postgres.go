package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/pkg/metrics"
)

// Connection pool limits.
const (
	maxOpenConns = 25
	maxIdleConns = 5
)

// PostgresStore is a Store backed by PostgreSQL through lib/pq.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// Connect opens and pings a PostgreSQL database.
func Connect(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	return db, nil
}

// Migrate creates the tables this service reads and writes.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS teams (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			brand_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS lanes (
			id TEXT PRIMARY KEY,
			lane_no INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			tournament_id TEXT NOT NULL,
			team_ids TEXT[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS team_members (
			id TEXT PRIMARY KEY,
			team_id TEXT NOT NULL,
			member_id TEXT NOT NULL,
			member_name TEXT NOT NULL,
			member_gender TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS team_positions (
			tournament_id TEXT NOT NULL,
			team_id TEXT NOT NULL REFERENCES teams(id),
			lane_id TEXT NOT NULL REFERENCES lanes(id),
			position_no TEXT NOT NULL,
			PRIMARY KEY (tournament_id, team_id)
		)`,
		`CREATE TABLE IF NOT EXISTS score_events (
			id TEXT NOT NULL,
			tournament_id TEXT NOT NULL,
			match_id TEXT NOT NULL,
			match_team_ids TEXT[] NOT NULL DEFAULT '{}',
			team_id TEXT NOT NULL DEFAULT '',
			team_member_id TEXT NOT NULL,
			member_id TEXT NOT NULL DEFAULT '',
			member_name TEXT NOT NULL DEFAULT '',
			member_gender TEXT NOT NULL DEFAULT '',
			game_number INTEGER NOT NULL,
			frame INTEGER NOT NULL,
			roll1 INTEGER,
			roll2 INTEGER,
			roll3 INTEGER,
			frame_score INTEGER NOT NULL DEFAULT 0,
			total_score INTEGER NOT NULL DEFAULT 0,
			handicap INTEGER NOT NULL DEFAULT 0,
			is_strike BOOLEAN NOT NULL DEFAULT FALSE,
			is_spare BOOLEAN NOT NULL DEFAULT FALSE,
			pending BOOLEAN NOT NULL DEFAULT FALSE,
			recorded_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (match_id, team_member_id, game_number, frame)
		)`,
		`CREATE TABLE IF NOT EXISTS game_writes (
			match_id TEXT NOT NULL,
			team_member_id TEXT NOT NULL,
			game_number INTEGER NOT NULL,
			written_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (match_id, team_member_id, game_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_score_events_tournament ON score_events(tournament_id, recorded_at)`,
	}
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// NewPostgresStore wraps an open database. Call Migrate first.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Seed implements Store.
func (s *PostgresStore) Seed(ctx context.Context, roster model.Roster) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range roster.Teams {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO teams (id, name, color, brand_name) VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE SET name = $2, color = $3, brand_name = $4`,
				t.ID, t.Name, t.Color, t.BrandName); err != nil {
				return fmt.Errorf("seed team %s: %w", t.ID, err)
			}
		}
		for _, l := range roster.Lanes {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO lanes (id, lane_no) VALUES ($1, $2)
				ON CONFLICT (id) DO UPDATE SET lane_no = $2`, l.ID, l.LaneNo); err != nil {
				return fmt.Errorf("seed lane %s: %w", l.ID, err)
			}
		}
		for _, m := range roster.Matches {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO matches (id, tournament_id, team_ids) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET tournament_id = $2, team_ids = $3`,
				m.ID, m.TournamentID, pq.Array(m.TeamIDs)); err != nil {
				return fmt.Errorf("seed match %s: %w", m.ID, err)
			}
		}
		for _, tm := range roster.TeamMembers {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO team_members (id, team_id, member_id, member_name, member_gender)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET team_id = $2, member_id = $3, member_name = $4, member_gender = $5`,
				tm.ID, tm.TeamID, tm.Member.ID, tm.Member.Name, tm.Member.Gender); err != nil {
				return fmt.Errorf("seed team member %s: %w", tm.ID, err)
			}
		}
		for _, p := range roster.Positions {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO team_positions (tournament_id, team_id, lane_id, position_no)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (tournament_id, team_id) DO UPDATE SET lane_id = $3, position_no = $4`,
				p.TournamentID, p.TeamID, p.LaneID, p.Position); err != nil {
				return fmt.Errorf("seed position %s/%s: %w", p.TournamentID, p.TeamID, err)
			}
		}
		return nil
	})
}

// Match implements Store.
func (s *PostgresStore) Match(ctx context.Context, id string) (model.Match, error) {
	m := model.Match{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT tournament_id, team_ids FROM matches WHERE id = $1`, id).
		Scan(&m.TournamentID, pq.Array(&m.TeamIDs))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Match{}, fmt.Errorf("match %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Match{}, fmt.Errorf("match %s: %w", id, err)
	}
	return m, nil
}

// TeamMember implements Store.
func (s *PostgresStore) TeamMember(ctx context.Context, id string) (model.TeamMember, error) {
	tm := model.TeamMember{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT team_id, member_id, member_name, member_gender FROM team_members WHERE id = $1`, id).
		Scan(&tm.TeamID, &tm.Member.ID, &tm.Member.Name, &tm.Member.Gender)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TeamMember{}, fmt.Errorf("team member %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.TeamMember{}, fmt.Errorf("team member %s: %w", id, err)
	}
	return tm, nil
}

// SaveGame implements Store.
func (s *PostgresStore) SaveGame(ctx context.Context, game model.GameKey, rows []model.ScoreEvent) error {
	if err := checkRows(game, rows); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO game_writes (match_id, team_member_id, game_number, written_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (match_id, team_member_id, game_number) DO UPDATE SET written_at = EXCLUDED.written_at
			WHERE game_writes.written_at <= EXCLUDED.written_at`,
			game.MatchID, game.TeamMemberID, game.GameNumber, writeTime(rows))
		if err != nil {
			return fmt.Errorf("order write: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrStale
		}

		frames := make([]int64, 0, len(rows))
		for i := range rows {
			r := &rows[i]
			frames = append(frames, int64(r.Frame))
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO score_events (
					id, tournament_id, match_id, match_team_ids, team_id, team_member_id,
					member_id, member_name, member_gender, game_number, frame,
					roll1, roll2, roll3, frame_score, total_score, handicap,
					is_strike, is_spare, pending, recorded_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
				ON CONFLICT (match_id, team_member_id, game_number, frame) DO UPDATE SET
					id = EXCLUDED.id,
					tournament_id = EXCLUDED.tournament_id,
					match_team_ids = EXCLUDED.match_team_ids,
					team_id = EXCLUDED.team_id,
					member_id = EXCLUDED.member_id,
					member_name = EXCLUDED.member_name,
					member_gender = EXCLUDED.member_gender,
					roll1 = EXCLUDED.roll1,
					roll2 = EXCLUDED.roll2,
					roll3 = EXCLUDED.roll3,
					frame_score = EXCLUDED.frame_score,
					total_score = EXCLUDED.total_score,
					handicap = EXCLUDED.handicap,
					is_strike = EXCLUDED.is_strike,
					is_spare = EXCLUDED.is_spare,
					pending = EXCLUDED.pending,
					recorded_at = EXCLUDED.recorded_at`,
				r.ID, r.TournamentID, r.MatchID, pq.Array(r.MatchTeamIDs), r.TeamID, r.TeamMemberID,
				r.Member.ID, r.Member.Name, r.Member.Gender, r.GameNumber, r.Frame,
				nullInt(r.Roll1), nullInt(r.Roll2), nullInt(r.Roll3), r.FrameScore, r.TotalScore, r.Handicap,
				r.IsStrike, r.IsSpare, r.Pending, r.RecordedAt); err != nil {
				return fmt.Errorf("upsert frame %d: %w", r.Frame, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM score_events
			WHERE match_id = $1 AND team_member_id = $2 AND game_number = $3 AND NOT (frame = ANY($4))`,
			game.MatchID, game.TeamMemberID, game.GameNumber, pq.Array(frames)); err != nil {
			return fmt.Errorf("prune frames: %w", err)
		}
		return nil
	})
}

// LiveScores implements Store.
func (s *PostgresStore) LiveScores(ctx context.Context, tournamentID string) ([]model.ScoreEvent, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tournament_id, match_id, match_team_ids, team_id, team_member_id,
			member_id, member_name, member_gender, game_number, frame,
			roll1, roll2, roll3, frame_score, total_score, handicap,
			is_strike, is_spare, pending, recorded_at
		FROM score_events
		WHERE tournament_id = $1
		ORDER BY recorded_at, match_id, team_member_id, game_number, frame`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("live scores %s: %w", tournamentID, err)
	}
	defer rows.Close()

	out := make([]model.ScoreEvent, 0)
	for rows.Next() {
		var (
			e                   model.ScoreEvent
			roll1, roll2, roll3 sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.TournamentID, &e.MatchID, pq.Array(&e.MatchTeamIDs), &e.TeamID, &e.TeamMemberID,
			&e.Member.ID, &e.Member.Name, &e.Member.Gender, &e.GameNumber, &e.Frame,
			&roll1, &roll2, &roll3, &e.FrameScore, &e.TotalScore, &e.Handicap,
			&e.IsStrike, &e.IsSpare, &e.Pending, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan score row: %w", err)
		}
		e.Roll1, e.Roll2, e.Roll3 = intPtr(roll1), intPtr(roll2), intPtr(roll3)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("live scores %s: %w", tournamentID, err)
	}
	return out, nil
}

// TeamPositions implements Store.
func (s *PostgresStore) TeamPositions(ctx context.Context, tournamentID string) ([]model.TeamPosition, error) {
	return queryPositions(ctx, s.db, tournamentID)
}

// ReplaceTeamPositions implements Store.
func (s *PostgresStore) ReplaceTeamPositions(ctx context.Context, tournamentID string, assignments []model.PositionAssignment) ([]model.TeamPosition, error) {
	if err := checkAssignments(assignments); err != nil {
		return nil, err
	}
	var out []model.TeamPosition
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM team_positions WHERE tournament_id = $1`, tournamentID); err != nil {
			return fmt.Errorf("clear positions: %w", err)
		}
		for _, a := range assignments {
			var known bool
			if err := tx.QueryRowContext(ctx, `
				SELECT EXISTS (SELECT 1 FROM teams WHERE id = $1) AND EXISTS (SELECT 1 FROM lanes WHERE id = $2)`,
				a.TeamID, a.LaneID).Scan(&known); err != nil {
				return fmt.Errorf("check position: %w", err)
			}
			if !known {
				return fmt.Errorf("%w: unknown team %s or lane %s", ErrInvalidPosition, a.TeamID, a.LaneID)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO team_positions (tournament_id, team_id, lane_id, position_no) VALUES ($1, $2, $3, $4)`,
				tournamentID, a.TeamID, a.LaneID, a.Position); err != nil {
				return fmt.Errorf("insert position: %w", err)
			}
		}
		var err error
		out, err = queryPositions(ctx, tx, tournamentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count implements Store.
func (s *PostgresStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM score_events`).Scan(&n); err != nil {
		return 0
	}
	return n
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryPositions(ctx context.Context, q querier, tournamentID string) ([]model.TeamPosition, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.brand_name, l.id, l.lane_no, p.position_no
		FROM team_positions p
		JOIN teams t ON t.id = p.team_id
		JOIN lanes l ON l.id = p.lane_id
		WHERE p.tournament_id = $1
		ORDER BY l.lane_no, p.position_no`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("team positions %s: %w", tournamentID, err)
	}
	defer rows.Close()

	out := make([]model.TeamPosition, 0)
	for rows.Next() {
		p := model.TeamPosition{TournamentID: tournamentID}
		if err := rows.Scan(&p.Team.ID, &p.Team.Name, &p.Team.Color, &p.Team.BrandName,
			&p.Lane.ID, &p.Lane.LaneNo, &p.PositionNo); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
