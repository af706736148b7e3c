package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/strikeboard/internal/adapters/repository"
	"github.com/okian/strikeboard/internal/domain/frame"
	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func seeded(ctx context.Context) *repository.MemoryStore {
	roster, err := repository.LoadRoster("testdata/roster.yaml")
	So(err, ShouldBeNil)
	s := repository.NewMemoryStore()
	So(s.Seed(ctx, roster), ShouldBeNil)
	return s
}

func row(game model.GameKey, frameNo, total int, at time.Time, rolls ...int) model.ScoreEvent {
	f := frame.New(frameNo, rolls...)
	return model.ScoreEvent{
		ID:           fmt.Sprintf("%s-%d-%d", game.TeamMemberID, game.GameNumber, frameNo),
		TournamentID: "spring-open",
		MatchID:      game.MatchID,
		TeamMemberID: game.TeamMemberID,
		GameNumber:   game.GameNumber,
		Frame:        frameNo,
		Roll1:        f.Roll1,
		Roll2:        f.Roll2,
		TotalScore:   total,
		RecordedAt:   at,
	}
}

func TestLoadRoster(t *testing.T) {
	Convey("Given the roster fixture", t, func() {
		roster, err := repository.LoadRoster("testdata/roster.yaml")

		Convey("Then every section is decoded", func() {
			So(err, ShouldBeNil)
			So(roster.Teams, ShouldHaveLength, 3)
			So(roster.Teams[0].BrandName, ShouldEqual, "Storm")
			So(roster.Lanes[1].LaneNo, ShouldEqual, 2)
			So(roster.Matches[0].TeamIDs, ShouldResemble, []string{"team-a", "team-b"})
			So(roster.TeamMembers[0].Member.Name, ShouldEqual, "Ana Ruiz")
			So(roster.Positions, ShouldHaveLength, 3)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := repository.LoadRoster("testdata/missing.yaml")
		So(err, ShouldNotBeNil)
	})

	Convey("Given the sample deployment roster", t, func() {
		roster, err := repository.LoadRoster("../../../deploy/roster.yaml")
		So(err, ShouldBeNil)

		Convey("Then it seeds a store with every team positioned", func() {
			s := repository.NewMemoryStore()
			So(s.Seed(context.Background(), roster), ShouldBeNil)
			positions, err := s.TeamPositions(context.Background(), "city-league")
			So(err, ShouldBeNil)
			So(positions, ShouldHaveLength, 4)
			So(positions[0].Team.Name, ShouldEqual, "The Strikers")
			So(roster.TeamMembers, ShouldHaveLength, 12)
		})
	})
}

func TestMemoryStoreRoster(t *testing.T) {
	ctx := context.Background()

	Convey("Given a seeded store", t, func() {
		s := seeded(ctx)

		Convey("Then roster lookups resolve", func() {
			m, err := s.Match(ctx, "match-1")
			So(err, ShouldBeNil)
			So(m.TournamentID, ShouldEqual, "spring-open")

			tm, err := s.TeamMember(ctx, "tm-cy")
			So(err, ShouldBeNil)
			So(tm.TeamID, ShouldEqual, "team-b")

			_, err = s.Match(ctx, "nope")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("And positions are ordered by lane", func() {
			p, err := s.TeamPositions(ctx, "spring-open")
			So(err, ShouldBeNil)
			So(p, ShouldHaveLength, 3)
			So(p[0].Team.ID, ShouldEqual, "team-a")
			So(p[0].PositionNo, ShouldEqual, "L1")
			So(p[1].Lane.LaneNo, ShouldEqual, 2)
		})

		Convey("When positions are replaced", func() {
			p, err := s.ReplaceTeamPositions(ctx, "spring-open", []model.PositionAssignment{
				{TeamID: "team-c", LaneID: "lane-1", Position: "L1"},
				{TeamID: "team-a", LaneID: "lane-2", Position: "L2"},
			})

			Convey("Then the new set fully replaces the old one", func() {
				So(err, ShouldBeNil)
				So(p, ShouldHaveLength, 2)
				got, _ := s.TeamPositions(ctx, "spring-open")
				So(got, ShouldResemble, p)
				So(got[0].Team.ID, ShouldEqual, "team-c")
			})
		})

		Convey("When a position names an unknown lane", func() {
			_, err := s.ReplaceTeamPositions(ctx, "spring-open", []model.PositionAssignment{
				{TeamID: "team-a", LaneID: "lane-9", Position: "L1"},
			})

			Convey("Then it is rejected and the old positions stay", func() {
				So(errors.Is(err, repository.ErrInvalidPosition), ShouldBeTrue)
				got, _ := s.TeamPositions(ctx, "spring-open")
				So(got, ShouldHaveLength, 3)
			})
		})

		Convey("When a team is assigned twice", func() {
			_, err := s.ReplaceTeamPositions(ctx, "spring-open", []model.PositionAssignment{
				{TeamID: "team-a", LaneID: "lane-1", Position: "L1"},
				{TeamID: "team-a", LaneID: "lane-2", Position: "L2"},
			})
			So(errors.Is(err, repository.ErrInvalidPosition), ShouldBeTrue)
		})
	})
}

func TestMemoryStoreScores(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	game := model.GameKey{MatchID: "match-1", TeamMemberID: "tm-ana", GameNumber: 1}

	Convey("Given a store with one game saved", t, func() {
		s := seeded(ctx)
		err := s.SaveGame(ctx, game, []model.ScoreEvent{
			row(game, 1, 9, base, 4, 5),
			row(game, 2, 17, base, 5, 3),
			row(game, 3, 25, base, 8, 0),
		})
		So(err, ShouldBeNil)
		So(s.Count(ctx), ShouldEqual, 3)

		Convey("When the game is saved again with a corrected frame", func() {
			err := s.SaveGame(ctx, game, []model.ScoreEvent{
				row(game, 1, 9, base.Add(time.Second), 4, 5),
				row(game, 2, 19, base.Add(time.Second), 5, 5),
			})

			Convey("Then rows are replaced per frame and vanished frames are removed", func() {
				So(err, ShouldBeNil)
				rows, err := s.LiveScores(ctx, "spring-open")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
				So(rows[1].Frame, ShouldEqual, 2)
				So(rows[1].TotalScore, ShouldEqual, 19)
			})
		})

		Convey("When another member's game is saved", func() {
			other := model.GameKey{MatchID: "match-1", TeamMemberID: "tm-cy", GameNumber: 1}
			So(s.SaveGame(ctx, other, []model.ScoreEvent{row(other, 1, 7, base.Add(-time.Minute), 7)}), ShouldBeNil)

			Convey("Then both games are live, oldest first", func() {
				rows, _ := s.LiveScores(ctx, "spring-open")
				So(rows, ShouldHaveLength, 4)
				So(rows[0].TeamMemberID, ShouldEqual, "tm-cy")
			})

			Convey("And other tournaments see nothing", func() {
				rows, err := s.LiveScores(ctx, "autumn-cup")
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})
		})

		Convey("When an older write of the game arrives late", func() {
			err := s.SaveGame(ctx, game, []model.ScoreEvent{
				row(game, 1, 9, base.Add(-time.Second), 4, 5),
			})

			Convey("Then it is refused and the newer rows stay", func() {
				So(errors.Is(err, repository.ErrStale), ShouldBeTrue)
				So(s.Count(ctx), ShouldEqual, 3)
			})
		})

		Convey("When rows of another game are passed", func() {
			other := model.GameKey{MatchID: "match-1", TeamMemberID: "tm-ana", GameNumber: 2}
			err := s.SaveGame(ctx, game, []model.ScoreEvent{row(other, 1, 7, base, 7)})

			Convey("Then the write is refused", func() {
				So(errors.Is(err, repository.ErrInvalidGame), ShouldBeTrue)
				So(s.Count(ctx), ShouldEqual, 3)
			})
		})
	})
}
