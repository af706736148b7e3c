package game_test

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/strikeboard/internal/domain/frame"
	"github.com/okian/strikeboard/internal/domain/game"
	"github.com/okian/strikeboard/internal/domain/model"
)

func framesOf(rolls ...[]int) []frame.Frame {
	out := frame.Empty()
	for i, r := range rolls {
		out[i] = frame.New(i+1, r...)
	}
	return out
}

func TestScore(t *testing.T) {
	Convey("Given a complete game with a handicap", t, func() {
		g := game.Game{
			MatchID: "m1", TeamMemberID: "tm1", GameNumber: 1, Handicap: 12,
			Frames: framesOf([]int{7, 3}, []int{4, 2}, []int{10}, []int{3, 3}, []int{0, 0},
				[]int{0, 0}, []int{0, 0}, []int{0, 0}, []int{0, 0}, []int{1, 1}),
		}

		Convey("When it is scored", func() {
			s, err := game.Score(g)

			Convey("Then totals and the final score include the handicap", func() {
				So(err, ShouldBeNil)
				So(s.Complete, ShouldBeTrue)
				So(s.TotalScore, ShouldEqual, 14+6+16+6+2)
				So(s.FinalScore, ShouldEqual, s.TotalScore+12)
			})
		})
	})

	Convey("Given a game in progress", t, func() {
		g := game.Game{MatchID: "m1", TeamMemberID: "tm1", GameNumber: 1,
			Frames: framesOf([]int{4, 3}, []int{10})}

		Convey("Then the total is the latest determined running total", func() {
			s, err := game.Score(g)
			So(err, ShouldBeNil)
			So(s.Complete, ShouldBeFalse)
			So(s.TotalScore, ShouldEqual, 7)
		})
	})

	Convey("Given invalid frames", t, func() {
		g := game.Game{MatchID: "m1", TeamMemberID: "tm1", GameNumber: 1,
			Frames: framesOf([]int{8, 5})}

		Convey("Then scoring fails with a frame validation error", func() {
			_, err := game.Score(g)
			So(errors.Is(err, frame.ErrInvalidFrame), ShouldBeTrue)
		})
	})

	Convey("Given a game without an owner", t, func() {
		_, err := game.Score(game.Game{GameNumber: 1, Frames: frame.Empty()})
		So(errors.Is(err, game.ErrInvalidGame), ShouldBeTrue)
	})
}

func TestEvents(t *testing.T) {
	Convey("Given a scored game with a pending strike", t, func() {
		s, err := game.Score(game.Game{MatchID: "m1", TeamMemberID: "tm1", GameNumber: 2, Handicap: 5,
			Frames: framesOf([]int{4, 3}, []int{10}, []int{6})})
		So(err, ShouldBeNil)

		events := game.Events(s, game.Meta{
			TournamentID: "t1",
			MatchTeamIDs: []string{"A", "B"},
			TeamID:       "B",
			Member:       model.Member{ID: "p1", Name: "Ana"},
		})

		Convey("Then one event is emitted per started frame", func() {
			So(events, ShouldHaveLength, 3)
			So(events[2].Frame, ShouldEqual, 3)
		})

		Convey("And undetermined frames carry the best known total", func() {
			So(events[0].Pending, ShouldBeFalse)
			So(events[0].TotalScore, ShouldEqual, 7)
			So(events[1].Pending, ShouldBeTrue)
			So(events[1].IsStrike, ShouldBeTrue)
			So(events[1].TotalScore, ShouldEqual, 7)
			So(events[2].Pending, ShouldBeTrue)
		})

		Convey("And roster context is copied onto every row", func() {
			for _, e := range events {
				So(e.ID, ShouldNotBeEmpty)
				So(e.TournamentID, ShouldEqual, "t1")
				So(e.TeamID, ShouldEqual, "B")
				So(e.Handicap, ShouldEqual, 5)
				So(e.GameNumber, ShouldEqual, 2)
				So(e.RecordedAt.IsZero(), ShouldBeFalse)
			}
		})
	})
}

func TestMetric(t *testing.T) {
	Convey("Given per-game scores", t, func() {
		scores := []int{180, 201, 150}

		Convey("Then each metric folds them its own way", func() {
			So(game.TeamTotal.Combine(scores), ShouldEqual, 531)
			So(game.AvgOfGames.Combine(scores), ShouldEqual, 177)
			So(game.BestGame.Combine(scores), ShouldEqual, 201)
			So(game.AvgOfGames.Combine([]int{100, 101}), ShouldEqual, 101)
			So(game.BestGame.Combine(nil), ShouldEqual, 0)
		})
	})

	Convey("Given metric names", t, func() {
		m, err := game.ParseMetric("best_game")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, game.BestGame)

		m, err = game.ParseMetric("")
		So(err, ShouldBeNil)
		So(m, ShouldEqual, game.TeamTotal)

		_, err = game.ParseMetric("median")
		So(errors.Is(err, game.ErrUnknownMetric), ShouldBeTrue)
	})
}
