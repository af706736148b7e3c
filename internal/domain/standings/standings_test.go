package standings_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/strikeboard/internal/domain/frame"
	"github.com/okian/strikeboard/internal/domain/game"
	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/internal/domain/standings"
)

func position(teamID string, lane int, slot string) model.TeamPosition {
	return model.TeamPosition{
		TournamentID: "t1",
		Team:         model.Team{ID: teamID, Name: "Team " + teamID},
		Lane:         model.Lane{ID: "lane-" + slot, LaneNo: lane},
		PositionNo:   slot,
	}
}

func event(teamID, memberID string, gameNo, frameNo, total int, rolls ...int) model.ScoreEvent {
	e := model.ScoreEvent{
		TournamentID: "t1",
		MatchID:      "m1",
		MatchTeamIDs: []string{"A", "B"},
		TeamID:       teamID,
		TeamMemberID: "tm-" + memberID,
		Member:       model.Member{ID: memberID, Name: memberID},
		GameNumber:   gameNo,
		Frame:        frameNo,
		TotalScore:   total,
	}
	f := frame.New(frameNo, rolls...)
	e.Roll1, e.Roll2, e.Roll3 = f.Roll1, f.Roll2, f.Roll3
	e.IsStrike = len(rolls) > 0 && rolls[0] == frame.AllPins
	e.IsSpare = !e.IsStrike && len(rolls) > 1 && rolls[0]+rolls[1] == frame.AllPins
	return e
}

func TestAggregate(t *testing.T) {
	positions := []model.TeamPosition{position("A", 1, "L1"), position("B", 2, "L2"), position("C", 3, "L3")}

	Convey("Given events for two members of one team", t, func() {
		events := []model.ScoreEvent{
			event("A", "ana", 1, 1, 20, 10),
			event("A", "ana", 1, 2, 29, 7, 3),
			event("A", "bo", 1, 1, 9, 4, 5),
		}

		Convey("When the board is built", func() {
			board := standings.Aggregate(events, positions)
			a := board.ByTeam()["A"]

			Convey("Then the team holds both members in first-seen order", func() {
				So(a.Members, ShouldHaveLength, 2)
				So(a.Members[0].Member.ID, ShouldEqual, "ana")
				So(a.Members[0].TotalScore, ShouldEqual, 29)
				So(a.Members[0].FramesCompleted, ShouldEqual, 2)
				So(a.Members[0].LastScore, ShouldEqual, "7-/")
				So(a.Members[1].LastScore, ShouldEqual, "4-5")
				So(a.TeamTotal, ShouldEqual, 38)
				So(a.Strikes, ShouldEqual, 1)
				So(a.Spares, ShouldEqual, 1)
				So(a.LaneNo, ShouldEqual, 1)
				So(a.Position, ShouldEqual, "L1")
			})

			Convey("And building it again gives the same board", func() {
				So(standings.Aggregate(events, positions), ShouldResemble, board)
			})
		})
	})

	Convey("Given events that arrive out of frame order", t, func() {
		events := []model.ScoreEvent{
			event("A", "ana", 1, 5, 80, 9, 0),
			event("A", "ana", 1, 3, 50, 10),
		}

		Convey("Then the member keeps the highest total seen", func() {
			a := standings.Aggregate(events, positions).ByTeam()["A"]
			So(a.Members[0].TotalScore, ShouldEqual, 80)
			So(a.Members[0].FramesCompleted, ShouldEqual, 5)
			So(a.Members[0].LastScore, ShouldEqual, "9-0")
		})
	})

	Convey("Given teams with equal totals", t, func() {
		events := []model.ScoreEvent{
			event("A", "ana", 1, 1, 9, 4, 5),
			event("B", "bo", 1, 1, 20, 10),
			event("C", "cy", 1, 1, 9, 6, 3),
		}

		Convey("Then ties keep position order", func() {
			board := standings.Aggregate(events, positions)
			So(board.Teams[0].Team.ID, ShouldEqual, "B")
			So(board.Teams[1].Team.ID, ShouldEqual, "A")
			So(board.Teams[2].Team.ID, ShouldEqual, "C")
			So(board.Teams[0].Rank, ShouldEqual, 1)
			So(board.Teams[1].Rank, ShouldEqual, 2)
			So(board.Teams[2].Rank, ShouldEqual, 3)
		})
	})

	Convey("Given teams without any scores", t, func() {
		board := standings.Aggregate(nil, positions)

		Convey("Then every positioned team still appears with an empty card", func() {
			So(board.Teams, ShouldHaveLength, 3)
			So(board.Teams[0].Members, ShouldBeEmpty)
			So(board.Teams[0].TeamTotal, ShouldEqual, 0)
		})
	})

	Convey("Given rows without an explicit team", t, func() {
		legacy := event("", "ana", 1, 1, 9, 4, 5)
		unknown := event("Z", "zed", 1, 1, 9, 4, 5)

		Convey("Then they fall back to the first match team and unpositioned teams are dropped", func() {
			board := standings.Aggregate([]model.ScoreEvent{legacy, unknown}, positions)
			So(board.ByTeam()["A"].TeamTotal, ShouldEqual, 9)
			So(board.Dropped, ShouldEqual, 1)
		})
	})

	Convey("Given the same frame written twice", t, func() {
		events := []model.ScoreEvent{
			event("A", "ana", 1, 1, 0, 10),
			event("A", "ana", 1, 1, 9, 4, 5),
		}

		Convey("Then marks are counted once using the latest row", func() {
			a := standings.Aggregate(events, positions).ByTeam()["A"]
			So(a.Strikes, ShouldEqual, 0)
			So(a.Members[0].LastScore, ShouldEqual, "4-5")
		})
	})

	Convey("Given a member with several games and handicap", t, func() {
		g1 := event("A", "ana", 1, 10, 180)
		g1.Handicap = 10
		g2 := event("A", "ana", 2, 10, 150)
		g2.Handicap = 10

		Convey("Then the metric folds the per-game finals", func() {
			events := []model.ScoreEvent{g1, g2}
			sum := standings.Aggregate(events, positions).ByTeam()["A"]
			best := standings.Aggregate(events, positions, standings.WithMetric(game.BestGame)).ByTeam()["A"]
			avg := standings.Aggregate(events, positions, standings.WithMetric(game.AvgOfGames)).ByTeam()["A"]

			So(sum.TeamTotal, ShouldEqual, 350)
			So(best.TeamTotal, ShouldEqual, 190)
			So(avg.TeamTotal, ShouldEqual, 175)
		})
	})

	Convey("Given a member bowling game 1 in two matches", t, func() {
		first := event("A", "ana", 1, 10, 180)
		second := event("A", "ana", 1, 10, 120)
		second.MatchID = "m2"

		Convey("Then both games count toward the member", func() {
			a := standings.Aggregate([]model.ScoreEvent{first, second}, positions).ByTeam()["A"]
			So(a.Members, ShouldHaveLength, 1)
			So(a.Members[0].TotalScore, ShouldEqual, 300)
		})
	})

	Convey("Given a member who finished game 1 in one match and started game 1 in the next", t, func() {
		at := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
		finished := event("A", "ana", 1, 10, 200, 10, 10, 10)
		finished.RecordedAt = at
		started := event("A", "ana", 1, 2, 9, 7, 2)
		started.MatchID = "m2"
		started.RecordedAt = at.Add(time.Second)

		Convey("Then the last score is the most recently recorded frame", func() {
			a := standings.Aggregate([]model.ScoreEvent{started, finished}, positions).ByTeam()["A"]
			So(a.Members, ShouldHaveLength, 1)
			So(a.Members[0].LastScore, ShouldEqual, "7-2")
		})
	})
}

func TestLastScore(t *testing.T) {
	Convey("Given frames of each kind", t, func() {
		strike := event("A", "ana", 1, 1, 0, 10)
		spare := event("A", "ana", 1, 1, 0, 7, 3)
		open := event("A", "ana", 1, 1, 0, 7)

		So(standings.LastScore(&strike), ShouldEqual, "X")
		So(standings.LastScore(&spare), ShouldEqual, "7-/")
		So(standings.LastScore(&open), ShouldEqual, "7-0")
		So(standings.LastScore(nil), ShouldEqual, "")
	})
}
