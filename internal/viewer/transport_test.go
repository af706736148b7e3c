package viewer_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/strikeboard/internal/adapters/http/ws"
	"github.com/okian/strikeboard/internal/domain/model"
	"github.com/okian/strikeboard/internal/viewer"
)

func next(events <-chan viewer.ChannelEvent) (viewer.ChannelEvent, bool) {
	select {
	case ev, ok := <-events:
		return ev, ok
	case <-time.After(2 * time.Second):
		return viewer.ChannelEvent{}, false
	}
}

func TestWSDialer(t *testing.T) {
	Convey("Given a hub behind an HTTP server", t, func() {
		hubCtx, stopHub := context.WithCancel(context.Background())
		hub := ws.NewHub()
		go hub.Run(hubCtx)
		srv := httptest.NewServer(hub)
		defer srv.Close()
		defer stopHub()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		d := &viewer.WSDialer{
			URL:   "ws" + strings.TrimPrefix(srv.URL, "http"),
			Clock: clockwork.NewFakeClock(),
		}
		events, err := d.Dial(ctx, "t1")
		So(err, ShouldBeNil)

		Convey("Then it connects, joins and relays notifications", func() {
			ev, ok := next(events)
			So(ok, ShouldBeTrue)
			So(ev.Kind, ShouldEqual, viewer.Connected)

			relayed := eventually(func() bool {
				hub.Notify(model.Notification{Type: model.ScoreUpdated, TournamentID: "t1"})
				select {
				case ev = <-events:
					return true
				case <-time.After(20 * time.Millisecond):
					return false
				}
			})
			So(relayed, ShouldBeTrue)
			So(ev.Kind, ShouldEqual, viewer.Notification)
			So(ev.Notification.TournamentID, ShouldEqual, "t1")

			Convey("And reports the drop when the server goes away", func() {
				stopHub()
				var kind viewer.EventKind
				for {
					ev, ok = next(events)
					So(ok, ShouldBeTrue)
					if ev.Kind != viewer.Notification {
						kind = ev.Kind
						break
					}
				}
				So(kind, ShouldEqual, viewer.Disconnected)
			})
		})

		Convey("Then cancelling closes the event channel", func() {
			_, _ = next(events)
			cancel()
			closed := eventually(func() bool {
				select {
				case _, ok := <-events:
					return !ok
				default:
					return false
				}
			})
			So(closed, ShouldBeTrue)
		})
	})

	Convey("Given an unreachable server", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		d := &viewer.WSDialer{URL: "ws://127.0.0.1:1/ws", Clock: clockwork.NewFakeClock()}
		events, err := d.Dial(ctx, "t1")
		So(err, ShouldBeNil)

		ev, ok := next(events)
		So(ok, ShouldBeTrue)
		So(ev.Kind, ShouldEqual, viewer.Disconnected)
	})

	Convey("Given a non-websocket URL", t, func() {
		_, err := (&viewer.WSDialer{URL: "http://localhost/ws"}).Dial(context.Background(), "t1")
		So(err, ShouldNotBeNil)
	})
}

func TestHTTPPuller(t *testing.T) {
	Convey("Given a live-scores endpoint", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/tournaments/t1/live-scores" {
				http.NotFound(w, r)
				return
			}
			_ = json.NewEncoder(w).Encode(model.LiveScores{
				LiveScores:    []model.ScoreEvent{{ID: "e1", TournamentID: "t1"}},
				TeamPositions: []model.TeamPosition{{TournamentID: "t1", PositionNo: "L1"}},
			})
		}))
		defer srv.Close()
		p := viewer.NewHTTPPuller(srv.URL + "/")

		Convey("Then a pull decodes the snapshot", func() {
			live, err := p.Pull(context.Background(), "t1")
			So(err, ShouldBeNil)
			So(live.LiveScores, ShouldHaveLength, 1)
			So(live.TeamPositions[0].PositionNo, ShouldEqual, "L1")
		})

		Convey("Then a non-200 reply is a pull error", func() {
			_, err := p.Pull(context.Background(), "t9")
			So(errors.Is(err, viewer.ErrPull), ShouldBeTrue)
		})
	})
}
