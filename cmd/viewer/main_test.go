package main

import (
	"bytes"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/strikeboard/internal/domain/standings"
)

func TestWebsocketURL(t *testing.T) {
	convey.Convey("Given server base URLs", t, func() {
		cases := map[string]string{
			"http://localhost:9080":       "ws://localhost:9080/ws",
			"https://scores.example.com/": "wss://scores.example.com/ws",
			"http://host/strikeboard":     "ws://host/strikeboard/ws",
			"ws://host:1":                 "ws://host:1/ws",
		}
		for in, want := range cases {
			got, err := websocketURL(in)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldEqual, want)
		}

		convey.Convey("Then other schemes are refused", func() {
			_, err := websocketURL("ftp://host")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestDraw(t *testing.T) {
	convey.Convey("Given an empty board", t, func() {
		var buf bytes.Buffer
		err := draw(&buf, "spring-open", standings.Board{})

		convey.Convey("Then the tournament and the table header are written", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(buf.String(), convey.ShouldStartWith, "spring-open\n\n")
			convey.So(buf.String(), convey.ShouldContainSubstring, "RANK")
		})
	})
}
