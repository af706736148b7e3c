package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/strikeboard/internal/config"
	"github.com/okian/strikeboard/internal/domain/game"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.Notifier, convey.ShouldEqual, config.NotifierMemory)
			convey.So(cfg.Metric(), convey.ShouldEqual, game.TeamTotal)
			convey.So(cfg.Handicap().For(150), convey.ShouldEqual, 40)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given the defaults", t, func() {
		cfg := config.New(context.Background())

		cases := map[string]func(){
			"empty addr":             func() { cfg.Addr = " " },
			"unknown store":          func() { cfg.Store = "sqlite" },
			"postgres without url":   func() { cfg.Store = config.StorePostgres },
			"unknown notifier":       func() { cfg.Notifier = "kafka" },
			"unknown metric":         func() { cfg.AggregationMetric = "median" },
			"zero poll interval":     func() { cfg.ViewerPollIntervalMS = 0 },
			"no workers":             func() { cfg.WorkerCount = 0 },
			"negative handicap rate": func() { cfg.HandicapPercent = -1 },
		}
		for name, mutate := range cases {
			convey.Convey("When the config has "+name, func() {
				mutate()
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
