package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/okian/strikeboard/internal/app"
	"github.com/okian/strikeboard/internal/config"
	"github.com/okian/strikeboard/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type staticStats map[string]interface{}

func (s staticStats) GetStats() map[string]interface{} { return s }

func TestServerConfiguration(t *testing.T) {
	convey.Convey("Given server environment variables", t, func() {
		_ = os.Setenv("STRIKEBOARD_ADDR", ":8081")
		_ = os.Setenv("STRIKEBOARD_QUEUE_SIZE", "1000")
		_ = os.Setenv("STRIKEBOARD_WORKER_COUNT", "4")
		defer func() {
			_ = os.Unsetenv("STRIKEBOARD_ADDR")
			_ = os.Unsetenv("STRIKEBOARD_QUEUE_SIZE")
			_ = os.Unsetenv("STRIKEBOARD_WORKER_COUNT")
		}()

		convey.Convey("When the configuration is loaded", func() {
			cfg, err := config.Load(context.Background())

			convey.Convey("Then the overrides are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the address is blanked", func() {
			_ = os.Setenv("STRIKEBOARD_ADDR", "")
			cfg, err := config.Load(context.Background())

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestServiceWiring(t *testing.T) {
	convey.Convey("Given a started service with the default configuration", t, func() {
		cfg := config.New(context.Background())
		cfg.WorkerCount = 1
		svc := service.New(service.WithConfig(cfg))
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("Then it exposes a handler", func() {
			convey.So(svc.Handler(), convey.ShouldNotBeNil)
		})

		convey.Convey("Then the service metrics job reads its stats", func() {
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMetricsJobs(t *testing.T) {
	convey.Convey("Given the metrics refresh jobs", t, func() {
		convey.Convey("When the system metrics are updated directly", func() {
			convey.Convey("Then nothing panics", func() {
				convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When stats lack the expected keys", func() {
			convey.Convey("Then the service job skips them", func() {
				convey.So(func() { updateServiceMetrics(staticStats{"started": false}) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When the scheduler is started", func() {
			s, err := startMetricsJobs(staticStats{"workerCount": 2, "viewers": 1})
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then both jobs are registered and it shuts down", func() {
				convey.So(s.Jobs(), convey.ShouldHaveLength, 2)
				time.Sleep(10 * time.Millisecond)
				convey.So(s.Shutdown(), convey.ShouldBeNil)
			})
		})
	})
}
