package main

import (
	"runtime"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/okian/strikeboard/pkg/metrics"
)

const (
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// statsSource is the part of the service the refresh jobs read.
type statsSource interface {
	GetStats() map[string]interface{}
}

// startMetricsJobs schedules the periodic gauge refreshes and starts the
// scheduler. The caller owns Shutdown.
func startMetricsJobs(svc statsSource) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	if _, err := s.NewJob(
		gocron.DurationJob(systemMetricsInterval),
		gocron.NewTask(updateSystemMetrics),
		gocron.WithName("system-metrics"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, err
	}
	if _, err := s.NewJob(
		gocron.DurationJob(serviceMetricsInterval),
		gocron.NewTask(func() { updateServiceMetrics(svc) }),
		gocron.WithName("service-metrics"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, err
	}
	s.Start()
	return s, nil
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes the service gauges. GetStats updates queue
// length and row count itself.
func updateServiceMetrics(svc statsSource) {
	stats := svc.GetStats()
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if viewers, ok := stats["viewers"].(int); ok {
		metrics.UpdateWSClients(viewers)
	}
}
