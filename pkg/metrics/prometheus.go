package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes used as label values.
const (
	SubmissionAccepted  = "accepted"
	SubmissionDuplicate = "duplicate"
	SubmissionInvalid   = "invalid"
	SubmissionRejected  = "rejected"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Scoring
	submissions    *prometheus.CounterVec
	scoringLatency prometheus.Histogram
	scoringErrors  prometheus.Counter

	// Store
	scoreRows         prometheus.Gauge
	storeWriteLatency prometheus.Histogram
	storeQueryLatency prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Distribution
	notificationsPublished *prometheus.CounterVec
	notificationsDelivered prometheus.Counter
	notificationsDropped   prometheus.Counter
	wsClients              prometheus.Gauge
	viewerPulls            *prometheus.CounterVec

	// Aggregation
	aggregationPasses   prometheus.Counter
	aggregationLatency  prometheus.Histogram
	eventsDroppedByTeam prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "strikeboard",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.submissions = m.counterVec("score_submissions_total",
		"Score submissions by outcome (accepted, duplicate, invalid, rejected)", "status")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds",
		"Time to validate and score one game in milliseconds", m.histogramBuckets)
	m.scoringErrors = m.counter("scoring_errors_total", "Games that failed scoring in a worker")

	m.scoreRows = m.gauge("score_rows", "Per-frame score rows held by the store")
	m.storeWriteLatency = m.histogram("store_write_latency_milliseconds",
		"Store write latency in milliseconds", m.histogramBuckets)
	m.storeQueryLatency = m.histogram("store_query_latency_milliseconds",
		"Store query latency in milliseconds", m.histogramBuckets)

	m.queueSize = m.gauge("queue_size", "Submissions waiting to be scored")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (size / capacity)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Submissions enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Submissions dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Submissions rejected by a full or closed queue")

	m.workerCount = m.gauge("worker_count", "Scoring workers running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Time from dequeue to notification in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Worker failures while persisting or publishing")

	m.notificationsPublished = m.counterVec("notifications_published_total",
		"Invalidation notifications published by kind", "kind")
	m.notificationsDelivered = m.counter("notifications_delivered_total", "Notifications written to viewer connections")
	m.notificationsDropped = m.counter("notifications_dropped_total", "Notifications dropped for slow subscribers")
	m.wsClients = m.gauge("ws_clients", "Connected websocket viewers")
	m.viewerPulls = m.counterVec("viewer_pulls_total", "Viewer live score pulls by result", "result")

	m.aggregationPasses = m.counter("aggregation_passes_total", "Leaderboard aggregation passes")
	m.aggregationLatency = m.histogram("aggregation_latency_milliseconds",
		"Leaderboard aggregation latency in milliseconds", m.histogramBuckets)
	m.eventsDroppedByTeam = m.counter("aggregation_events_dropped_total",
		"Score rows whose team has no position in the tournament")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordSubmission counts a score submission by outcome.
func RecordSubmission(status string) {
	globalManager.submissions.WithLabelValues(status).Inc()
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// UpdateScoreRows sets the number of stored score rows.
func UpdateScoreRows(count int) {
	globalManager.scoreRows.Set(float64(count))
}

// RecordStoreWriteLatency records store write latency.
func RecordStoreWriteLatency(latencyMs float64) {
	globalManager.storeWriteLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records store query latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordNotificationPublished counts a published invalidation.
func RecordNotificationPublished(kind string) {
	globalManager.notificationsPublished.WithLabelValues(kind).Inc()
}

// RecordNotificationDelivered counts a notification written to a viewer.
func RecordNotificationDelivered() {
	globalManager.notificationsDelivered.Inc()
}

// RecordNotificationDropped counts a notification dropped for a slow subscriber.
func RecordNotificationDropped() {
	globalManager.notificationsDropped.Inc()
}

// UpdateWSClients sets the number of connected websocket viewers.
func UpdateWSClients(count int) {
	globalManager.wsClients.Set(float64(count))
}

// RecordViewerPull counts a viewer pull; result is "ok" or "error".
func RecordViewerPull(result string) {
	globalManager.viewerPulls.WithLabelValues(result).Inc()
}

// RecordAggregation records one aggregation pass and the rows it dropped.
func RecordAggregation(latencyMs float64, dropped int) {
	globalManager.aggregationPasses.Inc()
	globalManager.aggregationLatency.Observe(latencyMs)
	if dropped > 0 {
		globalManager.eventsDroppedByTeam.Add(float64(dropped))
	}
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
