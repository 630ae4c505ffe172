package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the range service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	scoreBuckets   []float64
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Scoring
	hitsReceived   *prometheus.CounterVec
	hitsScored     *prometheus.CounterVec
	hitsMissed     *prometheus.CounterVec
	hitsDropped    *prometheus.CounterVec
	hitsDuplicate  prometheus.Counter
	scoreAwarded   prometheus.Histogram
	scoringLatency prometheus.Histogram
	targetCount    prometheus.Gauge
	reconfigures   *prometheus.CounterVec
	targetsMoved   prometheus.Counter

	// Scoreboard
	scoreboardUpdates  prometheus.Counter
	scoreboardShooters prometheus.Gauge
	scoreboardTotal    prometheus.Gauge
	scoreboardLatency  prometheus.Histogram

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Stream
	streamSubscribers prometheus.Gauge
	streamDropped     prometheus.Counter

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var (
	globalManager  *Manager                   //nolint:gochecknoglobals // singleton metrics manager
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps Go runtime collectors out
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "bullseye",
		subsystem:      "range",
		latencyBuckets: prometheus.DefBuckets,
		scoreBuckets:   []float64{0, 1, 5, 10, 25, 50, 75, 90, 100},
		constLabels:    map[string]string{},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.hitsReceived = m.counterVec("hits_received_total", "Hit notifications accepted for scoring", "target", "kind")
	m.hitsScored = m.counterVec("hits_scored_total", "Hits that produced a non-zero score", "target")
	m.hitsMissed = m.counterVec("hits_missed_total", "Hits that landed outside the scoring radius", "target")
	m.hitsDropped = m.counterVec("hits_dropped_total", "Hits dropped before scoring", "target", "reason")
	m.hitsDuplicate = m.counter("hits_duplicate_total", "Hit notifications rejected as duplicates")
	m.scoreAwarded = m.histogram("score_awarded", "Distribution of awarded (rounded) scores", m.scoreBuckets)
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Time spent scoring a single hit", m.latencyBuckets)
	m.targetCount = m.gauge("targets", "Number of registered targets")
	m.reconfigures = m.counterVec("target_reconfigurations_total", "Target reconfigurations", "target")
	m.targetsMoved = m.counter("target_motion_steps_total", "Motion steps applied to moving targets")

	m.scoreboardUpdates = m.counter("scoreboard_updates_total", "Additive scoreboard updates")
	m.scoreboardShooters = m.gauge("scoreboard_shooters", "Shooters tracked on the scoreboard")
	m.scoreboardTotal = m.gauge("scoreboard_total_score", "Sum of all awarded scores")
	m.scoreboardLatency = m.histogram("scoreboard_update_latency_milliseconds", "Scoreboard update latency", m.latencyBuckets)

	m.queueSize = m.gauge("queue_size", "Hits waiting in worker queues")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the hit queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue fill ratio (0-1)")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Hits enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Hits dequeued")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Rejected enqueue attempts", "reason")

	m.workerCount = m.gauge("worker_count", "Number of hit workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Per-hit worker latency", m.latencyBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Worker failures while applying hits")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.streamSubscribers = m.gauge("stream_subscribers", "Connected score stream clients")
	m.streamDropped = m.counter("stream_dropped_messages_total", "Score events dropped for slow stream clients")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordHitReceived counts a hit notification of the given kind.
func RecordHitReceived(target, kind string) {
	globalManager.hitsReceived.WithLabelValues(target, kind).Inc()
}

// RecordHitScored records a processed hit and its rounded score.
func RecordHitScored(target string, score int) {
	if score > 0 {
		globalManager.hitsScored.WithLabelValues(target).Inc()
	} else {
		globalManager.hitsMissed.WithLabelValues(target).Inc()
	}
	globalManager.scoreAwarded.Observe(float64(score))
}

// RecordHitDropped counts a hit that never reached scoring.
func RecordHitDropped(target, reason string) {
	globalManager.hitsDropped.WithLabelValues(target, reason).Inc()
}

// RecordHitDuplicate counts a duplicate hit id.
func RecordHitDuplicate() {
	globalManager.hitsDuplicate.Inc()
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// UpdateTargetCount sets the number of registered targets.
func UpdateTargetCount(count int) {
	globalManager.targetCount.Set(float64(count))
}

// RecordTargetReconfigured counts a reconfiguration of target.
func RecordTargetReconfigured(target string) {
	globalManager.reconfigures.WithLabelValues(target).Inc()
}

// RecordTargetMoved counts one motion step.
func RecordTargetMoved() {
	globalManager.targetsMoved.Inc()
}

// RecordScoreboardUpdate counts an additive update and its latency.
func RecordScoreboardUpdate(latencyMs float64) {
	globalManager.scoreboardUpdates.Inc()
	globalManager.scoreboardLatency.Observe(latencyMs)
}

// UpdateScoreboard sets shooter count and total score gauges.
func UpdateScoreboard(shooters int, total int64) {
	globalManager.scoreboardShooters.Set(float64(shooters))
	globalManager.scoreboardTotal.Set(float64(total))
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
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
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

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateStreamSubscribers sets the number of stream clients.
func UpdateStreamSubscribers(count int) {
	globalManager.streamSubscribers.Set(float64(count))
}

// RecordStreamDropped counts a score event not delivered to a slow client.
func RecordStreamDropped() {
	globalManager.streamDropped.Inc()
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
