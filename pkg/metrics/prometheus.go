// Package metrics provides Prometheus metrics for the playoff draft service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace      string
	subsystem      string
	httpBuckets    []float64
	latencyBuckets []float64
	registry       prometheus.Registerer

	// Draft
	picksCommitted prometheus.Counter
	pickConflicts  *prometheus.CounterVec
	picksRemoved   prometheus.Counter
	draftTeams     prometheus.Gauge
	draftPicks     prometheus.Gauge

	// Scores
	scoresSaved         prometheus.Counter
	statusTransitions   *prometheus.CounterVec
	recalculations      prometheus.Counter
	recalculatedRecords prometheus.Counter
	recalcDuration      prometheus.Histogram
	sweeps              *prometheus.CounterVec

	// Real-time events
	eventsPublished *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	subscribers     prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:      "playoffdraft",
		httpBuckets:    prometheus.DefBuckets,
		latencyBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.picksCommitted = m.counter("picks_committed_total", "Draft picks committed")
	m.pickConflicts = m.counterVec("pick_conflicts_total", "Draft picks refused, by reason", "reason")
	m.picksRemoved = m.counter("picks_removed_total", "Draft picks removed")
	m.draftTeams = m.gauge("draft_teams", "Teams in the draft")
	m.draftPicks = m.gauge("draft_picks", "Filled draft slots")

	m.scoresSaved = m.counter("scores_saved_total", "Player scores saved")
	m.statusTransitions = m.counterVec("status_transitions_total", "Player status transitions, by kind", "kind")
	m.recalculations = m.counter("recalculations_total", "Score recalculations run")
	m.recalculatedRecords = m.counter("recalculated_records_total", "Score records rewritten by recalculation")
	m.recalcDuration = m.histogram("recalculation_duration_milliseconds", "Recalculation wall time in milliseconds", m.latencyBuckets)
	m.sweeps = m.counterVec("recalculation_sweeps_total", "Scheduled recalculation sweeps, by outcome", "status")

	m.eventsPublished = m.counterVec("events_published_total", "Events published, by type", "type")
	m.eventsDropped = m.counterVec("events_dropped_total", "Events dropped for slow subscribers, by type", "type")
	m.subscribers = m.gauge("subscribers", "Connected event subscribers")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   m.httpBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.workerActiveCount = m.gauge("worker_active_count", "Number of running recalculation workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Batch processing latency in milliseconds", m.latencyBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Recalculation batches that failed")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// Draft Metrics Functions.

// RecordPickCommitted increments the committed picks counter.
func RecordPickCommitted() {
	globalManager.picksCommitted.Inc()
}

// RecordPickConflict counts a refused pick.
func RecordPickConflict(reason string) {
	globalManager.pickConflicts.WithLabelValues(reason).Inc()
}

// RecordPickRemoved increments the removed picks counter.
func RecordPickRemoved() {
	globalManager.picksRemoved.Inc()
}

// UpdateDraftCounts sets the team and filled-slot gauges.
func UpdateDraftCounts(teams, picks int) {
	globalManager.draftTeams.Set(float64(teams))
	globalManager.draftPicks.Set(float64(picks))
}

// Score Metrics Functions.

// RecordScoreSaved increments the saved scores counter.
func RecordScoreSaved() {
	globalManager.scoresSaved.Inc()
}

// RecordStatusTransition counts a status change such as "clear", "disable" or "reactivate".
func RecordStatusTransition(kind string) {
	globalManager.statusTransitions.WithLabelValues(kind).Inc()
}

// RecordRecalculation records one recalculation run.
func RecordRecalculation(updated int, durationMs float64) {
	globalManager.recalculations.Inc()
	globalManager.recalculatedRecords.Add(float64(updated))
	globalManager.recalcDuration.Observe(durationMs)
}

// RecordSweep counts a scheduled sweep by outcome.
func RecordSweep(status string) {
	globalManager.sweeps.WithLabelValues(status).Inc()
}

// Event Metrics Functions.

// RecordEventPublished counts a published event.
func RecordEventPublished(eventType string) {
	globalManager.eventsPublished.WithLabelValues(eventType).Inc()
}

// RecordEventDropped counts an event a subscriber could not take.
func RecordEventDropped(eventType string) {
	globalManager.eventsDropped.WithLabelValues(eventType).Inc()
}

// UpdateSubscribers sets the connected subscriber gauge.
func UpdateSubscribers(count int) {
	globalManager.subscribers.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Metrics Functions.

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
