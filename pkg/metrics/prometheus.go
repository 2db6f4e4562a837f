// Package metrics provides Prometheus metrics for the raceline timing service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Pass ingestion
	passesSubmitted prometheus.Counter
	passesDuplicate prometheus.Counter
	passesRerouted  prometheus.Counter
	passesMismatch  prometheus.Counter
	dwellGateHolds  *prometheus.CounterVec

	// Results engine
	resultsComputes        prometheus.Counter
	resultsComputeDuration prometheus.Histogram
	resultRows             prometheus.Gauge

	// Corrections
	correctionsShown    prometheus.Counter
	correctionsUndone   prometheus.Counter
	correctionsSwitched prometheus.Counter
	correctionFailures  prometheus.Counter

	// Queue and workers
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	queueEnqueues     prometheus.Counter
	queueDequeues     prometheus.Counter
	queueEnqueueFails *prometheus.CounterVec
	workerCount       prometheus.Gauge
	workerLatency     prometheus.Histogram
	workerErrors      prometheus.Counter

	// Store
	storePasses prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global manager on a custom registry so the default Go collectors do not
// pollute the exposition.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(prometheus.NewRegistry()))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "raceline",
		subsystem:        "timing",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.passesSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "passes_submitted_total",
		Help: "Passage events accepted for processing",
	})
	m.passesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "passes_duplicate_total",
		Help: "Duplicate submissions acknowledged without re-recording",
	})
	m.passesRerouted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "passes_rerouted_total",
		Help: "Passes whose logical station was auto-routed to another instance",
	})
	m.passesMismatch = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "passes_mismatch_total",
		Help: "Passes recorded at a station not on the runner's course",
	})
	m.dwellGateHolds = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "dwell_gate_holds_total",
		Help: "Auto-route advances suppressed by the minimum-dwell gate",
	}, []string{"group", "distance"})

	m.resultsComputes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "results_computes_total",
		Help: "Results engine runs",
	})
	m.resultsComputeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "results_compute_duration_milliseconds",
		Help:    "Histogram of results engine run duration in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.resultRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "result_rows",
		Help: "Rows returned by the most recent results compute",
	})

	m.correctionsShown = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "corrections_shown_total",
		Help: "Correction windows opened after auto-routing",
	})
	m.correctionsUndone = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "corrections_undone_total",
		Help: "Corrections reverted to the pre-routing station",
	})
	m.correctionsSwitched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "corrections_switched_total",
		Help: "Corrections cycled to another candidate station",
	})
	m.correctionFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "correction_failures_total",
		Help: "Correction reassignment writes that failed",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_size",
		Help: "Submissions currently queued",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_capacity",
		Help: "Configured queue capacity",
	})
	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueues_total",
		Help: "Successful enqueues",
	})
	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_dequeues_total",
		Help: "Successful dequeues",
	})
	m.queueEnqueueFails = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueue_failures_total",
		Help: "Enqueues rejected, by reason",
	}, []string{"reason"})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_count",
		Help: "Routing workers running",
	})
	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_processing_latency_milliseconds",
		Help:    "Histogram of per-submission processing latency in milliseconds",
		Buckets: m.histogramBuckets,
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_errors_total",
		Help: "Submissions that failed processing",
	})

	m.storePasses = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "store_passes",
		Help: "Passage events held in the store",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method, and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_milliseconds",
		Help:    "Histogram of HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
}

// GetRegistry returns the registry backing the global manager, for the
// /healthz exposition handler.
func GetRegistry() *prometheus.Registry { return globalManager.registry }

// Package-level recording helpers on the global manager.

func RecordPassSubmitted() { globalManager.passesSubmitted.Inc() }
func RecordPassDuplicate() { globalManager.passesDuplicate.Inc() }
func RecordPassRerouted()  { globalManager.passesRerouted.Inc() }
func RecordPassMismatch()  { globalManager.passesMismatch.Inc() }

func RecordDwellGateHold(group, distance string) {
	globalManager.dwellGateHolds.WithLabelValues(group, distance).Inc()
}

func RecordResultsCompute(durationMS float64, rows int) {
	globalManager.resultsComputes.Inc()
	globalManager.resultsComputeDuration.Observe(durationMS)
	globalManager.resultRows.Set(float64(rows))
}

func RecordCorrectionShown()    { globalManager.correctionsShown.Inc() }
func RecordCorrectionUndone()   { globalManager.correctionsUndone.Inc() }
func RecordCorrectionSwitched() { globalManager.correctionsSwitched.Inc() }
func RecordCorrectionFailure()  { globalManager.correctionFailures.Inc() }

func UpdateQueueSize(n int)     { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int) { globalManager.queueCapacity.Set(float64(n)) }
func RecordQueueEnqueue()       { globalManager.queueEnqueues.Inc() }
func RecordQueueDequeue()       { globalManager.queueDequeues.Inc() }

func RecordQueueEnqueueFailure(reason string) {
	globalManager.queueEnqueueFails.WithLabelValues(reason).Inc()
}

func UpdateWorkerCount(n int) { globalManager.workerCount.Set(float64(n)) }

func RecordWorkerProcessingLatency(ms float64) { globalManager.workerLatency.Observe(ms) }
func RecordWorkerError()                       { globalManager.workerErrors.Inc() }

func UpdateStorePasses(n int) { globalManager.storePasses.Set(float64(n)) }

func RecordHTTPRequest(endpoint, method, status string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}
