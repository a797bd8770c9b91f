package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Outcome label values shared by calibration and measurement counters.
const (
	OutcomeSuccess    = "success"
	OutcomeIncomplete = "incomplete"
	OutcomeDegenerate = "degenerate"
	OutcomeError      = "error"
)

// Manager manages all Prometheus metrics for the lensfit service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Fitting workflow
	landmarksMarked   *prometheus.CounterVec
	landmarksReplaced *prometheus.CounterVec
	calibrations      *prometheus.CounterVec
	measurements      *prometheus.CounterVec
	measurementMM     *prometheus.HistogramVec
	pixelsPerMM       prometheus.Histogram
	computeLatency    prometheus.Histogram

	// Sessions
	sessionsCreated prometheus.Counter
	sessionsActive  prometheus.Gauge
	sessionsEvicted *prometheus.CounterVec

	// Store
	storeShardCount      prometheus.Gauge
	storeRecordsPerShard *prometheus.GaugeVec
	storeLatency         *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

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

// Configure replaces the global manager with one built from opts on a fresh
// custom registry. Call it during startup, before GetRegistry is served.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	customRegistry = registry
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "lensfit",
		subsystem:        "fitting",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// RefreshInterval reports how often gauge updaters should run.
func (m *Manager) RefreshInterval() time.Duration {
	return m.refreshInterval
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.landmarksMarked = auto.NewCounterVec(
		m.counterOpts("landmarks_marked_total", "Total number of landmarks marked by type"),
		[]string{"type"},
	)
	m.landmarksReplaced = auto.NewCounterVec(
		m.counterOpts("landmarks_replaced_total", "Total number of landmarks that replaced an earlier mark of the same type"),
		[]string{"type"},
	)
	m.calibrations = auto.NewCounterVec(
		m.counterOpts("calibrations_total", "Total number of calibration attempts by outcome"),
		[]string{"outcome"},
	)
	m.measurements = auto.NewCounterVec(
		m.counterOpts("measurements_total", "Total number of measurement computations by outcome"),
		[]string{"outcome"},
	)
	m.measurementMM = auto.NewHistogramVec(
		m.histogramOpts("measurement_millimeters", "Computed measurement values in millimeters",
			[]float64{5, 10, 15, 20, 25, 30, 35, 40, 50, 60, 70, 80}),
		[]string{"measurement"},
	)
	m.pixelsPerMM = auto.NewHistogram(
		m.histogramOpts("pixels_per_mm", "Calibrated scale in pixels per millimeter",
			[]float64{0.5, 1, 2, 3, 4, 5, 7.5, 10, 15, 20, 30}),
	)
	m.computeLatency = auto.NewHistogram(
		m.histogramOpts("compute_latency_milliseconds", "Latency of calibration and measurement computation in milliseconds", m.histogramBuckets),
	)

	m.sessionsCreated = auto.NewCounter(m.counterOpts("sessions_created_total", "Total number of fitting sessions created"))
	m.sessionsActive = auto.NewGauge(m.gaugeOpts("sessions_active", "Current number of stored fitting sessions"))
	m.sessionsEvicted = auto.NewCounterVec(
		m.counterOpts("sessions_evicted_total", "Total number of sessions evicted by reason"),
		[]string{"reason"},
	)

	m.storeShardCount = auto.NewGauge(m.gaugeOpts("store_shard_count", "Total number of session store shards"))
	m.storeRecordsPerShard = auto.NewGaugeVec(
		m.gaugeOpts("store_records_per_shard", "Number of sessions per store shard"),
		[]string{"shard_id"},
	)
	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Session store operation latency in milliseconds", m.histogramBuckets),
		[]string{"operation"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.rateLimited = auto.NewCounterVec(
		m.counterOpts("rate_limited_total", "Total number of requests rejected by the rate limiter"),
		[]string{"endpoint"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Fitting workflow functions.

// RecordLandmarkMarked counts a marked landmark, and a replacement when it
// overwrote an earlier mark of the same type.
func RecordLandmarkMarked(landmarkType string, replaced bool) {
	if !globalManager.enabled {
		return
	}
	globalManager.landmarksMarked.WithLabelValues(landmarkType).Inc()
	if replaced {
		globalManager.landmarksReplaced.WithLabelValues(landmarkType).Inc()
	}
}

// RecordCalibration counts a calibration attempt. The scale is observed only
// on success.
func RecordCalibration(outcome string, pixelsPerMM float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.calibrations.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		globalManager.pixelsPerMM.Observe(pixelsPerMM)
	}
}

// RecordMeasurement counts a measurement computation by outcome.
func RecordMeasurement(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.measurements.WithLabelValues(outcome).Inc()
}

// RecordMeasurementValues observes each named measurement in millimeters.
func RecordMeasurementValues(values map[string]float64) {
	if !globalManager.enabled {
		return
	}
	for name, v := range values {
		globalManager.measurementMM.WithLabelValues(name).Observe(v)
	}
}

// RecordComputeLatency records computation latency in milliseconds.
func RecordComputeLatency(latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.computeLatency.Observe(latencyMs)
}

// Session functions.

// RecordSessionCreated increments the sessions created counter.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionEvicted counts a session dropped by the store ("expired", "capacity").
func RecordSessionEvicted(reason string) {
	globalManager.sessionsEvicted.WithLabelValues(reason).Inc()
}

// UpdateSessionsActive sets the number of stored sessions.
func UpdateSessionsActive(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// Store functions.

// UpdateStoreShardCount sets the number of store shards.
func UpdateStoreShardCount(count int) {
	globalManager.storeShardCount.Set(float64(count))
}

// UpdateStoreRecordsPerShard sets the number of sessions held by a shard.
func UpdateStoreRecordsPerShard(shardID string, count int) {
	globalManager.storeRecordsPerShard.WithLabelValues(shardID).Set(float64(count))
}

// RecordStoreLatency records a store operation latency in milliseconds.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// HTTP functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// Error functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System functions.

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

// DefaultRefreshInterval reports the refresh interval of the global manager.
func DefaultRefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}
