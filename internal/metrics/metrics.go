package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lifesaver"

// Metrics interface for dependency injection
type Metrics interface {
	RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration)
	RecordReportSubmitted(urgency string)
	RecordSimilarCount(count int)
	RecordStatusChange(status string)
	RecordSubmitRejected()
	SetDBConnectionsActive(count float64)
	RecordDBQuery(operation, status string)
	Handler() http.Handler
}

// NoOpMetrics provides a no-op implementation
type NoOpMetrics struct{}

func (m *NoOpMetrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
}
func (m *NoOpMetrics) RecordReportSubmitted(urgency string)   {}
func (m *NoOpMetrics) RecordSimilarCount(count int)           {}
func (m *NoOpMetrics) RecordStatusChange(status string)       {}
func (m *NoOpMetrics) RecordSubmitRejected()                  {}
func (m *NoOpMetrics) SetDBConnectionsActive(count float64)   {}
func (m *NoOpMetrics) RecordDBQuery(operation, status string) {}
func (m *NoOpMetrics) Handler() http.Handler                  { return http.NotFoundHandler() }

// Prometheus records metrics into its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	reportsSubmitted *prometheus.CounterVec
	similarCount     prometheus.Histogram
	statusChanges    *prometheus.CounterVec
	submitsRejected  prometheus.Counter
	dbConnections    prometheus.Gauge
	dbQueries        *prometheus.CounterVec
}

// NewPrometheus creates all service metrics and registers them with a fresh
// registry, so it is safe to call more than once.
func NewPrometheus() *Prometheus {
	m := &Prometheus{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		reportsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_submitted_total",
			Help:      "Accepted reports by computed urgency.",
		}, []string{"urgency"}),
		similarCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_similar_count",
			Help:      "Nearby similar reports found at submission time.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25},
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_status_changes_total",
			Help:      "Status updates applied to reports, by new status.",
		}, []string{"status"}),
		submitsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_rejected_total",
			Help:      "Submissions rejected by the per-client cooldown.",
		}),
		dbConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_active",
			Help:      "Acquired connections in the database pool.",
		}),
		dbQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Database queries by operation and outcome.",
		}, []string{"operation", "status"}),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.reportsSubmitted,
		m.similarCount,
		m.statusChanges,
		m.submitsRejected,
		m.dbConnections,
		m.dbQueries,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Prometheus) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.httpDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *Prometheus) RecordReportSubmitted(urgency string) {
	m.reportsSubmitted.WithLabelValues(urgency).Inc()
}

func (m *Prometheus) RecordSimilarCount(count int) {
	m.similarCount.Observe(float64(count))
}

func (m *Prometheus) RecordStatusChange(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

func (m *Prometheus) RecordSubmitRejected() {
	m.submitsRejected.Inc()
}

func (m *Prometheus) SetDBConnectionsActive(count float64) {
	m.dbConnections.Set(count)
}

func (m *Prometheus) RecordDBQuery(operation, status string) {
	m.dbQueries.WithLabelValues(operation, status).Inc()
}

func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Global metrics instance
var globalMetrics Metrics = &NoOpMetrics{}

// Init switches the global instance to Prometheus
func Init() {
	globalMetrics = NewPrometheus()
}

// Set replaces the global instance; nil restores the no-op implementation
func Set(m Metrics) {
	if m == nil {
		m = &NoOpMetrics{}
	}
	globalMetrics = m
}

// Handler returns the metrics handler
func Handler() http.Handler {
	return globalMetrics.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	globalMetrics.RecordHTTPRequest(method, endpoint, statusCode, duration)
}

// RecordReportSubmitted counts an accepted report
func RecordReportSubmitted(urgency string) {
	globalMetrics.RecordReportSubmitted(urgency)
}

// RecordSimilarCount observes the similar-report count of a submission
func RecordSimilarCount(count int) {
	globalMetrics.RecordSimilarCount(count)
}

// RecordStatusChange counts a status update
func RecordStatusChange(status string) {
	globalMetrics.RecordStatusChange(status)
}

// RecordSubmitRejected counts a submission refused by the cooldown
func RecordSubmitRejected() {
	globalMetrics.RecordSubmitRejected()
}

// SetDBConnectionsActive sets the number of active database connections
func SetDBConnectionsActive(count float64) {
	globalMetrics.SetDBConnectionsActive(count)
}

// RecordDBQuery records database query metrics
func RecordDBQuery(operation, status string) {
	globalMetrics.RecordDBQuery(operation, status)
}
