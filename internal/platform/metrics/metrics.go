package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var defaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry prometheus.Gatherer

	StoreOperations      *prometheus.CounterVec
	StoreDuration        *prometheus.HistogramVec
	ApplicationsCreated  *prometheus.CounterVec
	ApplicationsUpdated  prometheus.Counter
	IntegrityErrors      prometheus.Counter
	SubmissionOutcomes   *prometheus.CounterVec
	IdentityCacheLookups *prometheus.CounterVec
	EndpointLatency      *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry registers metrics on reg. Tests use a fresh registry per instance.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: gatherer,
		StoreOperations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "punsj_docstore_operations_total",
			Help: "Document store operations by table, operation and outcome",
		}, []string{"table", "operation", "outcome"}),
		StoreDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "punsj_docstore_operation_duration_seconds",
			Help:    "Duration of document store operations",
			Buckets: defaultBuckets,
		}, []string{"table", "operation"}),
		ApplicationsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "punsj_applications_created_total",
			Help: "Applications created by benefit type",
		}, []string{"benefit"}),
		ApplicationsUpdated: f.NewCounter(prometheus.CounterOpts{
			Name: "punsj_applications_updated_total",
			Help: "Draft updates persisted",
		}),
		IntegrityErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "punsj_folder_integrity_errors_total",
			Help: "Folder reads missing an application that was just written",
		}),
		SubmissionOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "punsj_submissions_total",
			Help: "Submission attempts by benefit type and outcome",
		}, []string{"benefit", "outcome"}),
		IdentityCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "punsj_identity_cache_lookups_total",
			Help: "Identity cache lookups by result",
		}, []string{"result"}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "punsj_http_request_duration_seconds",
			Help:    "Latency of HTTP endpoints",
			Buckets: defaultBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveStore records the outcome and duration of a document store operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveStore(table, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StoreOperations.WithLabelValues(table, operation, outcome).Inc()
	m.StoreDuration.WithLabelValues(table, operation).Observe(time.Since(start).Seconds())
}

// IncrementApplicationsCreated records a new application for a benefit type.
func (m *Metrics) IncrementApplicationsCreated(benefit string) {
	if m == nil {
		return
	}
	m.ApplicationsCreated.WithLabelValues(benefit).Inc()
}

func (m *Metrics) IncrementApplicationsUpdated() {
	if m == nil {
		return
	}
	m.ApplicationsUpdated.Inc()
}

func (m *Metrics) IncrementIntegrityErrors() {
	if m == nil {
		return
	}
	m.IntegrityErrors.Inc()
}

// RecordSubmission counts a submission outcome (sent, rejected, conflict, failed).
func (m *Metrics) RecordSubmission(benefit, outcome string) {
	if m == nil {
		return
	}
	m.SubmissionOutcomes.WithLabelValues(benefit, outcome).Inc()
}

// RecordIdentityCache counts a cache hit or miss.
func (m *Metrics) RecordIdentityCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.IdentityCacheLookups.WithLabelValues(result).Inc()
}

// ObserveRequest records endpoint latency.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.EndpointLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
}
