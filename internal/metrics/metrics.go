package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPLatency         *prometheus.HistogramVec
	DBQueryLatency      *prometheus.HistogramVec
	CacheRequests       *prometheus.CounterVec
	ConsultationActions *prometheus.CounterVec
	OverviewRefreshes   *prometheus.CounterVec
	Errors              *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by route and status code.",
			}, []string{"route", "status"}),
			HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Latency distribution for HTTP requests.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route"}),
			DBQueryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Latency distribution for report queries.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"query", "status"}),
			CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Response cache lookups by key and result.",
			}, []string{"key", "result"}),
			ConsultationActions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "consultation_transitions_total",
				Help:      "Consultation status actions by action and outcome.",
			}, []string{"action", "outcome"}),
			OverviewRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "overview_refreshes_total",
				Help:      "Scheduled overview snapshot refreshes by outcome.",
			}, []string{"status"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.HTTPRequests,
			metricsInstance.HTTPLatency,
			metricsInstance.DBQueryLatency,
			metricsInstance.CacheRequests,
			metricsInstance.ConsultationActions,
			metricsInstance.OverviewRefreshes,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}

// ObserveQuery records the duration of a named store query.
func (m *Metrics) ObserveQuery(name string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.DBQueryLatency.WithLabelValues(name, status).Observe(time.Since(start).Seconds())
}

// CountError increments the error counter for a component.
func (m *Metrics) CountError(component string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(component).Inc()
}
