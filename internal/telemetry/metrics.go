// Package telemetry exposes Prometheus metrics for address lookups and the
// HTTP surface.
package telemetry

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "address_lookup"

// LookupMetrics records search, resolve and save outcomes.
type LookupMetrics struct {
	searches        *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	resolves        *prometheus.CounterVec
	resolveDuration *prometheus.HistogramVec
	saves           *prometheus.CounterVec
}

var lookupBuckets = []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// NewLookupMetrics creates the lookup collectors and registers them on reg.
func NewLookupMetrics(namespace string, reg prometheus.Registerer) *LookupMetrics {
	if namespace == "" {
		namespace = defaultNamespace
	}

	m := &LookupMetrics{
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Address searches by outcome",
			},
			[]string{"outcome"},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Remote search latency in seconds",
				Buckets:   lookupBuckets,
			},
			[]string{"outcome"},
		),
		resolves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolves_total",
				Help:      "Candidate resolutions by outcome",
			},
			[]string{"outcome"},
		),
		resolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Remote resolve latency in seconds",
				Buckets:   lookupBuckets,
			},
			[]string{"outcome"},
		),
		saves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "saves_total",
				Help:      "Address saves by status",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.searches,
		m.searchDuration,
		m.resolves,
		m.resolveDuration,
		m.saves,
	)

	return m
}

func (m *LookupMetrics) ObserveSearch(outcome string, elapsed time.Duration) {
	m.searches.WithLabelValues(outcome).Inc()
	m.searchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *LookupMetrics) ObserveResolve(outcome string, elapsed time.Duration) {
	m.resolves.WithLabelValues(outcome).Inc()
	m.resolveDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *LookupMetrics) ObserveSave(status string) {
	m.saves.WithLabelValues(status).Inc()
}

// RegisterSessionGauge exposes the number of open sessions, read on scrape.
func RegisterSessionGauge(namespace string, reg prometheus.Registerer, count func() int) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Address lookup sessions currently registered",
		},
		func() float64 { return float64(count()) },
	))
}

// HTTPMetrics records request counts and latency per route.
type HTTPMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

// NewHTTPMetrics creates the HTTP collectors and registers them on reg.
func NewHTTPMetrics(namespace string, reg prometheus.Registerer) *HTTPMetrics {
	if namespace == "" {
		namespace = defaultNamespace
	}

	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path", "status"},
		),
		requestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration, m.requestsInFlight)
	return m
}

// Middleware records metrics keyed by the matched route template, so path
// parameters do not explode label cardinality.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.requestsInFlight.Inc()
		defer m.requestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}
