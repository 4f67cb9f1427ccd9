package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "doclint"

// Metrics owns a private registry with HTTP and analysis collectors.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	analysisScore    prometheus.Histogram
	issuesTotal      *prometheus.CounterVec
	suggestionsTotal *prometheus.CounterVec
}

// New constructs Metrics with Go runtime and process collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "in_flight_requests",
				Help:      "Number of in-flight HTTP requests.",
			},
		),
		analysisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "total",
				Help:      "Analyses by file type and outcome.",
			},
			[]string{"file_type", "outcome"},
		),
		analysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "duration_seconds",
				Help:      "Parse and score duration in seconds.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"file_type"},
		),
		analysisScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "score",
				Help:      "Distribution of document scores.",
				Buckets:   prometheus.LinearBuckets(10, 10, 10),
			},
		),
		issuesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "issues_total",
				Help:      "Issues reported by rule.",
			},
			[]string{"rule", "severity"},
		),
		suggestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fixes",
				Name:      "suggestions_total",
				Help:      "Fix suggestion requests by outcome.",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.analysisTotal,
		m.analysisDuration,
		m.analysisScore,
		m.issuesTotal,
		m.suggestionsTotal,
	)
	return m
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes metrics in Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency keyed by the matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// ObserveAnalysis records a finished analysis. outcome is "ok" or a failure class.
func (m *Metrics) ObserveAnalysis(fileType, outcome string, duration time.Duration) {
	if fileType == "" {
		fileType = "unknown"
	}
	m.analysisTotal.WithLabelValues(fileType, outcome).Inc()
	m.analysisDuration.WithLabelValues(fileType).Observe(duration.Seconds())
}

// ObserveScore records a document score.
func (m *Metrics) ObserveScore(score int) {
	m.analysisScore.Observe(float64(score))
}

// IncIssue counts one reported issue. The ordinal suffix of the id is dropped so the
// label set stays bounded.
func (m *Metrics) IncIssue(id, severity string) {
	m.issuesTotal.WithLabelValues(RuleName(id), severity).Inc()
}

// IncSuggestions counts one suggest-fixes request by outcome.
func (m *Metrics) IncSuggestions(outcome string) {
	m.suggestionsTotal.WithLabelValues(outcome).Inc()
}

// RuleName strips a trailing numeric ordinal from an issue id.
func RuleName(id string) string {
	idx := strings.LastIndexByte(id, '_')
	if idx < 0 {
		return id
	}
	if _, err := strconv.Atoi(id[idx+1:]); err != nil {
		return id
	}
	return id[:idx]
}
