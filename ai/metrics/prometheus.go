// Package metrics provides Prometheus metrics export for the turn pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter exports turn pipeline metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Turn metrics
	turnLatency  *prometheus.HistogramVec
	turnRequests *prometheus.CounterVec
	turnsActive  prometheus.Gauge

	// Memory pipeline metrics
	extractionFailures prometheus.Counter
	memoriesSaved      prometheus.Counter
	memoriesRecalled   prometheus.Counter

	// Narrative LLM metrics
	llmTokensUsed *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.turnLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lorekeeper",
			Subsystem: "turn",
			Name:      "latency_seconds",
			Help:      "End-to-end turn latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"status"},
	)

	e.turnRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lorekeeper",
			Subsystem: "turn",
			Name:      "requests_total",
			Help:      "Total number of turn requests",
		},
		[]string{"status"},
	)

	e.turnsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lorekeeper",
			Subsystem: "turn",
			Name:      "active",
			Help:      "Number of turns currently being processed",
		},
	)

	e.extractionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lorekeeper",
			Subsystem: "memory",
			Name:      "extraction_failures_total",
			Help:      "Total number of extraction attempts that failed softly",
		},
	)

	e.memoriesSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lorekeeper",
			Subsystem: "memory",
			Name:      "saved_total",
			Help:      "Total number of memories persisted by extraction",
		},
	)

	e.memoriesRecalled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lorekeeper",
			Subsystem: "memory",
			Name:      "recalled_total",
			Help:      "Total number of memories injected into narrative prompts",
		},
	)

	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lorekeeper",
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total narrative LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lorekeeper",
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "Narrative LLM request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model", "provider"},
	)

	registry.MustRegister(
		e.turnLatency,
		e.turnRequests,
		e.turnsActive,
		e.extractionFailures,
		e.memoriesSaved,
		e.memoriesRecalled,
		e.llmTokensUsed,
		e.llmLatency,
	)

	return e
}

// RecordTurn records one completed turn request. status is one of success,
// misconfigured, transient, invalid.
func (e *PrometheusExporter) RecordTurn(status string, latency time.Duration) {
	e.turnRequests.WithLabelValues(status).Inc()
	e.turnLatency.WithLabelValues(status).Observe(latency.Seconds())
}

// TurnStarted marks a turn as in flight; the returned function marks it done.
func (e *PrometheusExporter) TurnStarted() func() {
	e.turnsActive.Inc()
	return e.turnsActive.Dec
}

// RecordExtractionFailure records one soft extraction failure.
func (e *PrometheusExporter) RecordExtractionFailure() {
	e.extractionFailures.Inc()
}

// RecordMemoryActivity records the memory report of one turn.
func (e *PrometheusExporter) RecordMemoryActivity(saved, recalled int) {
	e.memoriesSaved.Add(float64(saved))
	e.memoriesRecalled.Add(float64(recalled))
}

// RecordLLMTokens records narrative LLM token usage.
func (e *PrometheusExporter) RecordLLMTokens(model, tokenType string, count int) {
	e.llmTokensUsed.WithLabelValues(model, tokenType).Add(float64(count))
}

// RecordLLMLatency records narrative LLM request latency.
func (e *PrometheusExporter) RecordLLMLatency(model, provider string, latency time.Duration) {
	e.llmLatency.WithLabelValues(model, provider).Observe(latency.Seconds())
}

// Handler returns the HTTP handler for the metrics endpoint.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}
