package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the OneFlow gateway.
type Metrics struct {
	RequestTotal         *prometheus.CounterVec
	RequestDurationMs    *prometheus.HistogramVec
	TokensTotal          *prometheus.CounterVec
	CreditsSpentTotal    *prometheus.CounterVec
	RoutingFallbackTotal *prometheus.CounterVec
	CircuitOpenTotal     *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oneflow_request_total",
			Help: "Total number of requests processed by the gateway.",
		}, []string{"model", "provider", "status", "strategy"}),

		RequestDurationMs: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oneflow_request_duration_ms",
			Help:    "Total request duration in milliseconds (including provider latency).",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		}, []string{"model", "provider"}),

		TokensTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oneflow_tokens_total",
			Help: "Total tokens processed.",
		}, []string{"model", "direction"}),

		CreditsSpentTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oneflow_credits_spent_total",
			Help: "Total credits charged for completed requests.",
		}, []string{"model", "provider"}),

		RoutingFallbackTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oneflow_routing_fallback_total",
			Help: "Requests served by a fallback model after the primary failed.",
		}, []string{"primary_provider", "served_provider"}),

		CircuitOpenTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oneflow_circuit_open_total",
			Help: "Requests rejected because a provider circuit was open.",
		}, []string{"provider"}),
	}
}

// RecordRequest records metrics for a completed request.
func (m *Metrics) RecordRequest(labels RequestLabels) {
	m.RequestTotal.WithLabelValues(
		labels.Model, labels.Provider, labels.Status, labels.Strategy,
	).Inc()

	m.RequestDurationMs.WithLabelValues(
		labels.Model, labels.Provider,
	).Observe(labels.DurationMs)

	if labels.PromptTokens > 0 {
		m.TokensTotal.WithLabelValues(labels.Model, "prompt").Add(float64(labels.PromptTokens))
	}

	if labels.CompletionTokens > 0 {
		m.TokensTotal.WithLabelValues(labels.Model, "completion").Add(float64(labels.CompletionTokens))
	}

	if labels.Credits > 0 {
		m.CreditsSpentTotal.WithLabelValues(labels.Model, labels.Provider).Add(labels.Credits)
	}
}

// RecordFallback records a request served by a fallback after the primary failed.
func (m *Metrics) RecordFallback(primaryProvider, servedProvider string) {
	m.RoutingFallbackTotal.WithLabelValues(primaryProvider, servedProvider).Inc()
}

// RecordCircuitOpen records a fast-fail due to an open circuit.
func (m *Metrics) RecordCircuitOpen(provider string) {
	m.CircuitOpenTotal.WithLabelValues(provider).Inc()
}

// RequestLabels holds the label values for recording a request.
type RequestLabels struct {
	Model            string
	Provider         string
	Status           string
	Strategy         string
	DurationMs       float64
	PromptTokens     int
	CompletionTokens int
	Credits          float64
}
