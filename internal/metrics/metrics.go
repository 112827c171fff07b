// Package metrics exposes Prometheus instrumentation for upstream calls,
// provider fallbacks, language-model calls and generated advice.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeEmpty    = "empty"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec   // labels: provider, op, outcome
	ProviderLatency  *prometheus.HistogramVec // labels: provider, op
	FusionFallbacks  *prometheus.CounterVec   // labels: op
	LLMRequests      *prometheus.CounterVec   // labels: model, outcome
	AdviceTotal      *prometheus.CounterVec   // labels: action, degraded
	ComputeDuration  prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockapi_provider_requests_total",
			Help: "Upstream market-data requests by provider, operation and outcome",
		}, []string{"provider", "op", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockapi_provider_request_duration_seconds",
			Help:    "Upstream market-data request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "op"}),
		FusionFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockapi_fusion_fallbacks_total",
			Help: "Operations answered by the secondary provider",
		}, []string{"op"}),
		LLMRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockapi_llm_requests_total",
			Help: "Text-generation calls by model and outcome",
		}, []string{"model", "outcome"}),
		AdviceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockapi_advice_total",
			Help: "Advice records produced by action",
		}, []string{"action", "degraded"}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockapi_indicator_compute_duration_seconds",
			Help:    "Indicator computation latency per symbol",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
	}
	reg.MustRegister(
		m.ProviderRequests,
		m.ProviderLatency,
		m.FusionFallbacks,
		m.LLMRequests,
		m.AdviceTotal,
		m.ComputeDuration,
	)
	return m
}

// ObserveProvider records one upstream call.
func (m *Metrics) ObserveProvider(provider, op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, op, outcome).Inc()
	m.ProviderLatency.WithLabelValues(provider, op).Observe(elapsed.Seconds())
}

// Fallback records that op was served by the secondary provider.
func (m *Metrics) Fallback(op string) {
	if m == nil {
		return
	}
	m.FusionFallbacks.WithLabelValues(op).Inc()
}

// ObserveLLM records one text-generation attempt.
func (m *Metrics) ObserveLLM(model, outcome string) {
	if m == nil {
		return
	}
	m.LLMRequests.WithLabelValues(model, outcome).Inc()
}

// ObserveAdvice records one produced advice record.
func (m *Metrics) ObserveAdvice(action string, degraded bool) {
	if m == nil {
		return
	}
	d := "false"
	if degraded {
		d = "true"
	}
	m.AdviceTotal.WithLabelValues(action, d).Inc()
}

// ObserveCompute records indicator computation time.
func (m *Metrics) ObserveCompute(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ComputeDuration.Observe(elapsed.Seconds())
}
