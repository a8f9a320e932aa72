// Package metrics provides Prometheus instrumentation for the Honolulu
// runtime: model calls and token usage per provider, tool executions, router
// fallbacks, confirmation outcomes and active runs.
//
// A nil *Metrics is a valid no-op, so every component accepts the pointer
// optionally and records unconditionally.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus collectors for one runtime instance.
type Metrics struct {
	// ModelCallCounter counts model calls by provider, model and status
	// (success|error).
	ModelCallCounter *prometheus.CounterVec

	// ModelCallDuration measures model call latency in seconds.
	ModelCallDuration *prometheus.HistogramVec

	// ModelTokensUsed tracks token consumption by provider, model and type
	// (prompt|completion).
	ModelTokensUsed *prometheus.CounterVec

	// RouterFallbacks counts fallback transitions by failed provider.
	RouterFallbacks *prometheus.CounterVec

	// ToolExecutionCounter counts capability invocations by tool and status
	// (success|error|denied).
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures capability execution time in seconds.
	ToolExecutionDuration *prometheus.HistogramVec

	// ConfirmationOutcomes counts confirmation resolutions by action
	// (allow|allow_all|deny|timeout).
	ConfirmationOutcomes *prometheus.CounterVec

	// ActiveRuns is a gauge tracking currently executing runs.
	ActiveRuns prometheus.Gauge
}

// New creates and registers all collectors with the default registry.
// Call once per process; duplicate registration panics by Prometheus design.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates the collectors against a caller-provided registerer,
// allowing isolated registries in tests.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ModelCallCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "honolulu_model_calls_total",
				Help: "Total number of model calls by provider, model and status",
			},
			[]string{"provider", "model", "status"},
		),

		ModelCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "honolulu_model_call_duration_seconds",
				Help:    "Duration of model calls in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),

		ModelTokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "honolulu_model_tokens_total",
				Help: "Total number of tokens used by provider, model and type",
			},
			[]string{"provider", "model", "type"},
		),

		RouterFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "honolulu_router_fallbacks_total",
				Help: "Total number of router fallback transitions by failed provider",
			},
			[]string{"provider"},
		),

		ToolExecutionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "honolulu_tool_executions_total",
				Help: "Total number of capability invocations by tool and status",
			},
			[]string{"tool", "status"},
		),

		ToolExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "honolulu_tool_execution_duration_seconds",
				Help:    "Duration of capability executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),

		ConfirmationOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "honolulu_confirmations_total",
				Help: "Total number of confirmation resolutions by action",
			},
			[]string{"action"},
		),

		ActiveRuns: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "honolulu_active_runs",
				Help: "Number of currently executing runs",
			},
		),
	}
}

// RecordModelCall records one model call outcome with its duration.
func (m *Metrics) RecordModelCall(provider, model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.ModelCallCounter.WithLabelValues(provider, model, status).Inc()
	m.ModelCallDuration.WithLabelValues(provider, model).Observe(dur.Seconds())
}

// RecordTokens records token usage reported by a provider.
func (m *Metrics) RecordTokens(provider, model string, prompt, completion int) {
	if m == nil {
		return
	}
	if prompt > 0 {
		m.ModelTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		m.ModelTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completion))
	}
}

// RecordFallback records one fallback transition away from a failed provider.
func (m *Metrics) RecordFallback(provider string) {
	if m == nil {
		return
	}
	m.RouterFallbacks.WithLabelValues(provider).Inc()
}

// RecordToolExecution records one capability invocation outcome.
func (m *Metrics) RecordToolExecution(tool, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.ToolExecutionCounter.WithLabelValues(tool, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(tool).Observe(dur.Seconds())
}

// RecordConfirmation records one confirmation resolution.
func (m *Metrics) RecordConfirmation(action string) {
	if m == nil {
		return
	}
	m.ConfirmationOutcomes.WithLabelValues(action).Inc()
}

// RunStarted increments the active run gauge.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.ActiveRuns.Inc()
}

// RunFinished decrements the active run gauge.
func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.ActiveRuns.Dec()
}
