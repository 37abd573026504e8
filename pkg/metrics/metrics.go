// Package metrics exposes Prometheus instrumentation for the request pipeline.
//
// Every method is safe to call on a nil *Metrics so components can be built
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pearl"

// Metrics owns a private registry and the pipeline's collectors.
type Metrics struct {
	registry *prometheus.Registry

	searchFacts       *prometheus.CounterVec
	pipelineStates    *prometheus.CounterVec
	summarizations    *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
	requests          *prometheus.CounterVec
	windowSize        prometheus.Gauge
}

// New creates a Metrics with its own registry. Go runtime and process
// collectors are registered alongside the pipeline collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		searchFacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_facts_total",
			Help:      "Search facts produced, by category",
		}, []string{"category"}),

		pipelineStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_state_transitions_total",
			Help:      "Pipeline state transitions, by target state",
		}, []string{"state"}),

		summarizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_summarizations_total",
			Help:      "Conversation window collapses, by outcome",
		}, []string{"outcome"}),

		generationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_seconds",
			Help:      "Latency of generation backend calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"outcome"}),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Front end requests, by status code",
		}, []string{"code"}),

		windowSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conversation_window_turns",
			Help:      "Turns currently held in the conversation window",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.searchFacts,
		m.pipelineStates,
		m.summarizations,
		m.generationLatency,
		m.requests,
		m.windowSize,
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns a promhttp handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearchFact counts a reduced search fact.
func (m *Metrics) ObserveSearchFact(category string) {
	if m == nil {
		return
	}
	m.searchFacts.WithLabelValues(category).Inc()
}

// ObserveState counts a pipeline state transition.
func (m *Metrics) ObserveState(state string) {
	if m == nil {
		return
	}
	m.pipelineStates.WithLabelValues(state).Inc()
}

// ObserveSummarization counts a window collapse. fallback is true when the
// placeholder summary had to be used.
func (m *Metrics) ObserveSummarization(fallback bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if fallback {
		outcome = "fallback"
	}
	m.summarizations.WithLabelValues(outcome).Inc()
}

// ObserveGeneration records the latency of one backend call.
func (m *Metrics) ObserveGeneration(start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.generationLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

// ObserveRequest counts a front end response by status code.
func (m *Metrics) ObserveRequest(code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(strconv.Itoa(code)).Inc()
}

// SetWindowSize records the current conversation window length.
func (m *Metrics) SetWindowSize(n int) {
	if m == nil {
		return
	}
	m.windowSize.Set(float64(n))
}
