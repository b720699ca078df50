// Package metrics provides Prometheus metrics instrumentation and the
// rolling latency windows exposed on the health endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ChatTurnsTotal tracks resolved chat turns per route label.
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total resolved chat turns",
		},
		[]string{"tenant_id", "route"},
	)

	// LLMCallDuration tracks LLM completion call duration.
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "LLM completion call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
		[]string{"model", "status"},
	)

	// SSEConnectionsActive tracks active suggestion stream connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// SuggestTasksDropped counts suggestion tasks dropped because the
	// worker queue was saturated.
	SuggestTasksDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suggest_tasks_dropped_total",
			Help: "Suggestion tasks dropped due to queue saturation",
		},
	)

	// RedactionsTotal counts redacted values per direction.
	RedactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redactions_total",
			Help: "Total redacted fields and values",
		},
		[]string{"direction"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMCall records metrics for a completion call.
func RecordLLMCall(model, status string, duration float64) {
	LLMCallDuration.WithLabelValues(model, status).Observe(duration)
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
