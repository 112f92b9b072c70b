package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the voice backend. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Parsing
	parseOutcomesTotal  *prometheus.CounterVec
	parseDuration       *prometheus.HistogramVec
	extractorAttempts   *prometheus.CounterVec
	transcriptionsTotal *prometheus.CounterVec

	// Chain
	balanceLookupsTotal *prometheus.CounterVec

	// HTTP
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		parseOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_parse_outcomes_total",
				Help: "Total number of voice command parse outcomes by result code",
			},
			[]string{"outcome"},
		),
		parseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voice_parse_duration_seconds",
				Help:    "Duration of voice command parsing in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		extractorAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_extractor_attempts_total",
				Help: "Total number of command extractor attempts by result",
			},
			[]string{"result"},
		),
		transcriptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_transcriptions_total",
				Help: "Total number of audio transcriptions by result",
			},
			[]string{"result"},
		),
		balanceLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_balance_lookups_total",
				Help: "Total number of token balance lookups by source",
			},
			[]string{"source"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5, 10},
			},
			[]string{"route", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
	}
}

// RecordParseOutcome records one parse result. outcome is "parsed" or a
// parse error code.
func (m *Metrics) RecordParseOutcome(outcome string, duration float64) {
	if m == nil {
		return
	}
	m.parseOutcomesTotal.WithLabelValues(outcome).Inc()
	m.parseDuration.WithLabelValues(outcome).Observe(duration)
}

// RecordExtractorAttempt records a single call to the command extractor backend.
func (m *Metrics) RecordExtractorAttempt(result string) {
	if m == nil {
		return
	}
	m.extractorAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordTranscription(result string) {
	if m == nil {
		return
	}
	m.transcriptionsTotal.WithLabelValues(result).Inc()
}

// RecordBalanceLookup records where a balance was served from ("cache" or "chain").
func (m *Metrics) RecordBalanceLookup(source string) {
	if m == nil {
		return
	}
	m.balanceLookupsTotal.WithLabelValues(source).Inc()
}

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(route, method, status string, duration float64) {
	if m == nil {
		return
	}
	m.httpRequestDuration.WithLabelValues(route, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(route, method, status).Inc()
}
