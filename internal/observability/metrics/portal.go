package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
)

const namespace = "lesson_portal"

// portal holds the domain counters shared by the API process.
type portal struct {
	service string

	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec
	analysisInFlight prometheus.Gauge
	chatTotal        *prometheus.CounterVec
	llmTokensTotal   *prometheus.CounterVec
	pageSignalsTotal *prometheus.CounterVec
	sessionsActive   prometheus.Gauge
}

func newPortal(service string, registry *prometheus.Registry) portal {
	p := portal{
		service: service,
		analysisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_total",
				Help:      "Total document analyses by outcome.",
			},
			[]string{"service", "outcome"},
		),
		analysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Document analysis duration in seconds by outcome.",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"service", "outcome"},
		),
		analysisInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "analysis_in_flight",
				Help:        "Number of in-flight document analyses.",
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
		chatTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_total",
				Help:      "Total chat questions by outcome.",
			},
			[]string{"service", "outcome"},
		),
		llmTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_total",
				Help:      "Token usage reported by the completion backend.",
			},
			[]string{"service", "endpoint", "direction"},
		),
		pageSignalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "page_signals_total",
				Help:      "Propagated page signals by tracking strategy.",
			},
			[]string{"service", "strategy"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "sessions_active",
				Help:        "Number of live viewer sessions.",
				ConstLabels: prometheus.Labels{"service": service},
			},
		),
	}

	registry.MustRegister(
		p.analysisTotal,
		p.analysisDuration,
		p.analysisInFlight,
		p.chatTotal,
		p.llmTokensTotal,
		p.pageSignalsTotal,
		p.sessionsActive,
	)
	return p
}

// AnalysisStarted marks an analysis in flight and returns its completion hook.
func (p portal) AnalysisStarted() func(outcome string) {
	start := time.Now()
	p.analysisInFlight.Inc()
	return func(outcome string) {
		p.analysisInFlight.Dec()
		p.RecordAnalysis(outcome, time.Since(start))
	}
}

func (p portal) RecordAnalysis(outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	p.analysisTotal.WithLabelValues(p.service, outcome).Inc()
	p.analysisDuration.WithLabelValues(p.service, outcome).Observe(duration.Seconds())
}

func (p portal) RecordChat(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	p.chatTotal.WithLabelValues(p.service, outcome).Inc()
}

func (p portal) RecordTokenUsage(endpoint string, usage domain.Usage) {
	if usage.PromptTokens > 0 {
		p.llmTokensTotal.WithLabelValues(p.service, endpoint, "in").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		p.llmTokensTotal.WithLabelValues(p.service, endpoint, "out").Add(float64(usage.CompletionTokens))
	}
}

func (p portal) RecordPageSignal(strategy string) {
	p.pageSignalsTotal.WithLabelValues(p.service, strategy).Inc()
}

func (p portal) SetSessionsActive(n int) {
	p.sessionsActive.Set(float64(n))
}

// Outcome labels an analysis or chat result.
func Outcome(err error, fallback bool) string {
	switch {
	case err == nil && fallback:
		return "fallback"
	case err == nil:
		return "success"
	case domain.IsKind(err, domain.ErrConfiguration):
		return "misconfigured"
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return "not_found"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "upstream_error"
	}
}
