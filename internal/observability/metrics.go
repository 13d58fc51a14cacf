package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for every pipeline stage. All
// Record methods are no-ops on a nil *Metrics, so components built without
// metrics (tests, tools) need no guard.
type Metrics struct {
	// Paper search and the fallback ladder.
	SearchesTotal     *prometheus.CounterVec // by winning strategy, "none" when all were empty
	SearchAttempts    *prometheus.CounterVec // by strategy and outcome (results, empty, error)
	SearchDuration    prometheus.Histogram
	PapersReturned    prometheus.Histogram
	QueryTranslations *prometheus.CounterVec // by origin (ai, fallback)

	// Document extraction.
	Extractions          *prometheus.CounterVec
	ResearchersExtracted prometheus.Histogram

	// Enrichment and citation profiles.
	EnrichmentStageFailures *prometheus.CounterVec
	EnrichmentDuration      prometheus.Histogram
	ProfileLookups          *prometheus.CounterVec // found, empty, failed

	// Contact resolution.
	ContactOutcomes *prometheus.CounterVec
	ContactPolls    prometheus.Counter
	ContactDuration prometheus.Histogram

	// AI completions, labelled by operation and model.
	LLMCalls    *prometheus.CounterVec
	LLMFailures *prometheus.CounterVec
	LLMLatency  *prometheus.HistogramVec
	LLMTokens   *prometheus.CounterVec

	// Outbound HTTP attempts through papersources.HTTPClient.
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// Served API requests.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

var (
	latencyBuckets  = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}
	upstreamBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
)

// NewMetrics registers the collectors with the default registry under
// namespace.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWithRegisterer registers the collectors with reg. Tests pass a
// fresh prometheus.NewRegistry to avoid duplicate registration panics.
func NewMetricsWithRegisterer(reg prometheus.Registerer, namespace string) *Metrics {
	f := collectorFactory{auto: promauto.With(reg), namespace: namespace}

	return &Metrics{
		SearchesTotal:     f.counterVec("searches_total", "Paper searches by winning strategy", "strategy"),
		SearchAttempts:    f.counterVec("search_attempts_total", "Fallback ladder attempts by strategy and outcome", "strategy", "outcome"),
		SearchDuration:    f.histogram("search_duration_seconds", "End-to-end paper search duration", latencyBuckets),
		PapersReturned:    f.histogram("papers_per_search", "Papers returned per search", []float64{0, 1, 5, 10, 25, 50, 100}),
		QueryTranslations: f.counterVec("query_translations_total", "Structured queries by origin", "origin"),

		Extractions:          f.counterVec("extractions_total", "Document extractions by outcome", "outcome"),
		ResearchersExtracted: f.histogram("researchers_per_document", "Researchers extracted per document", []float64{0, 1, 2, 3, 5, 8, 10}),

		EnrichmentStageFailures: f.counterVec("enrichment_stage_failures_total", "Swallowed enrichment failures by stage", "stage"),
		EnrichmentDuration:      f.histogram("enrichment_duration_seconds", "Batch enrichment duration", []float64{0.5, 1, 2, 5, 10, 30, 60, 120}),
		ProfileLookups:          f.counterVec("profile_lookups_total", "Citation profile lookups by outcome", "outcome"),

		ContactOutcomes: f.counterVec("contact_resolutions_total", "Contact resolutions by final status", "status"),
		ContactPolls: f.auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contact_polls_total",
			Help:      "Browser task status polls",
		}),
		ContactDuration: f.histogram("contact_resolution_duration_seconds", "Contact resolution duration", []float64{1, 5, 10, 30, 60, 120, 240, 300}),

		LLMCalls:    f.counterVec("llm_calls_total", "Successful AI completions", "operation", "model"),
		LLMFailures: f.counterVec("llm_call_failures_total", "Failed AI completions by error type", "operation", "model", "error_type"),
		LLMLatency:  f.histogramVec("llm_call_duration_seconds", "AI completion latency", latencyBuckets, "operation", "model"),
		LLMTokens:   f.counterVec("llm_tokens_total", "Tokens consumed by AI completions", "operation", "model", "direction"),

		UpstreamRequestsTotal:   f.counterVec("upstream_requests_total", "Outbound HTTP attempts by source and status", "source", "status"),
		UpstreamRequestDuration: f.histogramVec("upstream_request_duration_seconds", "Outbound HTTP attempt duration", upstreamBuckets, "source"),

		HTTPRequestsTotal:   f.counterVec("http_requests_total", "API requests", "method", "route", "status"),
		HTTPRequestDuration: f.histogramVec("http_request_duration_seconds", "API request duration", prometheus.DefBuckets, "method", "route"),
	}
}

type collectorFactory struct {
	auto      promauto.Factory
	namespace string
}

func (f collectorFactory) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return f.auto.NewCounterVec(prometheus.CounterOpts{Namespace: f.namespace, Name: name, Help: help}, labels)
}

func (f collectorFactory) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return f.auto.NewHistogram(prometheus.HistogramOpts{Namespace: f.namespace, Name: name, Help: help, Buckets: buckets})
}

func (f collectorFactory) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return f.auto.NewHistogramVec(prometheus.HistogramOpts{Namespace: f.namespace, Name: name, Help: help, Buckets: buckets}, labels)
}

// RecordSearchAttempt records one fallback ladder attempt.
func (m *Metrics) RecordSearchAttempt(strategy, outcome string) {
	if m == nil {
		return
	}
	m.SearchAttempts.WithLabelValues(strategy, outcome).Inc()
}

// RecordSearch records a finished search. An empty strategy means no tier
// produced papers.
func (m *Metrics) RecordSearch(strategy string, paperCount int, durationSeconds float64) {
	if m == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	m.SearchesTotal.WithLabelValues(strategy).Inc()
	m.PapersReturned.Observe(float64(paperCount))
	m.SearchDuration.Observe(durationSeconds)
}

func (m *Metrics) RecordQueryTranslation(origin string) {
	if m == nil {
		return
	}
	m.QueryTranslations.WithLabelValues(origin).Inc()
}

// RecordExtraction counts an extraction outcome. The researcher count is
// only observed for "success".
func (m *Metrics) RecordExtraction(outcome string, researchers int) {
	if m == nil {
		return
	}
	m.Extractions.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.ResearchersExtracted.Observe(float64(researchers))
	}
}

func (m *Metrics) RecordEnrichmentFailure(stage string) {
	if m == nil {
		return
	}
	m.EnrichmentStageFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) RecordEnrichment(durationSeconds float64) {
	if m == nil {
		return
	}
	m.EnrichmentDuration.Observe(durationSeconds)
}

func (m *Metrics) RecordProfileLookup(outcome string) {
	if m == nil {
		return
	}
	m.ProfileLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordContactPoll() {
	if m == nil {
		return
	}
	m.ContactPolls.Inc()
}

// RecordContactOutcome records the terminal status of a contact resolution.
func (m *Metrics) RecordContactOutcome(status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ContactOutcomes.WithLabelValues(status).Inc()
	m.ContactDuration.Observe(durationSeconds)
}

// RecordLLMCall records a successful completion and its token usage.
func (m *Metrics) RecordLLMCall(operation, model string, durationSeconds float64, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.LLMCalls.WithLabelValues(operation, model).Inc()
	m.LLMLatency.WithLabelValues(operation, model).Observe(durationSeconds)
	m.LLMTokens.WithLabelValues(operation, model, "input").Add(float64(inputTokens))
	m.LLMTokens.WithLabelValues(operation, model, "output").Add(float64(outputTokens))
}

func (m *Metrics) RecordLLMFailure(operation, model, errorType string) {
	if m == nil {
		return
	}
	m.LLMFailures.WithLabelValues(operation, model, errorType).Inc()
}

// ObserveUpstream matches papersources.ObserveFunc. A zero status means the
// attempt failed before a response arrived and is labelled "error".
func (m *Metrics) ObserveUpstream(source string, statusCode int, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	m.UpstreamRequestsTotal.WithLabelValues(source, status).Inc()
	m.UpstreamRequestDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
