package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the resolution pipeline.
// All methods are safe on a nil receiver so tests can pass nil.
type Metrics struct {
	// Decisions by outcome (accepted, rejected, no_candidate) and match type
	Decisions *prometheus.CounterVec

	// End-to-end Resolve latency
	ResolveLatency prometheus.Histogram

	// Candidate lookup latency by source
	LookupLatency *prometheus.HistogramVec

	// CAS losses and retries
	Conflicts prometheus.Counter

	// Events answered from the provenance log without work
	Duplicates prometheus.Counter

	// Read-through cache results by cache and result (hit, miss, error)
	CacheResults *prometheus.CounterVec

	// Outbox relay results (published, failed)
	OutboxRecords *prometheus.CounterVec
}

// New registers the resolution metrics with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idgraph_resolution_decisions_total",
			Help: "Resolution decisions by outcome and match type",
		}, []string{"outcome", "match_type"}),

		ResolveLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "idgraph_resolution_resolve_duration_seconds",
			Help:    "Duration of a full resolve including lookups and commit",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		LookupLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idgraph_resolution_lookup_duration_seconds",
			Help:    "Duration of candidate lookups by source",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}, []string{"source"}), // source: "email", "domain", "fingerprint", "ip"

		Conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "idgraph_resolution_conflicts_total",
			Help: "Optimistic concurrency conflicts on visitor commits",
		}),

		Duplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "idgraph_resolution_duplicates_total",
			Help: "Replayed events answered from the provenance log",
		}),

		CacheResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idgraph_cache_results_total",
			Help: "Read-through cache lookups by cache and result",
		}, []string{"cache", "result"}),

		OutboxRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idgraph_outbox_records_total",
			Help: "Outbox records relayed to the broker by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementDecision(outcome, matchType string) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome, matchType).Inc()
	}
}

// ObserveResolve records the duration since start.
func (m *Metrics) ObserveResolve(start time.Time) {
	if m != nil {
		m.ResolveLatency.Observe(time.Since(start).Seconds())
	}
}

// ObserveLookup records the duration of a candidate lookup since start.
func (m *Metrics) ObserveLookup(source string, start time.Time) {
	if m != nil {
		m.LookupLatency.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) IncrementConflict() {
	if m != nil {
		m.Conflicts.Inc()
	}
}

func (m *Metrics) IncrementDuplicate() {
	if m != nil {
		m.Duplicates.Inc()
	}
}

func (m *Metrics) IncrementCache(cache, result string) {
	if m != nil {
		m.CacheResults.WithLabelValues(cache, result).Inc()
	}
}

func (m *Metrics) AddOutbox(result string, n int) {
	if m != nil && n > 0 {
		m.OutboxRecords.WithLabelValues(result).Add(float64(n))
	}
}
