// Package metrics provides Prometheus metrics for the dictionary service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	TermsCreated        prometheus.Counter
	TermsUpdated        prometheus.Counter
	TermsDeleted        prometheus.Counter
	MutationsFailed     prometheus.Counter
	QueryCacheHits      prometheus.Counter
	QueryCacheMisses    prometheus.Counter
	CacheInvalidations  prometheus.Counter
	StaleResponses      prometheus.Counter
	FetchDuration       prometheus.Histogram
	MutationsInFlight   prometheus.Gauge
	FallbackReads       prometheus.Counter
	StreamEventsOut     prometheus.Counter
	StreamEventsIn      prometheus.Counter
	CircuitBreakerState *prometheus.GaugeVec
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		TermsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictionary_terms_created_total",
			Help: "Total terms created",
		}),
		TermsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictionary_terms_updated_total",
			Help: "Total terms updated",
		}),
		TermsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictionary_terms_deleted_total",
			Help: "Total terms deleted",
		}),
		MutationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictionary_mutations_failed_total",
			Help: "Total failed term mutations",
		}),
		QueryCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictionary_query_cache_hits_total",
			Help: "Paged reads served from the query cache",
		}),
		QueryCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictionary_query_cache_misses_total",
			Help: "Paged reads that went to the store",
		}),
		CacheInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictionary_cache_invalidations_total",
			Help: "Full query cache invalidations",
		}),
		StaleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictionary_stale_responses_total",
			Help: "Fetch responses discarded because their parameters were superseded",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dictionary_fetch_duration_seconds",
			Help:    "Paged read duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		MutationsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dictionary_mutations_in_flight",
			Help: "Currently outstanding term mutations",
		}),
		FallbackReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictionary_fallback_reads_total",
			Help: "Reads served from the built-in seed dictionary",
		}),
		StreamEventsOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictionary_stream_events_produced_total",
			Help: "Term change events published",
		}),
		StreamEventsIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dictionary_stream_events_consumed_total",
			Help: "Term change events consumed",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	prometheus.MustRegister(
		m.TermsCreated,
		m.TermsUpdated,
		m.TermsDeleted,
		m.MutationsFailed,
		m.QueryCacheHits,
		m.QueryCacheMisses,
		m.CacheInvalidations,
		m.StaleResponses,
		m.FetchDuration,
		m.MutationsInFlight,
		m.FallbackReads,
		m.StreamEventsOut,
		m.StreamEventsIn,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
