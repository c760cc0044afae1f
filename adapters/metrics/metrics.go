// Package metrics provides Prometheus metrics collection for ParseDesk.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for ParseDesk.
type Collector struct {
	// Store metrics
	DocumentLoads  *prometheus.CounterVec
	DocumentSaves  *prometheus.CounterVec
	LoadRecoveries prometheus.Counter
	CacheHits      prometheus.Counter

	// Mutation metrics
	Mutations        *prometheus.CounterVec
	MutationFailures *prometheus.CounterVec

	// Render metrics
	RenderedMessages prometheus.Counter
	RenderedFields   *prometheus.CounterVec

	// Trace metrics
	MatchedTransactions prometheus.Counter

	// Transfer metrics
	Imports *prometheus.CounterVec
	Exports *prometheus.CounterVec
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		// Store metrics
		DocumentLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "parsedesk",
				Name:      "document_loads_total",
				Help:      "Total number of schema document loads",
			},
			[]string{"result"},
		),
		DocumentSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "parsedesk",
				Name:      "document_saves_total",
				Help:      "Total number of schema document saves",
			},
			[]string{"result"},
		),
		LoadRecoveries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "parsedesk",
				Name:      "load_recoveries_total",
				Help:      "Total number of unreadable documents set aside during load",
			},
		),
		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "parsedesk",
				Name:      "document_cache_hits_total",
				Help:      "Total number of document loads served from cache",
			},
		),

		// Mutation metrics
		Mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "parsedesk",
				Name:      "mutations_total",
				Help:      "Total number of schema mutations applied",
			},
			[]string{"level", "op"},
		),
		MutationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "parsedesk",
				Name:      "mutation_failures_total",
				Help:      "Total number of schema mutations rejected",
			},
			[]string{"level", "op"},
		),

		// Render metrics
		RenderedMessages: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "parsedesk",
				Name:      "rendered_messages_total",
				Help:      "Total number of messages rendered",
			},
		),
		RenderedFields: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "parsedesk",
				Name:      "rendered_fields_total",
				Help:      "Total number of fields rendered",
			},
			[]string{"status"},
		),

		// Trace metrics
		MatchedTransactions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "parsedesk",
				Name:      "matched_transactions_total",
				Help:      "Total number of request/response pairs correlated",
			},
		),

		// Transfer metrics
		Imports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "parsedesk",
				Name:      "imports_total",
				Help:      "Total number of document imports",
			},
			[]string{"format", "mode"},
		),
		Exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "parsedesk",
				Name:      "exports_total",
				Help:      "Total number of document exports",
			},
			[]string{"format"},
		),
	}
}
