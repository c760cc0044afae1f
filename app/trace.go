package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/adapters/metrics"
	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/domain/trace"
	"github.com/parsedesk/parsedesk/ports"
)

// Tracer folds classified log entries into request/response
// transactions using a namespace's schema. An absent namespace leaves
// every type unconfigured, so all entries pass through unfolded.
type Tracer struct {
	store   ports.DocumentStore
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewTracer creates a tracer over the given store. The metrics
// collector may be nil.
func NewTracer(store ports.DocumentStore, m *metrics.Collector, logger zerolog.Logger) *Tracer {
	return &Tracer{
		store:   store,
		metrics: m,
		logger:  logger.With().Str("service", "tracer").Logger(),
	}
}

// Correlate groups the entries into transactions per the namespace's
// request/response links.
func (t *Tracer) Correlate(ctx context.Context, ns schema.Namespace, entries []trace.Entry) ([]trace.Item, error) {
	doc, err := loadOrEmpty(ctx, t.store, ns)
	if err != nil {
		return nil, err
	}

	items := trace.NewCorrelator(doc).Correlate(entries)

	var folded, matched int
	for _, item := range items {
		if item.Transaction == nil {
			continue
		}
		folded++
		if item.Transaction.Response != nil {
			matched++
		}
	}
	if t.metrics != nil {
		t.metrics.MatchedTransactions.Add(float64(matched))
	}
	t.logger.Debug().
		Str("namespace", ns.String()).
		Int("entries", len(entries)).
		Int("transactions", folded).
		Int("matched", matched).
		Msg("entries correlated")
	return items, nil
}
