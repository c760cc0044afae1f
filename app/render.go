package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/adapters/metrics"
	"github.com/parsedesk/parsedesk/domain/render"
	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/ports"
)

// Renderer extracts message fields against a stored schema. Lookups are
// strict: an absent namespace, type or version is an error, never an
// empty render.
type Renderer struct {
	store   ports.DocumentStore
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewRenderer creates a renderer over the given store. The metrics
// collector may be nil.
func NewRenderer(store ports.DocumentStore, m *metrics.Collector, logger zerolog.Logger) *Renderer {
	return &Renderer{
		store:   store,
		metrics: m,
		logger:  logger.With().Str("service", "renderer").Logger(),
	}
}

// RenderMessage extracts every field of the (type, version) layout from
// the raw message. Data-quality conditions are reported per field, not
// as errors.
func (r *Renderer) RenderMessage(ctx context.Context, ns schema.Namespace, typeName, version, raw string) ([]render.RenderedField, error) {
	layouts, err := r.resolve(ctx, ns, typeName, version)
	if err != nil {
		return nil, err
	}

	fields := render.RenderMessage(layouts, raw)
	if r.metrics != nil {
		r.metrics.RenderedMessages.Inc()
		for _, f := range fields {
			r.metrics.RenderedFields.WithLabelValues(string(f.Status)).Inc()
		}
	}
	r.logger.Debug().
		Str("namespace", ns.String()).
		Str("type", typeName).
		Str("version", version).
		Int("fields", len(fields)).
		Msg("message rendered")
	return fields, nil
}

// RenderField extracts a single named field from the raw message.
func (r *Renderer) RenderField(ctx context.Context, ns schema.Namespace, typeName, version, fieldName, raw string) (render.RenderedField, error) {
	layouts, err := r.resolve(ctx, ns, typeName, version)
	if err != nil {
		return render.RenderedField{}, err
	}

	for _, layout := range layouts {
		if layout.Name != fieldName {
			continue
		}
		field := render.RenderField(layout, raw)
		if r.metrics != nil {
			r.metrics.RenderedFields.WithLabelValues(string(field.Status)).Inc()
		}
		return field, nil
	}
	return render.RenderedField{}, fmt.Errorf("field %q: %w", fieldName, schema.ErrNotFound)
}

// Layout returns the resolved field layouts of a (type, version) pair in
// schema order.
func (r *Renderer) Layout(ctx context.Context, ns schema.Namespace, typeName, version string) ([]render.FieldLayout, error) {
	return r.resolve(ctx, ns, typeName, version)
}

func (r *Renderer) resolve(ctx context.Context, ns schema.Namespace, typeName, version string) ([]render.FieldLayout, error) {
	doc, err := r.store.Load(ctx, ns)
	if err != nil {
		return nil, err
	}
	return render.Resolve(doc, typeName, version)
}
