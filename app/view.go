package app

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/domain/view"
	"github.com/parsedesk/parsedesk/ports"
)

// Projector builds read-only projections of a namespace's document.
// An absent namespace projects as an empty document.
type Projector struct {
	store  ports.DocumentStore
	logger zerolog.Logger
}

// NewProjector creates a projector over the given store.
func NewProjector(store ports.DocumentStore, logger zerolog.Logger) *Projector {
	return &Projector{
		store:  store,
		logger: logger.With().Str("service", "projector").Logger(),
	}
}

// DocumentStats pairs the node counts with the backing file's metadata.
// LastModified is zero and Size is -1 when the backing location cannot
// be inspected.
type DocumentStats struct {
	view.Stats
	Path         string
	Size         int64
	LastModified time.Time
}

// Tree returns the document's full hierarchy in declaration order.
func (p *Projector) Tree(ctx context.Context, ns schema.Namespace) ([]*view.Node, error) {
	doc, err := loadOrEmpty(ctx, p.store, ns)
	if err != nil {
		return nil, err
	}
	return view.BuildTree(doc), nil
}

// Stats counts the document's nodes and adds file metadata.
func (p *Projector) Stats(ctx context.Context, ns schema.Namespace) (DocumentStats, error) {
	doc, err := loadOrEmpty(ctx, p.store, ns)
	if err != nil {
		return DocumentStats{}, err
	}

	stats := DocumentStats{
		Stats: view.BuildStats(doc),
		Path:  p.store.Path(ns),
		Size:  -1,
	}
	if info, err := os.Stat(stats.Path); err == nil {
		stats.Size = info.Size()
		stats.LastModified = info.ModTime()
	}
	return stats, nil
}

// Search scans the document for name, description and escape hits.
// An empty level searches every tier.
func (p *Projector) Search(ctx context.Context, ns schema.Namespace, query string, level schema.Level) ([]view.Match, error) {
	doc, err := loadOrEmpty(ctx, p.store, ns)
	if err != nil {
		return nil, err
	}
	return view.Search(doc, query, level), nil
}

// Namespaces lists every namespace that has a document.
func (p *Projector) Namespaces(ctx context.Context) ([]schema.Namespace, error) {
	return p.store.List(ctx)
}
