// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/parsedesk/parsedesk/domain/registry"
	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/domain/template"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// DocumentStore persists one schema document per namespace.
type DocumentStore interface {
	// Load retrieves a namespace's document. A missing, empty or
	// unreadable document reports schema.ErrNotFound; an unreadable one
	// is backed up first so no data is silently lost.
	Load(ctx context.Context, ns schema.Namespace) (*schema.Document, error)

	// Save atomically replaces a namespace's document.
	Save(ctx context.Context, ns schema.Namespace, doc *schema.Document) error

	// Delete removes a namespace's document entirely.
	Delete(ctx context.Context, ns schema.Namespace) error

	// Rename moves a document to a new namespace. The source must exist;
	// an existing destination is backed up and overwritten.
	Rename(ctx context.Context, old, new schema.Namespace) error

	// List enumerates the namespaces that have documents.
	List(ctx context.Context) ([]schema.Namespace, error)

	// Path reports where a namespace's document lives (for stats).
	Path(ns schema.Namespace) string
}

// RegistryStore persists the server registry as one document.
type RegistryStore interface {
	// Load retrieves all registry entries.
	Load(ctx context.Context) ([]registry.Entry, error)

	// Save atomically replaces the registry.
	Save(ctx context.Context, entries []registry.Entry) error
}

// TemplateStore persists region templates, one document each.
type TemplateStore interface {
	// List retrieves all templates. Unreadable ones are skipped.
	List(ctx context.Context) ([]template.Template, error)

	// Get retrieves a template by id (schema.ErrNotFound when absent).
	Get(ctx context.Context, id string) (template.Template, error)

	// Put stores or replaces a template.
	Put(ctx context.Context, t template.Template) error

	// Delete removes a template (schema.ErrNotFound when absent).
	Delete(ctx context.Context, id string) error
}
