package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/domain/registry"
	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/ports"
)

// Registry manages server registry entries and their cascades. Updating
// an entry relabels its bound templates and, when the namespace
// changed, relocates the schema document. Deleting an entry removes its
// bound templates; the schema document stays.
type Registry struct {
	store     ports.RegistryStore
	docs      ports.DocumentStore
	templates *Templates
	clock     ports.Clock
	logger    zerolog.Logger
}

// NewRegistry creates the registry service. docs and templates may be
// nil, which disables the respective cascade.
func NewRegistry(store ports.RegistryStore, docs ports.DocumentStore, templates *Templates, clk ports.Clock, logger zerolog.Logger) *Registry {
	return &Registry{
		store:     store,
		docs:      docs,
		templates: templates,
		clock:     clk,
		logger:    logger.With().Str("service", "registry").Logger(),
	}
}

// List returns all registry entries.
func (r *Registry) List(ctx context.Context) ([]registry.Entry, error) {
	return r.store.Load(ctx)
}

// Get returns the entry with the given id.
func (r *Registry) Get(ctx context.Context, id string) (registry.Entry, error) {
	entries, err := r.store.Load(ctx)
	if err != nil {
		return registry.Entry{}, err
	}
	i := registry.FindIndex(entries, id)
	if i < 0 {
		return registry.Entry{}, fmt.Errorf("server config %s: %w", id, schema.ErrNotFound)
	}
	return entries[i], nil
}

// Create validates and stores a new entry. The id is allocated here.
func (r *Registry) Create(ctx context.Context, e registry.Entry) (registry.Entry, error) {
	e = trimEntry(e)
	if err := e.Validate(); err != nil {
		return registry.Entry{}, err
	}

	entries, err := r.store.Load(ctx)
	if err != nil {
		return registry.Entry{}, err
	}
	if err := registry.EnsureUnique(entries, e.Factory, e.System, e.Server.Alias, ""); err != nil {
		return registry.Entry{}, err
	}

	e.ID = registry.AllocateID(entries)
	now := r.clock.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := r.store.Save(ctx, append(entries, e)); err != nil {
		return registry.Entry{}, err
	}
	r.logger.Info().
		Str("id", e.ID).
		Str("namespace", e.Namespace().String()).
		Str("alias", e.Server.Alias).
		Msg("server config created")
	return e, nil
}

// Update replaces the entry with the given id, keeping its creation
// time. Bound templates are relabelled, and when the factory or system
// changed the schema document moves to the new namespace.
func (r *Registry) Update(ctx context.Context, id string, e registry.Entry) (registry.Entry, error) {
	e = trimEntry(e)
	if err := e.Validate(); err != nil {
		return registry.Entry{}, err
	}

	entries, err := r.store.Load(ctx)
	if err != nil {
		return registry.Entry{}, err
	}
	i := registry.FindIndex(entries, id)
	if i < 0 {
		return registry.Entry{}, fmt.Errorf("server config %s: %w", id, schema.ErrNotFound)
	}
	if err := registry.EnsureUnique(entries, e.Factory, e.System, e.Server.Alias, id); err != nil {
		return registry.Entry{}, err
	}

	previous := entries[i]
	e.ID = id
	e.CreatedAt = previous.CreatedAt
	e.UpdatedAt = r.clock.Now().UTC()
	entries[i] = e

	if err := r.store.Save(ctx, entries); err != nil {
		return registry.Entry{}, err
	}

	if r.templates != nil {
		if _, err := r.templates.UpdateByServer(ctx, id, e.Factory, e.System); err != nil {
			r.logger.Warn().Err(err).Str("id", id).Msg("template relabel failed")
		}
	}
	r.relocateDocument(ctx, previous.Namespace(), e.Namespace())
	return e, nil
}

// Delete removes the entry and its bound templates. It returns how many
// templates went with it.
func (r *Registry) Delete(ctx context.Context, id string) (int, error) {
	entries, err := r.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	i := registry.FindIndex(entries, id)
	if i < 0 {
		return 0, fmt.Errorf("server config %s: %w", id, schema.ErrNotFound)
	}

	if err := r.store.Save(ctx, append(entries[:i], entries[i+1:]...)); err != nil {
		return 0, err
	}

	removed := 0
	if r.templates != nil {
		removed, err = r.templates.DeleteByServer(ctx, id)
		if err != nil {
			r.logger.Warn().Err(err).Str("id", id).Msg("bound template cleanup failed")
		}
	}
	r.logger.Info().Str("id", id).Int("templates", removed).Msg("server config deleted")
	return removed, nil
}

// Factories lists the distinct factory names in first-seen order.
func (r *Registry) Factories(ctx context.Context) ([]string, error) {
	entries, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return registry.Factories(entries), nil
}

// Systems lists the distinct system names of one factory.
func (r *Registry) Systems(ctx context.Context, factory string) ([]string, error) {
	entries, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return registry.Systems(entries, factory), nil
}

// relocateDocument moves a schema document between namespaces after a
// registry rename. A source that never stored a document is fine.
func (r *Registry) relocateDocument(ctx context.Context, old, new schema.Namespace) {
	if r.docs == nil || old == new {
		return
	}
	if old.Factory == "" || old.System == "" {
		return
	}
	err := r.docs.Rename(ctx, old, new)
	switch {
	case err == nil:
		r.logger.Info().Str("from", old.String()).Str("to", new.String()).Msg("schema document relocated")
	case errors.Is(err, schema.ErrNotFound):
	default:
		r.logger.Warn().Err(err).Str("from", old.String()).Str("to", new.String()).Msg("schema document relocation failed")
	}
}

func trimEntry(e registry.Entry) registry.Entry {
	e.Factory = strings.TrimSpace(e.Factory)
	e.System = strings.TrimSpace(e.System)
	e.Server.Alias = strings.TrimSpace(e.Server.Alias)
	e.Server.Hostname = strings.TrimSpace(e.Server.Hostname)
	e.Server.Username = strings.TrimSpace(e.Server.Username)
	e.Server.Password = strings.TrimSpace(e.Server.Password)
	e.Server.RealtimePath = strings.TrimSpace(e.Server.RealtimePath)
	e.Server.ArchivePath = strings.TrimSpace(e.Server.ArchivePath)
	return e
}
