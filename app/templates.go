package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/domain/template"
	"github.com/parsedesk/parsedesk/ports"
)

// Templates manages region templates. Templates bound to a server
// registry entry (via ServerConfigID) follow that entry: namespace
// renames relabel them and entry deletion removes them.
type Templates struct {
	store  ports.TemplateStore
	ids    ports.IDGenerator
	clock  ports.Clock
	logger zerolog.Logger
}

// NewTemplates creates the template service.
func NewTemplates(store ports.TemplateStore, ids ports.IDGenerator, clock ports.Clock, logger zerolog.Logger) *Templates {
	return &Templates{
		store:  store,
		ids:    ids,
		clock:  clock,
		logger: logger.With().Str("service", "templates").Logger(),
	}
}

// List returns one page of templates passing the filter, most recently
// updated first.
func (s *Templates) List(ctx context.Context, f template.Filter) (template.Page, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return template.Page{}, err
	}
	return template.Select(all, f), nil
}

// Get returns a template by id.
func (s *Templates) Get(ctx context.Context, id string) (template.Template, error) {
	return s.store.Get(ctx, id)
}

// Create stores a new template. The id and timestamps are assigned
// here; the node list is sanitized.
func (s *Templates) Create(ctx context.Context, t template.Template) (template.Template, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return template.Template{}, fmt.Errorf("template name is required: %w", schema.ErrMalformed)
	}
	t.ID = s.ids.New()
	t.FactoryID = strings.TrimSpace(t.FactoryID)
	t.SystemID = strings.TrimSpace(t.SystemID)
	t.ServerConfigID = strings.TrimSpace(t.ServerConfigID)
	t.Nodes = template.SanitizeNodes(t.Nodes)
	now := s.clock.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.store.Put(ctx, t); err != nil {
		return template.Template{}, err
	}
	s.logger.Info().Str("id", t.ID).Str("name", t.Name).Int("nodes", len(t.Nodes)).Msg("template created")
	return t, nil
}

// Update applies a partial update and bumps UpdatedAt.
func (s *Templates) Update(ctx context.Context, id string, p template.Patch) (template.Template, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return template.Template{}, err
	}
	t.Apply(p)
	if t.Name == "" {
		return template.Template{}, fmt.Errorf("template name is required: %w", schema.ErrMalformed)
	}
	t.UpdatedAt = s.clock.Now().UTC()

	if err := s.store.Put(ctx, t); err != nil {
		return template.Template{}, err
	}
	s.logger.Debug().Str("id", id).Msg("template updated")
	return t, nil
}

// Delete removes a template.
func (s *Templates) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("id", id).Msg("template deleted")
	return nil
}

// UpdateByServer relabels every template bound to the server entry with
// its current factory and system names. It returns how many templates
// were relabelled. An unreadable or unwritable template is skipped, not
// fatal.
func (s *Templates) UpdateByServer(ctx context.Context, serverID, factory, system string) (int, error) {
	if serverID == "" {
		return 0, nil
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, t := range all {
		if t.ServerConfigID != serverID {
			continue
		}
		t.FactoryName = factory
		t.SystemName = system
		t.UpdatedAt = s.clock.Now().UTC()
		if err := s.store.Put(ctx, t); err != nil {
			s.logger.Warn().Err(err).Str("id", t.ID).Msg("template relabel skipped")
			continue
		}
		count++
	}
	if count > 0 {
		s.logger.Info().Str("server", serverID).Int("templates", count).Msg("templates relabelled")
	}
	return count, nil
}

// DeleteByServer removes every template bound to the server entry and
// returns how many were removed.
func (s *Templates) DeleteByServer(ctx context.Context, serverID string) (int, error) {
	if serverID == "" {
		return 0, nil
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, t := range all {
		if t.ServerConfigID != serverID {
			continue
		}
		if err := s.store.Delete(ctx, t.ID); err != nil {
			s.logger.Warn().Err(err).Str("id", t.ID).Msg("template delete skipped")
			continue
		}
		count++
	}
	if count > 0 {
		s.logger.Info().Str("server", serverID).Int("templates", count).Msg("bound templates deleted")
	}
	return count, nil
}
