package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/domain/template"
	"github.com/parsedesk/parsedesk/ports"
)

// TemplateStore is an in-memory implementation of ports.TemplateStore.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]template.Template // by ID
}

// NewTemplateStore creates a new in-memory template store.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{
		templates: make(map[string]template.Template),
	}
}

// List retrieves all templates in id order.
func (s *TemplateStore) List(ctx context.Context) ([]template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]template.Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, cloneTemplate(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get retrieves a template by id.
func (s *TemplateStore) Get(ctx context.Context, id string) (template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return template.Template{}, fmt.Errorf("template %s: %w", id, schema.ErrNotFound)
	}
	return cloneTemplate(t), nil
}

// Put stores or replaces a template.
func (s *TemplateStore) Put(ctx context.Context, t template.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates[t.ID] = cloneTemplate(t)
	return nil
}

// Delete removes a template.
func (s *TemplateStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return fmt.Errorf("template %s: %w", id, schema.ErrNotFound)
	}
	delete(s.templates, id)
	return nil
}

// Clear removes all templates (for testing).
func (s *TemplateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = make(map[string]template.Template)
}

func cloneTemplate(t template.Template) template.Template {
	out := t
	if t.Nodes != nil {
		out.Nodes = make([]string, len(t.Nodes))
		copy(out.Nodes, t.Nodes)
	}
	return out
}

// Ensure interface compliance.
var _ ports.TemplateStore = (*TemplateStore)(nil)
