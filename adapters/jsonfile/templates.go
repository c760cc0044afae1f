package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/domain/template"
	"github.com/parsedesk/parsedesk/ports"
)

// TemplateStore keeps one JSON file per region template, named <id>.json.
type TemplateStore struct {
	dir    string
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewTemplateStore creates the directory if needed and returns a store
// over it.
func NewTemplateStore(dir string, logger zerolog.Logger) (*TemplateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template directory: %w", err)
	}
	return &TemplateStore{dir: dir, logger: logger}, nil
}

// List retrieves all templates in file name order. Files that no longer
// decode are skipped with a warning.
func (s *TemplateStore) List(ctx context.Context) ([]template.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	var out []template.Template
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		t, err := readTemplate(path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable template")
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Get retrieves a template by id.
func (s *TemplateStore) Get(ctx context.Context, id string) (template.Template, error) {
	if err := checkTemplateID(id); err != nil {
		return template.Template{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.templatePath(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return template.Template{}, fmt.Errorf("template %s: %w", id, schema.ErrNotFound)
	}
	t, err := readTemplate(path)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("template unreadable")
		return template.Template{}, fmt.Errorf("template %s: %w", id, schema.ErrNotFound)
	}
	return t, nil
}

// Put stores or replaces a template.
func (s *TemplateStore) Put(ctx context.Context, t template.Template) error {
	if err := checkTemplateID(t.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode template %s: %w", t.ID, err)
	}
	data = append(data, '\n')

	path := s.templatePath(t.ID)
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Delete removes a template.
func (s *TemplateStore) Delete(ctx context.Context, id string) error {
	if err := checkTemplateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.templatePath(id)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("template %s: %w", id, schema.ErrNotFound)
		}
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (s *TemplateStore) templatePath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func readTemplate(path string) (template.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return template.Template{}, err
	}
	var t template.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return template.Template{}, err
	}
	return t, nil
}

// checkTemplateID rejects ids that would escape the template directory.
func checkTemplateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("template id %q: %w", id, schema.ErrMalformed)
	}
	return nil
}

// Ensure interface compliance.
var _ ports.TemplateStore = (*TemplateStore)(nil)
