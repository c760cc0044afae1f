// Package memory provides in-memory store implementations,
// used in tests and as a scratch backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/ports"
)

// DocStore is an in-memory implementation of ports.DocumentStore.
type DocStore struct {
	mu   sync.RWMutex
	docs map[schema.Namespace]*schema.Document
}

// NewDocStore creates a new in-memory document store.
func NewDocStore() *DocStore {
	return &DocStore{
		docs: make(map[schema.Namespace]*schema.Document),
	}
}

// Load retrieves a namespace's document.
func (s *DocStore) Load(ctx context.Context, ns schema.Namespace) (*schema.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[ns]
	if !ok {
		return nil, fmt.Errorf("namespace %s: %w", ns, schema.ErrNotFound)
	}
	return doc.Clone(), nil
}

// Save stores a deep copy of the document.
func (s *DocStore) Save(ctx context.Context, ns schema.Namespace, doc *schema.Document) error {
	if err := ns.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[ns] = doc.Clone()
	return nil
}

// Delete removes a namespace's document.
func (s *DocStore) Delete(ctx context.Context, ns schema.Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[ns]; !ok {
		return fmt.Errorf("namespace %s: %w", ns, schema.ErrNotFound)
	}
	delete(s.docs, ns)
	return nil
}

// Rename moves a document to a new namespace, overwriting any document
// already there.
func (s *DocStore) Rename(ctx context.Context, old, new schema.Namespace) error {
	if err := new.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[old]
	if !ok {
		return fmt.Errorf("namespace %s: %w", old, schema.ErrNotFound)
	}
	s.docs[new] = doc
	delete(s.docs, old)
	return nil
}

// List enumerates stored namespaces in name order.
func (s *DocStore) List(ctx context.Context) ([]schema.Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]schema.Namespace, 0, len(s.docs))
	for ns := range s.docs {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out, nil
}

// Path reports a pseudo-path for the namespace.
func (s *DocStore) Path(ns schema.Namespace) string {
	return "memory:" + ns.String()
}

// Clear removes all documents (for testing).
func (s *DocStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[schema.Namespace]*schema.Document)
}

// Ensure interface compliance.
var _ ports.DocumentStore = (*DocStore)(nil)
