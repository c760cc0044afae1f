package memory

import (
	"context"
	"sync"

	"github.com/parsedesk/parsedesk/domain/registry"
	"github.com/parsedesk/parsedesk/ports"
)

// RegistryStore is an in-memory implementation of ports.RegistryStore.
type RegistryStore struct {
	mu      sync.RWMutex
	entries []registry.Entry
}

// NewRegistryStore creates a new in-memory registry store.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{}
}

// Load retrieves all registry entries.
func (s *RegistryStore) Load(ctx context.Context) ([]registry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]registry.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Save replaces the registry with a copy of the given entries.
func (s *RegistryStore) Save(ctx context.Context, entries []registry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]registry.Entry, len(entries))
	copy(s.entries, entries)
	return nil
}

// Clear removes all entries (for testing).
func (s *RegistryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Ensure interface compliance.
var _ ports.RegistryStore = (*RegistryStore)(nil)
