package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/domain/registry"
	"github.com/parsedesk/parsedesk/ports"
)

// registryFile is the single document holding every server entry.
const registryFile = "server_configs.json"

// RegistryStore keeps the server registry as one JSON array file.
type RegistryStore struct {
	path   string
	clock  ports.Clock
	logger zerolog.Logger

	mu      sync.Mutex
	cache   []registry.Entry
	cached  bool
	cacheMt time.Time
}

// NewRegistryStore creates the directory if needed and returns a store
// over <dir>/server_configs.json.
func NewRegistryStore(dir string, clock ports.Clock, logger zerolog.Logger) (*RegistryStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}
	return &RegistryStore{
		path:   filepath.Join(dir, registryFile),
		clock:  clock,
		logger: logger,
	}, nil
}

// Load retrieves all registry entries. An absent or empty file is an
// empty registry; an unreadable one is backed up and treated as empty.
func (s *RegistryStore) Load(ctx context.Context) ([]registry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", s.path, err)
	}

	if s.cached && s.cacheMt.Equal(info.ModTime()) {
		return copyEntries(s.cache), nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var entries []registry.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		backup := s.path + ".corrupt." + s.clock.Now().UTC().Format("20060102-150405")
		if werr := os.WriteFile(backup, data, 0o644); werr != nil {
			s.logger.Error().Err(werr).Str("path", s.path).Msg("could not back up unreadable registry")
		} else {
			s.logger.Warn().Err(err).Str("backup", backup).Msg("registry unreadable, backed up")
		}
		return nil, nil
	}

	s.cache = copyEntries(entries)
	s.cached = true
	s.cacheMt = info.ModTime()
	return entries, nil
}

// Save atomically replaces the registry.
func (s *RegistryStore) Save(ctx context.Context, entries []registry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entries == nil {
		entries = []registry.Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}

	s.cache = copyEntries(entries)
	s.cached = true
	if info, err := os.Stat(s.path); err == nil {
		s.cacheMt = info.ModTime()
	}
	return nil
}

func copyEntries(entries []registry.Entry) []registry.Entry {
	out := make([]registry.Entry, len(entries))
	copy(out, entries)
	return out
}

// Ensure interface compliance.
var _ ports.RegistryStore = (*RegistryStore)(nil)
