// Package jsonfile persists schema documents, the server registry and
// region templates as pretty-printed JSON files, with an mtime read
// cache and write-temp-then-rename atomicity.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/adapters/metrics"
	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/ports"
)

// DocumentStore keeps one JSON document per namespace in a directory,
// named <factory>_<system>.json. Factories must not contain underscores;
// the first underscore splits the two halves back apart.
type DocumentStore struct {
	dir     string
	clock   ports.Clock
	metrics *metrics.Collector
	logger  zerolog.Logger

	mu      sync.Mutex
	cache   map[schema.Namespace]cacheEntry
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

type cacheEntry struct {
	doc   *schema.Document
	mtime time.Time
}

// NewDocumentStore creates the directory if needed and returns a store
// over it. The metrics collector may be nil.
func NewDocumentStore(dir string, clock ports.Clock, m *metrics.Collector, logger zerolog.Logger) (*DocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create schema directory: %w", err)
	}
	return &DocumentStore{
		dir:     dir,
		clock:   clock,
		metrics: m,
		logger:  logger,
		cache:   make(map[schema.Namespace]cacheEntry),
		stopCh:  make(chan struct{}),
	}, nil
}

// Load retrieves a namespace's document. An absent or empty file reports
// schema.ErrNotFound. A file that no longer decodes is copied to a
// timestamped sibling and also reported as schema.ErrNotFound; decode
// failures never reach callers.
func (s *DocumentStore) Load(ctx context.Context, ns schema.Namespace) (*schema.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.docPath(ns)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		s.countLoad("not_found")
		return nil, fmt.Errorf("namespace %s: %w", ns, schema.ErrNotFound)
	}
	if err != nil {
		s.countLoad("error")
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if entry, ok := s.cache[ns]; ok && entry.mtime.Equal(info.ModTime()) {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		s.countLoad("ok")
		return entry.doc.Clone(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.countLoad("error")
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.countLoad("not_found")
		return nil, fmt.Errorf("namespace %s: %w", ns, schema.ErrNotFound)
	}

	doc := schema.NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		s.recover(path, data, err)
		s.countLoad("not_found")
		return nil, fmt.Errorf("namespace %s: %w", ns, schema.ErrNotFound)
	}

	s.cache[ns] = cacheEntry{doc: doc.Clone(), mtime: info.ModTime()}
	s.countLoad("ok")
	return doc, nil
}

// Save atomically replaces a namespace's document and refreshes the cache.
func (s *DocumentStore) Save(ctx context.Context, ns schema.Namespace, doc *schema.Document) error {
	if err := ns.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.countSave("error")
		return fmt.Errorf("encode namespace %s: %w", ns, err)
	}
	data = append(data, '\n')

	path := s.docPath(ns)
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		s.countSave("error")
		return fmt.Errorf("write %s: %w", path, err)
	}

	entry := cacheEntry{doc: doc.Clone()}
	if info, err := os.Stat(path); err == nil {
		entry.mtime = info.ModTime()
	}
	s.cache[ns] = entry
	s.countSave("ok")
	return nil
}

// Delete removes a namespace's document entirely.
func (s *DocumentStore) Delete(ctx context.Context, ns schema.Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.docPath(ns)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("namespace %s: %w", ns, schema.ErrNotFound)
		}
		return fmt.Errorf("remove %s: %w", path, err)
	}
	delete(s.cache, ns)
	return nil
}

// Rename moves a document to a new namespace. The source must exist; an
// existing destination is moved to a timestamped sibling first, with a
// warning, so its bytes survive.
func (s *DocumentStore) Rename(ctx context.Context, old, new schema.Namespace) error {
	if err := new.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.docPath(old)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return fmt.Errorf("namespace %s: %w", old, schema.ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	dst := s.docPath(new)
	if _, err := os.Stat(dst); err == nil {
		backup := dst + ".bak." + s.stamp()
		if err := os.Rename(dst, backup); err != nil {
			return fmt.Errorf("back up %s: %w", dst, err)
		}
		s.logger.Warn().
			Str("namespace", new.String()).
			Str("backup", backup).
			Msg("rename target existed, moved aside")
	}

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("rename %s to %s: %w", src, dst, err)
	}
	delete(s.cache, old)
	delete(s.cache, new)
	return nil
}

// List enumerates the namespaces that have documents, in file name order.
func (s *DocumentStore) List(ctx context.Context) ([]schema.Namespace, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	var out []schema.Namespace
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ns, ok := parseDocName(e.Name()); ok {
			out = append(out, ns)
		}
	}
	return out, nil
}

// Path reports where a namespace's document lives.
func (s *DocumentStore) Path(ns schema.Namespace) string {
	return s.docPath(ns)
}

// Watch starts invalidating cached documents when files in the schema
// directory change, so external edits are picked up on the next load.
func (s *DocumentStore) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	s.watcher = watcher

	go s.watchLoop()

	s.logger.Info().Str("dir", s.dir).Msg("watching schema directory for changes")
	return nil
}

// Close stops the watcher if one is running.
func (s *DocumentStore) Close() {
	close(s.stopCh)
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *DocumentStore) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			ns, known := parseDocName(filepath.Base(event.Name))
			if !known {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.mu.Lock()
				delete(s.cache, ns)
				s.mu.Unlock()
				s.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("document changed on disk")
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error().Err(err).Msg("schema watcher error")

		case <-s.stopCh:
			return
		}
	}
}

// recover copies unreadable bytes to a timestamped sibling so nothing is
// silently lost, then lets the caller report schema.ErrNotFound.
func (s *DocumentStore) recover(path string, data []byte, cause error) {
	backup := path + ".corrupt." + s.stamp()
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("could not back up unreadable document")
	} else {
		s.logger.Warn().
			Err(cause).
			Str("path", path).
			Str("backup", backup).
			Msg("document unreadable, backed up")
	}
	if s.metrics != nil {
		s.metrics.LoadRecoveries.Inc()
	}
}

func (s *DocumentStore) stamp() string {
	return s.clock.Now().UTC().Format("20060102-150405")
}

func (s *DocumentStore) docPath(ns schema.Namespace) string {
	return filepath.Join(s.dir, ns.Factory+"_"+ns.System+".json")
}

// parseDocName maps a file name back to its namespace. Backup siblings
// and anything else that is not <factory>_<system>.json is rejected.
func parseDocName(name string) (schema.Namespace, bool) {
	if !strings.HasSuffix(name, ".json") {
		return schema.Namespace{}, false
	}
	stem := strings.TrimSuffix(name, ".json")
	factory, system, ok := strings.Cut(stem, "_")
	if !ok || factory == "" || system == "" {
		return schema.Namespace{}, false
	}
	return schema.Namespace{Factory: factory, System: system}, true
}

func (s *DocumentStore) countLoad(result string) {
	if s.metrics != nil {
		s.metrics.DocumentLoads.WithLabelValues(result).Inc()
	}
}

func (s *DocumentStore) countSave(result string) {
	if s.metrics != nil {
		s.metrics.DocumentSaves.WithLabelValues(result).Inc()
	}
}

// Ensure interface compliance.
var _ ports.DocumentStore = (*DocumentStore)(nil)
