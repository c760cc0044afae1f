// Package app wires the schema engine's use cases: editing, clipboard,
// projections, rendering, trace correlation, the server registry,
// region templates and document transfer.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/adapters/metrics"
	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/ports"
)

// Editor applies schema mutations. Every operation is a whole-document
// read-modify-write: load the latest document, change the in-memory
// copy, validate, save. A failed validation leaves the stored document
// untouched. Concurrent editors of one namespace race last-writer-wins;
// there is no cross-process locking.
type Editor struct {
	store   ports.DocumentStore
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewEditor creates an editor over the given store. The metrics
// collector may be nil.
func NewEditor(store ports.DocumentStore, m *metrics.Collector, logger zerolog.Logger) *Editor {
	return &Editor{
		store:   store,
		metrics: m,
		logger:  logger.With().Str("service", "editor").Logger(),
	}
}

// AddMessageType creates a message type, or updates only the metadata of
// an existing one.
func (e *Editor) AddMessageType(ctx context.Context, ns schema.Namespace, name, description, responseType, transIDPosition string) error {
	name = strings.TrimSpace(name)

	doc, err := loadOrEmpty(ctx, e.store, ns)
	if err != nil {
		return e.tally(levelMT, "add", err)
	}

	if mt, ok := doc.Get(name); ok {
		mt.Description = description
		mt.ResponseType = responseType
		mt.TransIDPosition = transIDPosition
	} else {
		doc.Set(name, schema.NewMessageType(description, responseType, transIDPosition))
	}

	if err := e.persist(ctx, ns, doc); err != nil {
		return e.tally(levelMT, "add", err)
	}
	e.logger.Debug().Str("namespace", ns.String()).Str("type", name).Msg("message type saved")
	return e.tally(levelMT, "add", nil)
}

// AddVersion creates a version under a message type, lazily creating the
// type. Adding a version that already exists is a no-op, not a conflict.
func (e *Editor) AddVersion(ctx context.Context, ns schema.Namespace, typeName, version string) error {
	typeName = strings.TrimSpace(typeName)
	version = strings.TrimSpace(version)

	doc, err := loadOrEmpty(ctx, e.store, ns)
	if err != nil {
		return e.tally(levelVer, "add", err)
	}

	mt, ok := doc.Get(typeName)
	if !ok {
		mt = schema.NewMessageType("", "", "")
		doc.Set(typeName, mt)
	}
	if mt.Versions.Has(version) {
		return e.tally(levelVer, "add", nil)
	}
	mt.Versions.Set(version, schema.NewVersion())

	if err := e.persist(ctx, ns, doc); err != nil {
		return e.tally(levelVer, "add", err)
	}
	e.logger.Debug().Str("namespace", ns.String()).Str("type", typeName).Str("version", version).Msg("version added")
	return e.tally(levelVer, "add", nil)
}

// AddField creates a field under a type/version, lazily creating both
// ancestors. An existing field is replaced wholesale: new offsets, empty
// escape table.
func (e *Editor) AddField(ctx context.Context, ns schema.Namespace, typeName, version, fieldName string, start, length int) error {
	typeName = strings.TrimSpace(typeName)
	version = strings.TrimSpace(version)
	fieldName = strings.TrimSpace(fieldName)

	doc, err := loadOrEmpty(ctx, e.store, ns)
	if err != nil {
		return e.tally(levelField, "add", err)
	}

	mt, ok := doc.Get(typeName)
	if !ok {
		mt = schema.NewMessageType("", "", "")
		doc.Set(typeName, mt)
	}
	ver, ok := mt.Versions.Get(version)
	if !ok {
		ver = schema.NewVersion()
		mt.Versions.Set(version, ver)
	}
	ver.Fields.Set(fieldName, schema.NewField(start, length))

	if err := e.persist(ctx, ns, doc); err != nil {
		return e.tally(levelField, "add", err)
	}
	e.logger.Debug().Str("namespace", ns.String()).Str("type", typeName).Str("version", version).Str("field", fieldName).Msg("field saved")
	return e.tally(levelField, "add", nil)
}

// AddEscape adds or overwrites one escape mapping. The field must
// already exist.
func (e *Editor) AddEscape(ctx context.Context, ns schema.Namespace, typeName, version, fieldName, key, value string) error {
	doc, err := e.store.Load(ctx, ns)
	if err != nil {
		return e.tally(levelEsc, "add", err)
	}

	field, err := doc.Field(typeName, version, fieldName)
	if err != nil {
		return e.tally(levelEsc, "add", err)
	}
	field.Escapes.Set(key, value)

	if err := e.persist(ctx, ns, doc); err != nil {
		return e.tally(levelEsc, "add", err)
	}
	return e.tally(levelEsc, "add", nil)
}

// RenameMessageType moves a message type to a new name. The destination
// must be free.
func (e *Editor) RenameMessageType(ctx context.Context, ns schema.Namespace, oldName, newName string) error {
	newName = strings.TrimSpace(newName)

	doc, err := e.store.Load(ctx, ns)
	if err != nil {
		return e.tally(levelMT, "rename", err)
	}

	if !doc.Has(oldName) {
		return e.tally(levelMT, "rename",
			fmt.Errorf("message type %q: %w", oldName, schema.ErrNotFound))
	}
	if newName == oldName {
		return e.tally(levelMT, "rename", nil)
	}
	if doc.Has(newName) {
		return e.tally(levelMT, "rename",
			fmt.Errorf("message type %q: %w", newName, schema.ErrConflict))
	}
	doc.Rename(oldName, newName)

	if err := e.persist(ctx, ns, doc); err != nil {
		return e.tally(levelMT, "rename", err)
	}
	e.logger.Debug().Str("namespace", ns.String()).Str("from", oldName).Str("to", newName).Msg("message type renamed")
	return e.tally(levelMT, "rename", nil)
}

// RenameVersion moves a version to a new name within its message type.
func (e *Editor) RenameVersion(ctx context.Context, ns schema.Namespace, typeName, oldName, newName string) error {
	newName = strings.TrimSpace(newName)

	doc, err := e.store.Load(ctx, ns)
	if err != nil {
		return e.tally(levelVer, "rename", err)
	}

	mt, err := doc.MessageType(typeName)
	if err != nil {
		return e.tally(levelVer, "rename", err)
	}
	if !mt.Versions.Has(oldName) {
		return e.tally(levelVer, "rename",
			fmt.Errorf("version %q: %w", oldName, schema.ErrNotFound))
	}
	if newName == oldName {
		return e.tally(levelVer, "rename", nil)
	}
	if mt.Versions.Has(newName) {
		return e.tally(levelVer, "rename",
			fmt.Errorf("version %q: %w", newName, schema.ErrConflict))
	}
	mt.Versions.Rename(oldName, newName)

	if err := e.persist(ctx, ns, doc); err != nil {
		return e.tally(levelVer, "rename", err)
	}
	return e.tally(levelVer, "rename", nil)
}

// RenameField moves a field to a new name within its version.
func (e *Editor) RenameField(ctx context.Context, ns schema.Namespace, typeName, version, oldName, newName string) error {
	newName = strings.TrimSpace(newName)

	doc, err := e.store.Load(ctx, ns)
	if err != nil {
		return e.tally(levelField, "rename", err)
	}

	ver, err := doc.Version(typeName, version)
	if err != nil {
		return e.tally(levelField, "rename", err)
	}
	if !ver.Fields.Has(oldName) {
		return e.tally(levelField, "rename",
			fmt.Errorf("field %q: %w", oldName, schema.ErrNotFound))
	}
	if newName == oldName {
		return e.tally(levelField, "rename", nil)
	}
	if ver.Fields.Has(newName) {
		return e.tally(levelField, "rename",
			fmt.Errorf("field %q: %w", newName, schema.ErrConflict))
	}
	ver.Fields.Rename(oldName, newName)

	if err := e.persist(ctx, ns, doc); err != nil {
		return e.tally(levelField, "rename", err)
	}
	return e.tally(levelField, "rename", nil)
}

// Delete removes the node the ref addresses, with all its descendants.
// Siblings are untouched.
func (e *Editor) Delete(ctx context.Context, ns schema.Namespace, ref schema.NodeRef) error {
	if err := ref.Validate(); err != nil {
		return e.tally(string(ref.Level), "delete", err)
	}
	doc, err := e.store.Load(ctx, ns)
	if err != nil {
		return e.tally(string(ref.Level), "delete", err)
	}

	if err := deleteRef(doc, ref); err != nil {
		return e.tally(string(ref.Level), "delete", err)
	}

	if err := e.persist(ctx, ns, doc); err != nil {
		return e.tally(string(ref.Level), "delete", err)
	}
	e.logger.Debug().Str("namespace", ns.String()).Str("node", ref.String()).Msg("node deleted")
	return e.tally(string(ref.Level), "delete", nil)
}

// BatchFailure describes one item of a batch delete that did not apply.
type BatchFailure struct {
	Ref    schema.NodeRef
	Reason string
}

// BatchResult summarizes a batch delete.
type BatchResult struct {
	Deleted  int
	Failures []BatchFailure
}

// DeleteBatch removes many nodes best-effort in one persisted save.
// Per-item misses are reported, not fatal; the error covers only load
// and save problems.
func (e *Editor) DeleteBatch(ctx context.Context, ns schema.Namespace, refs []schema.NodeRef) (BatchResult, error) {
	var res BatchResult

	doc, err := e.store.Load(ctx, ns)
	if err != nil {
		return res, err
	}

	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			res.Failures = append(res.Failures, BatchFailure{Ref: ref, Reason: err.Error()})
			continue
		}
		if err := deleteRef(doc, ref); err != nil {
			res.Failures = append(res.Failures, BatchFailure{Ref: ref, Reason: err.Error()})
			continue
		}
		res.Deleted++
	}

	if res.Deleted == 0 {
		return res, nil
	}
	if err := e.persist(ctx, ns, doc); err != nil {
		return res, err
	}
	e.logger.Debug().Str("namespace", ns.String()).Int("deleted", res.Deleted).Int("failed", len(res.Failures)).Msg("batch delete")
	return res, nil
}

// Clear removes the namespace's document entirely.
func (e *Editor) Clear(ctx context.Context, ns schema.Namespace) error {
	if err := e.store.Delete(ctx, ns); err != nil {
		return err
	}
	e.logger.Info().Str("namespace", ns.String()).Msg("document cleared")
	return nil
}

// Save validates and stores a full replacement document.
func (e *Editor) Save(ctx context.Context, ns schema.Namespace, doc *schema.Document) error {
	if err := e.persist(ctx, ns, doc); err != nil {
		return e.tally("document", "save", err)
	}
	return e.tally("document", "save", nil)
}

// Update applies dotted-path patches to an existing document. The
// document must exist; all patches apply, then the result is validated
// and saved as one write.
func (e *Editor) Update(ctx context.Context, ns schema.Namespace, patches []schema.Patch) error {
	doc, err := e.store.Load(ctx, ns)
	if err != nil {
		return e.tally("document", "update", err)
	}

	for _, p := range patches {
		if err := doc.Apply(p); err != nil {
			return e.tally("document", "update", err)
		}
	}

	if err := e.persist(ctx, ns, doc); err != nil {
		return e.tally("document", "update", err)
	}
	e.logger.Debug().Str("namespace", ns.String()).Int("patches", len(patches)).Msg("document patched")
	return e.tally("document", "update", nil)
}

// Merge folds missing nodes of incoming into the namespace's document
// without touching anything that already exists.
func (e *Editor) Merge(ctx context.Context, ns schema.Namespace, incoming *schema.Document) (schema.MergeStats, error) {
	doc, err := loadOrEmpty(ctx, e.store, ns)
	if err != nil {
		return schema.MergeStats{}, err
	}

	stats := doc.Merge(incoming)
	if stats.Total() == 0 {
		return stats, nil
	}

	if err := e.persist(ctx, ns, doc); err != nil {
		return stats, e.tally("document", "merge", err)
	}
	e.logger.Info().
		Str("namespace", ns.String()).
		Int("types", stats.MessageTypes).
		Int("versions", stats.Versions).
		Int("fields", stats.Fields).
		Int("escapes", stats.Escapes).
		Msg("documents merged")
	return stats, e.tally("document", "merge", nil)
}

// persist validates the document and writes it in one piece.
func (e *Editor) persist(ctx context.Context, ns schema.Namespace, doc *schema.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return e.store.Save(ctx, ns, doc)
}

// Metric label values for tally.
const (
	levelMT    = string(schema.LevelMessageType)
	levelVer   = string(schema.LevelVersion)
	levelField = string(schema.LevelField)
	levelEsc   = string(schema.LevelEscape)
)

// tally records the mutation outcome and passes the error through.
func (e *Editor) tally(level, op string, err error) error {
	if e.metrics != nil {
		if err != nil {
			e.metrics.MutationFailures.WithLabelValues(level, op).Inc()
		} else {
			e.metrics.Mutations.WithLabelValues(level, op).Inc()
		}
	}
	return err
}

// loadOrEmpty reads the namespace's document, treating an absent one as
// a fresh empty document.
func loadOrEmpty(ctx context.Context, store ports.DocumentStore, ns schema.Namespace) (*schema.Document, error) {
	doc, err := store.Load(ctx, ns)
	if errors.Is(err, schema.ErrNotFound) {
		return schema.NewDocument(), nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// deleteRef removes the node a ref addresses from the document.
func deleteRef(doc *schema.Document, ref schema.NodeRef) error {
	switch ref.Level {
	case schema.LevelMessageType:
		if !doc.Has(ref.MessageType) {
			return fmt.Errorf("message type %q: %w", ref.MessageType, schema.ErrNotFound)
		}
		doc.Delete(ref.MessageType)
		return nil

	case schema.LevelVersion:
		mt, err := doc.MessageType(ref.MessageType)
		if err != nil {
			return err
		}
		if !mt.Versions.Has(ref.Version) {
			return fmt.Errorf("version %q: %w", ref.Version, schema.ErrNotFound)
		}
		mt.Versions.Delete(ref.Version)
		return nil

	case schema.LevelField:
		ver, err := doc.Version(ref.MessageType, ref.Version)
		if err != nil {
			return err
		}
		if !ver.Fields.Has(ref.Field) {
			return fmt.Errorf("field %q: %w", ref.Field, schema.ErrNotFound)
		}
		ver.Fields.Delete(ref.Field)
		return nil

	case schema.LevelEscape:
		field, err := doc.Field(ref.MessageType, ref.Version, ref.Field)
		if err != nil {
			return err
		}
		if !field.Escapes.Has(ref.Escape) {
			return fmt.Errorf("escape %q: %w", ref.Escape, schema.ErrNotFound)
		}
		field.Escapes.Delete(ref.Escape)
		return nil

	default:
		return fmt.Errorf("level %q: %w", ref.Level, schema.ErrMalformed)
	}
}
