package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/domain/schema"
)

// Clipboard holds at most one copied schema node as a deep snapshot.
// It is process-scoped and not bound to a namespace, so a node copied
// from one document can be pasted into another.
type Clipboard struct {
	editor *Editor
	logger zerolog.Logger

	mu   sync.Mutex
	item *clipItem
}

type clipItem struct {
	kind  schema.Level
	name  string // source leaf name, the default paste name
	mt    *schema.MessageType
	ver   *schema.Version
	field *schema.Field
	value string // escape display value
}

// NewClipboard creates a clipboard that pastes through the given editor.
func NewClipboard(editor *Editor, logger zerolog.Logger) *Clipboard {
	return &Clipboard{
		editor: editor,
		logger: logger.With().Str("service", "clipboard").Logger(),
	}
}

// Copy snapshots the node the ref addresses, replacing any previous
// clipboard content.
func (c *Clipboard) Copy(ctx context.Context, ns schema.Namespace, ref schema.NodeRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	doc, err := c.editor.store.Load(ctx, ns)
	if err != nil {
		return err
	}

	item := &clipItem{kind: ref.Level}
	switch ref.Level {
	case schema.LevelMessageType:
		mt, err := doc.MessageType(ref.MessageType)
		if err != nil {
			return err
		}
		item.name, item.mt = ref.MessageType, mt.Clone()

	case schema.LevelVersion:
		ver, err := doc.Version(ref.MessageType, ref.Version)
		if err != nil {
			return err
		}
		item.name, item.ver = ref.Version, ver.Clone()

	case schema.LevelField:
		field, err := doc.Field(ref.MessageType, ref.Version, ref.Field)
		if err != nil {
			return err
		}
		item.name, item.field = ref.Field, field.Clone()

	case schema.LevelEscape:
		field, err := doc.Field(ref.MessageType, ref.Version, ref.Field)
		if err != nil {
			return err
		}
		value, ok := field.Escapes.Get(ref.Escape)
		if !ok {
			return fmt.Errorf("escape %q: %w", ref.Escape, schema.ErrNotFound)
		}
		item.name, item.value = ref.Escape, value
	}

	c.mu.Lock()
	c.item = item
	c.mu.Unlock()

	c.logger.Debug().Str("namespace", ns.String()).Str("node", ref.String()).Msg("node copied")
	return nil
}

// Current reports the kind and source name of the held node.
func (c *Clipboard) Current() (schema.Level, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.item == nil {
		return "", "", false
	}
	return c.item.kind, c.item.name, true
}

// Clear drops the clipboard content.
func (c *Clipboard) Clear() {
	c.mu.Lock()
	c.item = nil
	c.mu.Unlock()
}

// Paste inserts a copy of the held node at the slot the ref addresses
// and persists the document once. The ref's level must match the copied
// kind; its leaf name is the proposed name and defaults to the source
// name when empty. A taken name gets a numeric suffix. Returns the name
// actually used.
func (c *Clipboard) Paste(ctx context.Context, ns schema.Namespace, ref schema.NodeRef) (string, error) {
	c.mu.Lock()
	item := c.item
	c.mu.Unlock()

	if item == nil {
		return "", fmt.Errorf("clipboard: %w", schema.ErrNotFound)
	}
	if ref.Level != item.kind {
		return "", fmt.Errorf("clipboard holds a %s, cannot paste as %s", item.kind, ref.Level)
	}

	var name string
	var err error
	switch item.kind {
	case schema.LevelMessageType:
		name, err = c.pasteMessageType(ctx, ns, ref, item)
	case schema.LevelVersion:
		name, err = c.pasteVersion(ctx, ns, ref, item)
	case schema.LevelField:
		name, err = c.pasteField(ctx, ns, ref, item)
	case schema.LevelEscape:
		name, err = c.pasteEscape(ctx, ns, ref, item)
	}
	if err != nil {
		return "", c.editor.tally(string(item.kind), "paste", err)
	}

	c.logger.Debug().Str("namespace", ns.String()).Str("name", name).Str("kind", string(item.kind)).Msg("node pasted")
	return name, c.editor.tally(string(item.kind), "paste", nil)
}

func (c *Clipboard) pasteMessageType(ctx context.Context, ns schema.Namespace, ref schema.NodeRef, item *clipItem) (string, error) {
	doc, err := loadOrEmpty(ctx, c.editor.store, ns)
	if err != nil {
		return "", err
	}
	name := SuggestName(doc.Has, pasteBase(ref.MessageType, item.name))
	doc.Set(name, item.mt.Clone())
	return name, c.editor.persist(ctx, ns, doc)
}

func (c *Clipboard) pasteVersion(ctx context.Context, ns schema.Namespace, ref schema.NodeRef, item *clipItem) (string, error) {
	doc, err := c.editor.store.Load(ctx, ns)
	if err != nil {
		return "", err
	}
	mt, err := doc.MessageType(ref.MessageType)
	if err != nil {
		return "", err
	}
	name := SuggestName(mt.Versions.Has, pasteBase(ref.Version, item.name))
	mt.Versions.Set(name, item.ver.Clone())
	return name, c.editor.persist(ctx, ns, doc)
}

func (c *Clipboard) pasteField(ctx context.Context, ns schema.Namespace, ref schema.NodeRef, item *clipItem) (string, error) {
	doc, err := c.editor.store.Load(ctx, ns)
	if err != nil {
		return "", err
	}
	ver, err := doc.Version(ref.MessageType, ref.Version)
	if err != nil {
		return "", err
	}
	name := SuggestName(ver.Fields.Has, pasteBase(ref.Field, item.name))
	ver.Fields.Set(name, item.field.Clone())
	return name, c.editor.persist(ctx, ns, doc)
}

func (c *Clipboard) pasteEscape(ctx context.Context, ns schema.Namespace, ref schema.NodeRef, item *clipItem) (string, error) {
	doc, err := c.editor.store.Load(ctx, ns)
	if err != nil {
		return "", err
	}
	field, err := doc.Field(ref.MessageType, ref.Version, ref.Field)
	if err != nil {
		return "", err
	}
	name := SuggestName(field.Escapes.Has, pasteBase(ref.Escape, item.name))
	field.Escapes.Set(name, item.value)
	return name, c.editor.persist(ctx, ns, doc)
}

func pasteBase(proposed, fallback string) string {
	if s := strings.TrimSpace(proposed); s != "" {
		return s
	}
	return fallback
}

// SuggestName returns base when it is free, otherwise the first free
// base_2, base_3, ... variant.
func SuggestName(taken func(string) bool, base string) string {
	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
