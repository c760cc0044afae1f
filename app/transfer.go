package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/parsedesk/parsedesk/adapters/metrics"
	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/ports"
)

// Format selects a transfer encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user-supplied format name. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("format %q: %w", s, schema.ErrMalformed)
	}
}

// FormatForFile picks the format from a file name's extension.
func FormatForFile(name string) (Format, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON, nil
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("file %q: unsupported format: %w", name, schema.ErrMalformed)
	}
}

// Mode selects how an import lands on an existing document.
type Mode string

const (
	ModeOverwrite Mode = "overwrite"
	ModeMerge     Mode = "merge"
)

// ParseMode maps a user-supplied import mode. Empty means overwrite.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return ModeOverwrite, nil
	case "merge":
		return ModeMerge, nil
	default:
		return "", fmt.Errorf("import mode %q: %w", s, schema.ErrMalformed)
	}
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Transfer moves whole documents in and out of the engine. Exports are
// strict reads; imports validate before touching the store.
type Transfer struct {
	store   ports.DocumentStore
	editor  *Editor
	metrics *metrics.Collector
	logger  zerolog.Logger
}

// NewTransfer creates the transfer service. The metrics collector may
// be nil.
func NewTransfer(store ports.DocumentStore, editor *Editor, m *metrics.Collector, logger zerolog.Logger) *Transfer {
	return &Transfer{
		store:   store,
		editor:  editor,
		metrics: m,
		logger:  logger.With().Str("service", "transfer").Logger(),
	}
}

// Export encodes a namespace's document. The namespace must exist.
// JSON output is indented; both encodings preserve declaration order.
func (t *Transfer) Export(ctx context.Context, ns schema.Namespace, format Format) ([]byte, error) {
	doc, err := t.store.Load(ctx, ns)
	if err != nil {
		return nil, err
	}

	var out []byte
	switch format {
	case FormatJSON:
		out, err = json.MarshalIndent(doc, "", "  ")
		if err == nil {
			out = append(out, '\n')
		}
	case FormatYAML:
		out, err = yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("format %q: %w", format, schema.ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ns, err)
	}

	if t.metrics != nil {
		t.metrics.Exports.WithLabelValues(string(format)).Inc()
	}
	t.logger.Info().Str("namespace", ns.String()).Str("format", string(format)).Int("bytes", len(out)).Msg("document exported")
	return out, nil
}

// Import decodes the payload and lands it on the namespace: overwrite
// replaces the stored document, merge fills its gaps. The returned
// stats count what a merge added; an overwrite reports zero.
func (t *Transfer) Import(ctx context.Context, ns schema.Namespace, data []byte, format Format, mode Mode) (schema.MergeStats, error) {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return schema.MergeStats{}, err
	}
	if err := doc.Validate(); err != nil {
		return schema.MergeStats{}, err
	}

	var stats schema.MergeStats
	switch mode {
	case ModeOverwrite:
		err = t.editor.Save(ctx, ns, doc)
	case ModeMerge:
		stats, err = t.editor.Merge(ctx, ns, doc)
	default:
		return schema.MergeStats{}, fmt.Errorf("import mode %q: %w", mode, schema.ErrMalformed)
	}
	if err != nil {
		return schema.MergeStats{}, err
	}

	if t.metrics != nil {
		t.metrics.Imports.WithLabelValues(string(format), string(mode)).Inc()
	}
	t.logger.Info().
		Str("namespace", ns.String()).
		Str("format", string(format)).
		Str("mode", string(mode)).
		Msg("document imported")
	return stats, nil
}

// decodeDocument parses raw bytes into a normalized document. A leading
// UTF-8 byte order mark is tolerated.
func decodeDocument(data []byte, format Format) (*schema.Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty document: %w", schema.ErrMalformed)
	}

	doc := schema.NewDocument()
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("decode json: %v: %w", err, schema.ErrMalformed)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %v: %w", err, schema.ErrMalformed)
		}
	default:
		return nil, fmt.Errorf("format %q: %w", format, schema.ErrMalformed)
	}
	return doc, nil
}
