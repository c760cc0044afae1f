// Package render extracts and escapes message fields against a resolved
// (message type, version) layout. Rendering is pure: it never mutates the
// schema and never fails on data-quality conditions, which are reported
// per field through a Status instead.
package render

import (
	"fmt"

	"github.com/parsedesk/parsedesk/domain/schema"
)

// Status reports how an extraction went.
type Status string

const (
	// StatusOK means the field was fully present in the message.
	StatusOK Status = "ok"

	// StatusTruncated means the message ended inside the field; the
	// extraction carries the bytes that were there.
	StatusTruncated Status = "truncated"

	// StatusOutOfRange means the field starts at or beyond the end of
	// the message; the extraction is empty.
	StatusOutOfRange Status = "outOfRange"
)

// FieldLayout is one field of a resolved layout, in schema order.
type FieldLayout struct {
	Name    string
	Start   int
	Length  *int // nil when open-ended
	Escapes *schema.Escapes
}

// RenderedField is the outcome of extracting one field.
type RenderedField struct {
	Name    string
	Raw     string // exact extracted bytes, never trimmed
	Display string // escape-table hit, or Raw verbatim
	Status  Status
}

// Resolve looks up the field layouts for a (type, version) pair. The
// lookup is strict: it never creates nodes, and a missing type or version
// is an error wrapping schema.ErrNotFound.
func Resolve(doc *schema.Document, typeName, versionName string) ([]FieldLayout, error) {
	if doc == nil {
		return nil, fmt.Errorf("message type %q: %w", typeName, schema.ErrNotFound)
	}
	mt, ok := doc.Get(typeName)
	if !ok || mt == nil {
		return nil, fmt.Errorf("message type %q: %w", typeName, schema.ErrNotFound)
	}
	if mt.Versions == nil {
		return nil, fmt.Errorf("message type %q version %q: %w", typeName, versionName, schema.ErrNotFound)
	}
	v, ok := mt.Versions.Get(versionName)
	if !ok || v == nil {
		return nil, fmt.Errorf("message type %q version %q: %w", typeName, versionName, schema.ErrNotFound)
	}

	var layouts []FieldLayout
	if v.Fields != nil {
		v.Fields.Range(func(name string, f *schema.Field) bool {
			if f == nil {
				return true
			}
			layout := FieldLayout{Name: name, Start: f.Start, Escapes: f.Escapes}
			if !f.OpenEnded() {
				l := *f.Length
				layout.Length = &l
			}
			layouts = append(layouts, layout)
			return true
		})
	}
	return layouts, nil
}

// RenderField extracts one field from the raw message. Extraction works
// on bytes: raw[start : start+length], clamped at the end of the message.
// An open-ended field runs from start to the end.
func RenderField(layout FieldLayout, raw string) RenderedField {
	out := RenderedField{Name: layout.Name, Status: StatusOK}

	if layout.Start < 0 || layout.Start >= len(raw) {
		out.Status = StatusOutOfRange
		out.Display = ""
		return out
	}

	end := len(raw)
	if layout.Length != nil {
		end = layout.Start + *layout.Length
		if end > len(raw) {
			end = len(raw)
			out.Status = StatusTruncated
		}
	}

	out.Raw = raw[layout.Start:end]
	out.Display = out.Raw
	if layout.Escapes != nil {
		if display, ok := layout.Escapes.Get(out.Raw); ok {
			out.Display = display
		}
	}
	return out
}

// RenderMessage extracts every field of the layout. One bad field never
// aborts the rest of the message.
func RenderMessage(layouts []FieldLayout, raw string) []RenderedField {
	out := make([]RenderedField, 0, len(layouts))
	for _, layout := range layouts {
		out = append(out, RenderField(layout, raw))
	}
	return out
}
