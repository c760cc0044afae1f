package view

import (
	"strings"

	"github.com/parsedesk/parsedesk/domain/schema"
)

// Match is one search hit.
type Match struct {
	Ref       schema.NodeRef
	Path      string
	MatchedOn string // "name", "description", "escape_key" or "escape_value"
	Snippet   string // the text that matched
}

// Search scans a document for a case-insensitive substring. Message types
// match on name or description, versions and fields on name, escapes on
// key or display value. A non-empty level restricts the hits to that
// tier; an empty query yields no hits.
func Search(doc *schema.Document, query string, level schema.Level) []Match {
	if doc == nil || query == "" {
		return nil
	}
	q := strings.ToLower(query)
	wants := func(l schema.Level) bool { return level == "" || level == l }
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }

	var matches []Match
	doc.Range(func(typeName string, mt *schema.MessageType) bool {
		typeRef := schema.NodeRef{Level: schema.LevelMessageType, MessageType: typeName}
		if wants(schema.LevelMessageType) {
			if contains(typeName) {
				matches = append(matches, Match{Ref: typeRef, Path: typeRef.String(), MatchedOn: "name", Snippet: typeName})
			} else if mt != nil && contains(mt.Description) {
				matches = append(matches, Match{Ref: typeRef, Path: typeRef.String(), MatchedOn: "description", Snippet: mt.Description})
			}
		}
		if mt == nil || mt.Versions == nil {
			return true
		}
		mt.Versions.Range(func(versionName string, v *schema.Version) bool {
			verRef := schema.NodeRef{Level: schema.LevelVersion, MessageType: typeName, Version: versionName}
			if wants(schema.LevelVersion) && contains(versionName) {
				matches = append(matches, Match{Ref: verRef, Path: verRef.String(), MatchedOn: "name", Snippet: versionName})
			}
			if v == nil || v.Fields == nil {
				return true
			}
			v.Fields.Range(func(fieldName string, f *schema.Field) bool {
				fieldRef := schema.NodeRef{Level: schema.LevelField, MessageType: typeName, Version: versionName, Field: fieldName}
				if wants(schema.LevelField) && contains(fieldName) {
					matches = append(matches, Match{Ref: fieldRef, Path: fieldRef.String(), MatchedOn: "name", Snippet: fieldName})
				}
				if f == nil || f.Escapes == nil || !wants(schema.LevelEscape) {
					return true
				}
				f.Escapes.Range(func(raw, display string) bool {
					escRef := schema.NodeRef{Level: schema.LevelEscape, MessageType: typeName, Version: versionName, Field: fieldName, Escape: raw}
					if contains(raw) {
						matches = append(matches, Match{Ref: escRef, Path: escRef.String(), MatchedOn: "escape_key", Snippet: raw})
					} else if contains(display) {
						matches = append(matches, Match{Ref: escRef, Path: escRef.String(), MatchedOn: "escape_value", Snippet: display})
					}
					return true
				})
				return true
			})
			return true
		})
		return true
	})
	return matches
}
