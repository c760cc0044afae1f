package view

import "github.com/parsedesk/parsedesk/domain/schema"

// Stats summarizes the size of a document.
type Stats struct {
	MessageTypes int
	Versions     int
	Fields       int
	Escapes      int

	// OpenEnded counts fields with no explicit length.
	OpenEnded int
}

// BuildStats counts the nodes of a document.
func BuildStats(doc *schema.Document) Stats {
	var s Stats
	if doc == nil {
		return s
	}
	doc.Range(func(_ string, mt *schema.MessageType) bool {
		s.MessageTypes++
		if mt == nil || mt.Versions == nil {
			return true
		}
		mt.Versions.Range(func(_ string, v *schema.Version) bool {
			s.Versions++
			if v == nil || v.Fields == nil {
				return true
			}
			v.Fields.Range(func(_ string, f *schema.Field) bool {
				s.Fields++
				if f == nil {
					return true
				}
				if f.OpenEnded() {
					s.OpenEnded++
				}
				if f.Escapes != nil {
					s.Escapes += f.Escapes.Len()
				}
				return true
			})
			return true
		})
		return true
	})
	return s
}
