package schema

// MergeStats counts what a merge added.
type MergeStats struct {
	MessageTypes int
	Versions     int
	Fields       int
	Escapes      int
}

// Total returns the number of nodes the merge added.
func (s MergeStats) Total() int {
	return s.MessageTypes + s.Versions + s.Fields + s.Escapes
}

// Merge folds incoming into the document without overwriting anything
// already present. Missing message types, versions, fields and escape
// keys are added (deep-copied); metadata attributes are filled only when
// the existing value is empty. Existing values always win.
func (d *Document) Merge(incoming *Document) MergeStats {
	var stats MergeStats
	if incoming == nil {
		return stats
	}

	incoming.Range(func(typeName string, inType *MessageType) bool {
		if inType == nil {
			return true
		}
		curType, ok := d.Get(typeName)
		if !ok || curType == nil {
			d.Set(typeName, inType.Clone())
			stats.MessageTypes++
			return true
		}

		if curType.Description == "" && inType.Description != "" {
			curType.Description = inType.Description
		}
		if curType.ResponseType == "" && inType.ResponseType != "" {
			curType.ResponseType = inType.ResponseType
		}
		if curType.TransIDPosition == "" && inType.TransIDPosition != "" {
			curType.TransIDPosition = inType.TransIDPosition
		}

		if inType.Versions == nil {
			return true
		}
		if curType.Versions == nil {
			curType.Versions = &Versions{}
		}
		inType.Versions.Range(func(versionName string, inVer *Version) bool {
			if inVer == nil {
				return true
			}
			curVer, ok := curType.Versions.Get(versionName)
			if !ok || curVer == nil {
				curType.Versions.Set(versionName, inVer.Clone())
				stats.Versions++
				return true
			}

			if inVer.Fields == nil {
				return true
			}
			if curVer.Fields == nil {
				curVer.Fields = &Fields{}
			}
			inVer.Fields.Range(func(fieldName string, inField *Field) bool {
				if inField == nil {
					return true
				}
				curField, ok := curVer.Fields.Get(fieldName)
				if !ok || curField == nil {
					curVer.Fields.Set(fieldName, inField.Clone())
					stats.Fields++
					return true
				}

				if inField.Escapes == nil {
					return true
				}
				if curField.Escapes == nil {
					curField.Escapes = &Escapes{}
				}
				inField.Escapes.Range(func(raw, display string) bool {
					if !curField.Escapes.Has(raw) {
						curField.Escapes.Set(raw, display)
						stats.Escapes++
					}
					return true
				})
				return true
			})
			return true
		})
		return true
	})

	return stats
}
