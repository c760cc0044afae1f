package schema

import "errors"

// Validate walks the whole document and collects every invariant
// violation. A nil result means the document is safe to persist.
func (d *Document) Validate() error {
	var errs []error

	add := func(level Level, path, reason string) {
		errs = append(errs, &ValidationError{Level: level, Path: path, Reason: reason})
	}

	d.Range(func(typeName string, mt *MessageType) bool {
		typePath := "mt:" + typeName
		if typeName == "" {
			add(LevelMessageType, typePath, "name is empty")
		}
		if mt == nil {
			add(LevelMessageType, typePath, "definition is missing")
			return true
		}
		if mt.TransIDPosition != "" {
			if _, ok := ParseSpan(mt.TransIDPosition); !ok {
				add(LevelMessageType, typePath, "trans id position must be \"start,length\" with start >= 0 and length > 0")
			}
		}
		if mt.Versions == nil {
			return true
		}
		mt.Versions.Range(func(versionName string, v *Version) bool {
			versionPath := typePath + "/ver:" + versionName
			if versionName == "" {
				add(LevelVersion, versionPath, "name is empty")
			}
			if v == nil {
				add(LevelVersion, versionPath, "definition is missing")
				return true
			}
			if v.Fields == nil {
				return true
			}
			v.Fields.Range(func(fieldName string, f *Field) bool {
				fieldPath := versionPath + "/field:" + fieldName
				if fieldName == "" {
					add(LevelField, fieldPath, "name is empty")
				}
				if f == nil {
					add(LevelField, fieldPath, "definition is missing")
					return true
				}
				if f.Start < 0 {
					add(LevelField, fieldPath, "start must be >= 0")
				}
				if f.Length != nil && *f.Length < 0 && *f.Length != OpenEnded {
					add(LevelField, fieldPath, "length must be >= 0, or -1 for open-ended")
				}
				if f.Escapes != nil {
					f.Escapes.Range(func(raw, _ string) bool {
						if raw == "" {
							add(LevelEscape, fieldPath+"/escape:", "escape key is empty")
						}
						return true
					})
				}
				return true
			})
			return true
		})
		return true
	})

	return errors.Join(errs...)
}
