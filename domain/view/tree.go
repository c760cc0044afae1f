// Package view builds read-only projections of schema documents: the
// navigation tree, summary statistics and search. Projections are pure
// and always emit nodes in stored insertion order.
package view

import "github.com/parsedesk/parsedesk/domain/schema"

// Node is one entry of the navigation tree.
type Node struct {
	Kind        schema.Level
	Name        string
	Path        string // canonical path, e.g. "mt:LoginReq/ver:01/field:UserId"
	Parent      string // parent path, empty for roots
	Description string // message types only
	Start       int    // fields only
	Length      *int   // fields only, nil when open-ended
	EscapeCount int    // fields only
	Value       string // escapes only: the display value
	Children    []*Node
}

// BuildTree projects a document into its navigation tree. Message types,
// versions, fields and escapes appear in the order they are stored.
func BuildTree(doc *schema.Document) []*Node {
	if doc == nil {
		return nil
	}

	var roots []*Node
	doc.Range(func(typeName string, mt *schema.MessageType) bool {
		typePath := "mt:" + typeName
		typeNode := &Node{
			Kind: schema.LevelMessageType,
			Name: typeName,
			Path: typePath,
		}
		if mt != nil {
			typeNode.Description = mt.Description
		}
		roots = append(roots, typeNode)
		if mt == nil || mt.Versions == nil {
			return true
		}

		mt.Versions.Range(func(versionName string, v *schema.Version) bool {
			versionPath := typePath + "/ver:" + versionName
			versionNode := &Node{
				Kind:   schema.LevelVersion,
				Name:   versionName,
				Path:   versionPath,
				Parent: typePath,
			}
			typeNode.Children = append(typeNode.Children, versionNode)
			if v == nil || v.Fields == nil {
				return true
			}

			v.Fields.Range(func(fieldName string, f *schema.Field) bool {
				fieldPath := versionPath + "/field:" + fieldName
				fieldNode := &Node{
					Kind:   schema.LevelField,
					Name:   fieldName,
					Path:   fieldPath,
					Parent: versionPath,
				}
				versionNode.Children = append(versionNode.Children, fieldNode)
				if f == nil {
					return true
				}
				fieldNode.Start = f.Start
				if !f.OpenEnded() {
					l := *f.Length
					fieldNode.Length = &l
				}
				if f.Escapes == nil {
					return true
				}
				fieldNode.EscapeCount = f.Escapes.Len()
				f.Escapes.Range(func(raw, display string) bool {
					fieldNode.Children = append(fieldNode.Children, &Node{
						Kind:   schema.LevelEscape,
						Name:   raw,
						Path:   fieldPath + "/escape:" + raw,
						Parent: fieldPath,
						Value:  display,
					})
					return true
				})
				return true
			})
			return true
		})
		return true
	})
	return roots
}
