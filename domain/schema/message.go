package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// OpenEnded is the sentinel length meaning "from Start to the end of the
// message". Documents may carry it as -1 or as null; in memory it is
// always a nil Length.
const OpenEnded = -1

// Document is the root of one namespace's schema: message types by name,
// in insertion order.
type Document struct {
	OrderedMap[*MessageType]
}

// MessageType describes one message layout family and its metadata.
type MessageType struct {
	Description     string    `json:"Description" yaml:"Description"`
	ResponseType    string    `json:"ResponseType" yaml:"ResponseType"`
	TransIDPosition string    `json:"TransIdPosition" yaml:"TransIdPosition"`
	Versions        *Versions `json:"Versions" yaml:"Versions"`
}

// Versions maps version names to their field layouts, in insertion order.
type Versions struct {
	OrderedMap[*Version]
}

// Version is one concrete layout of a message type.
type Version struct {
	Fields *Fields `json:"Fields" yaml:"Fields"`
}

// Fields maps field names to their extraction rules, in insertion order.
type Fields struct {
	OrderedMap[*Field]
}

// Field is a byte-offset extraction rule. A nil Length means the field is
// open-ended and runs to the end of the message.
type Field struct {
	Start   int      `json:"Start" yaml:"Start"`
	Length  *int     `json:"Length" yaml:"Length"`
	Escapes *Escapes `json:"Escapes" yaml:"Escapes"`
}

// Escapes maps raw extracted values to display values, in insertion order.
type Escapes struct {
	OrderedMap[string]
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// NewMessageType returns a message type with the given metadata and an
// empty version set.
func NewMessageType(description, responseType, transIDPosition string) *MessageType {
	return &MessageType{
		Description:     description,
		ResponseType:    responseType,
		TransIDPosition: transIDPosition,
		Versions:        &Versions{},
	}
}

// NewVersion returns a version with an empty field set.
func NewVersion() *Version {
	return &Version{Fields: &Fields{}}
}

// NewField returns a field with an empty escape table. A length of
// OpenEnded (or any negative value) is stored as open-ended.
func NewField(start, length int) *Field {
	f := &Field{Start: start, Escapes: &Escapes{}}
	if length >= 0 {
		l := length
		f.Length = &l
	}
	return f
}

// OpenEnded reports whether the field runs to the end of the message.
func (f *Field) OpenEnded() bool {
	return f.Length == nil || *f.Length == OpenEnded
}

// UnmarshalJSON decodes the document and normalizes loaded nodes.
func (d *Document) UnmarshalJSON(data []byte) error {
	if err := d.OrderedMap.UnmarshalJSON(data); err != nil {
		return err
	}
	d.normalize()
	return nil
}

// UnmarshalYAML decodes the document and normalizes loaded nodes.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	if err := d.OrderedMap.UnmarshalYAML(value); err != nil {
		return err
	}
	d.normalize()
	return nil
}

// normalize repairs representational drift in decoded documents: nil
// container maps become empty ones and a stored length of -1 becomes a
// nil (open-ended) length. Key order is never touched.
func (d *Document) normalize() {
	d.Range(func(_ string, mt *MessageType) bool {
		if mt == nil {
			return true
		}
		if mt.Versions == nil {
			mt.Versions = &Versions{}
		}
		mt.Versions.Range(func(_ string, v *Version) bool {
			if v == nil {
				return true
			}
			if v.Fields == nil {
				v.Fields = &Fields{}
			}
			v.Fields.Range(func(_ string, f *Field) bool {
				if f == nil {
					return true
				}
				if f.Length != nil && *f.Length == OpenEnded {
					f.Length = nil
				}
				if f.Escapes == nil {
					f.Escapes = &Escapes{}
				}
				return true
			})
			return true
		})
		return true
	})
}

// MessageType looks up a message type by name.
func (d *Document) MessageType(name string) (*MessageType, error) {
	mt, ok := d.Get(name)
	if !ok || mt == nil {
		return nil, fmt.Errorf("message type %q: %w", name, ErrNotFound)
	}
	return mt, nil
}

// Version looks up a version under a message type.
func (d *Document) Version(typeName, versionName string) (*Version, error) {
	mt, err := d.MessageType(typeName)
	if err != nil {
		return nil, err
	}
	v, ok := mt.Versions.Get(versionName)
	if !ok || v == nil {
		return nil, fmt.Errorf("message type %q version %q: %w", typeName, versionName, ErrNotFound)
	}
	return v, nil
}

// Field looks up a field under a version.
func (d *Document) Field(typeName, versionName, fieldName string) (*Field, error) {
	v, err := d.Version(typeName, versionName)
	if err != nil {
		return nil, err
	}
	f, ok := v.Fields.Get(fieldName)
	if !ok || f == nil {
		return nil, fmt.Errorf("message type %q version %q field %q: %w", typeName, versionName, fieldName, ErrNotFound)
	}
	return f, nil
}

// Clone returns a deep copy sharing no mutable state with the original.
func (d *Document) Clone() *Document {
	out := NewDocument()
	if d == nil {
		return out
	}
	d.Range(func(name string, mt *MessageType) bool {
		out.Set(name, mt.Clone())
		return true
	})
	return out
}

// Clone returns a deep copy of the message type.
func (mt *MessageType) Clone() *MessageType {
	if mt == nil {
		return nil
	}
	out := NewMessageType(mt.Description, mt.ResponseType, mt.TransIDPosition)
	if mt.Versions != nil {
		mt.Versions.Range(func(name string, v *Version) bool {
			out.Versions.Set(name, v.Clone())
			return true
		})
	}
	return out
}

// Clone returns a deep copy of the version.
func (v *Version) Clone() *Version {
	if v == nil {
		return nil
	}
	out := NewVersion()
	if v.Fields != nil {
		v.Fields.Range(func(name string, f *Field) bool {
			out.Fields.Set(name, f.Clone())
			return true
		})
	}
	return out
}

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	if f == nil {
		return nil
	}
	out := &Field{Start: f.Start, Escapes: &Escapes{}}
	if f.Length != nil {
		l := *f.Length
		out.Length = &l
	}
	if f.Escapes != nil {
		f.Escapes.Range(func(raw, display string) bool {
			out.Escapes.Set(raw, display)
			return true
		})
	}
	return out
}
