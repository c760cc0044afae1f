package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Attr names a patchable attribute.
type Attr string

const (
	AttrDescription     Attr = "Description"
	AttrResponseType    Attr = "ResponseType"
	AttrTransIDPosition Attr = "TransIdPosition"
	AttrStart           Attr = "Start"
	AttrLength          Attr = "Length"
	AttrEscape          Attr = "Escapes"
)

// Path is a parsed patch address. Addresses arrive as dotted strings
// ("LoginReq.Versions.01.Fields.UserId.Start") and are parsed exactly
// once, at the boundary; everything after that works on typed segments.
// Names containing dots cannot be addressed with this syntax.
type Path struct {
	MessageType string
	Version     string
	Field       string
	Attr        Attr
	EscapeKey   string
}

// Patch is one parsed address with its new value.
type Patch struct {
	Path  Path
	Value any
}

// String renders the path back in dotted form.
func (p Path) String() string {
	switch p.Attr {
	case AttrDescription, AttrResponseType, AttrTransIDPosition:
		return p.MessageType + "." + string(p.Attr)
	case AttrEscape:
		return strings.Join([]string{p.MessageType, "Versions", p.Version, "Fields", p.Field, "Escapes", p.EscapeKey}, ".")
	default:
		return strings.Join([]string{p.MessageType, "Versions", p.Version, "Fields", p.Field, string(p.Attr)}, ".")
	}
}

// ParsePath parses a dotted patch address. Supported shapes:
//
//	<type>.Description | <type>.ResponseType | <type>.TransIdPosition
//	<type>.Versions.<version>.Fields.<field>.Start
//	<type>.Versions.<version>.Fields.<field>.Length
//	<type>.Versions.<version>.Fields.<field>.Escapes.<key>
func ParsePath(s string) (Path, error) {
	parts := strings.Split(s, ".")
	switch len(parts) {
	case 2:
		attr := Attr(parts[1])
		if attr != AttrDescription && attr != AttrResponseType && attr != AttrTransIDPosition {
			return Path{}, fmt.Errorf("patch path %q: unknown message type attribute %q", s, parts[1])
		}
		if parts[0] == "" {
			return Path{}, fmt.Errorf("patch path %q: message type is empty", s)
		}
		return Path{MessageType: parts[0], Attr: attr}, nil

	case 6, 7:
		if parts[1] != "Versions" || parts[3] != "Fields" {
			return Path{}, fmt.Errorf("patch path %q: expected <type>.Versions.<version>.Fields.<field>...", s)
		}
		if parts[0] == "" || parts[2] == "" || parts[4] == "" {
			return Path{}, fmt.Errorf("patch path %q: empty name segment", s)
		}
		p := Path{MessageType: parts[0], Version: parts[2], Field: parts[4]}
		if len(parts) == 6 {
			attr := Attr(parts[5])
			if attr != AttrStart && attr != AttrLength {
				return Path{}, fmt.Errorf("patch path %q: unknown field attribute %q", s, parts[5])
			}
			p.Attr = attr
			return p, nil
		}
		if parts[5] != string(AttrEscape) {
			return Path{}, fmt.Errorf("patch path %q: expected Escapes before the escape key", s)
		}
		if parts[6] == "" {
			return Path{}, fmt.Errorf("patch path %q: escape key is empty", s)
		}
		p.Attr = AttrEscape
		p.EscapeKey = parts[6]
		return p, nil

	default:
		return Path{}, fmt.Errorf("patch path %q: unsupported depth", s)
	}
}

// Apply sets the addressed attribute on the document. Missing ancestor
// nodes are created on the way down, mirroring the lazy behavior of field
// creation. The document is left validated by the caller.
func (d *Document) Apply(p Patch) error {
	mt, ok := d.Get(p.Path.MessageType)
	if !ok || mt == nil {
		mt = NewMessageType("", "", "")
		d.Set(p.Path.MessageType, mt)
	}
	if mt.Versions == nil {
		mt.Versions = &Versions{}
	}

	switch p.Path.Attr {
	case AttrDescription, AttrResponseType, AttrTransIDPosition:
		s, err := patchString(p)
		if err != nil {
			return err
		}
		switch p.Path.Attr {
		case AttrDescription:
			mt.Description = s
		case AttrResponseType:
			mt.ResponseType = s
		default:
			mt.TransIDPosition = s
		}
		return nil
	}

	ver, ok := mt.Versions.Get(p.Path.Version)
	if !ok || ver == nil {
		ver = NewVersion()
		mt.Versions.Set(p.Path.Version, ver)
	}
	if ver.Fields == nil {
		ver.Fields = &Fields{}
	}
	f, ok := ver.Fields.Get(p.Path.Field)
	if !ok || f == nil {
		f = NewField(0, OpenEnded)
		ver.Fields.Set(p.Path.Field, f)
	}
	if f.Escapes == nil {
		f.Escapes = &Escapes{}
	}

	switch p.Path.Attr {
	case AttrStart:
		n, err := patchInt(p)
		if err != nil {
			return err
		}
		f.Start = n
	case AttrLength:
		if p.Value == nil {
			f.Length = nil
			return nil
		}
		n, err := patchInt(p)
		if err != nil {
			return err
		}
		if n == OpenEnded {
			f.Length = nil
			return nil
		}
		f.Length = &n
	case AttrEscape:
		s, err := patchString(p)
		if err != nil {
			return err
		}
		f.Escapes.Set(p.Path.EscapeKey, s)
	default:
		return fmt.Errorf("patch path %q: unknown attribute", p.Path.String())
	}
	return nil
}

func patchString(p Patch) (string, error) {
	s, ok := p.Value.(string)
	if !ok {
		level := LevelMessageType
		if p.Path.Attr == AttrEscape {
			level = LevelEscape
		}
		return "", &ValidationError{
			Level:  level,
			Path:   p.Path.String(),
			Reason: fmt.Sprintf("expected string value, got %T", p.Value),
		}
	}
	return s, nil
}

func patchInt(p Patch) (int, error) {
	switch v := p.Value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		n := int(v)
		if float64(n) == v {
			return n, nil
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
	}
	return 0, &ValidationError{
		Level:  LevelField,
		Path:   p.Path.String(),
		Reason: fmt.Sprintf("expected integer value, got %T", p.Value),
	}
}
