// Package schema defines the message schema model: per-namespace documents
// describing message types, their versions, fixed-offset fields and escape
// tables. All types here are pure values with no I/O.
package schema

import "fmt"

// Namespace identifies one schema document: every (factory, system) pair
// owns exactly one persisted document.
type Namespace struct {
	Factory string
	System  string
}

// String renders the namespace for logs and error messages.
func (n Namespace) String() string {
	return n.Factory + "/" + n.System
}

// Validate checks that both parts are present. Factory names must not
// contain underscores because the storage layer joins the pair with one.
func (n Namespace) Validate() error {
	if n.Factory == "" {
		return &ValidationError{Level: LevelNamespace, Path: n.String(), Reason: "factory is empty"}
	}
	if n.System == "" {
		return &ValidationError{Level: LevelNamespace, Path: n.String(), Reason: "system is empty"}
	}
	for _, r := range n.Factory {
		if r == '_' {
			return &ValidationError{Level: LevelNamespace, Path: n.String(), Reason: "factory must not contain underscores"}
		}
	}
	return nil
}

// Level names one tier of the schema hierarchy. LevelNamespace labels
// validation failures above the document root; it is not a node tier.
type Level string

const (
	LevelNamespace   Level = "namespace"
	LevelMessageType Level = "message_type"
	LevelVersion     Level = "version"
	LevelField       Level = "field"
	LevelEscape      Level = "escape"
)

// Valid reports whether the level is one of the four known tiers.
func (l Level) Valid() bool {
	switch l {
	case LevelMessageType, LevelVersion, LevelField, LevelEscape:
		return true
	}
	return false
}

// NodeRef addresses a single node in a document. The fields required
// depend on Level: a version ref needs MessageType+Version, an escape ref
// needs all four.
type NodeRef struct {
	Level       Level
	MessageType string
	Version     string
	Field       string
	Escape      string
}

// Validate checks that the ref names every ancestor its level requires.
func (r NodeRef) Validate() error {
	if !r.Level.Valid() {
		return fmt.Errorf("unknown level %q", r.Level)
	}
	if r.MessageType == "" {
		return fmt.Errorf("%s ref: message type is empty", r.Level)
	}
	switch r.Level {
	case LevelVersion, LevelField, LevelEscape:
		if r.Version == "" {
			return fmt.Errorf("%s ref: version is empty", r.Level)
		}
	}
	switch r.Level {
	case LevelField, LevelEscape:
		if r.Field == "" {
			return fmt.Errorf("%s ref: field is empty", r.Level)
		}
	}
	if r.Level == LevelEscape && r.Escape == "" {
		return fmt.Errorf("escape ref: escape key is empty")
	}
	return nil
}

// String renders the ref as a canonical tree path.
func (r NodeRef) String() string {
	s := "mt:" + r.MessageType
	switch r.Level {
	case LevelMessageType:
		return s
	case LevelVersion:
		return s + "/ver:" + r.Version
	case LevelField:
		return s + "/ver:" + r.Version + "/field:" + r.Field
	default:
		return s + "/ver:" + r.Version + "/field:" + r.Field + "/escape:" + r.Escape
	}
}
