package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the engine. Callers match them with
// errors.Is; layers add context with fmt.Errorf("...: %w", err).
var (
	// ErrNotFound marks a missing namespace, message type, version,
	// field or escape entry.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a create or rename whose destination already
	// exists.
	ErrConflict = errors.New("already exists")

	// ErrMalformed marks input that cannot be used: an undecodable
	// payload, an unknown format or mode, or an identifier that does
	// not name anything. Damaged files on disk are backed up by the
	// storage layer and surface as ErrNotFound instead.
	ErrMalformed = errors.New("malformed input")
)

// ValidationError describes one schema invariant violation.
type ValidationError struct {
	Level  Level
	Path   string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Level, e.Path, e.Reason)
}

// IsValidation reports whether err carries at least one ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
