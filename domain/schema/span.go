package schema

import (
	"strconv"
	"strings"
)

// Span is a byte range within a raw message.
type Span struct {
	Start  int
	Length int
}

// DefaultTransIDSpan locates the transaction id when a message type does
// not override it: twelve bytes at offset 32.
var DefaultTransIDSpan = Span{Start: 32, Length: 12}

// ParseSpan parses a "start,length" pair. It reports false unless both
// parts are integers with start >= 0 and length > 0.
func ParseSpan(s string) (Span, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Span{}, false
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Span{}, false
	}
	length, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Span{}, false
	}
	if start < 0 || length <= 0 {
		return Span{}, false
	}
	return Span{Start: start, Length: length}, true
}

// TransIDSpan returns the transaction id location for this message type,
// falling back to DefaultTransIDSpan when the override is absent or
// unusable.
func (mt *MessageType) TransIDSpan() Span {
	if mt == nil {
		return DefaultTransIDSpan
	}
	if span, ok := ParseSpan(mt.TransIDPosition); ok {
		return span
	}
	return DefaultTransIDSpan
}

// Slice extracts the span from raw, clamping at the end of the message.
// A span outside the message yields an empty string.
func (s Span) Slice(raw string) string {
	if s.Start >= len(raw) || s.Start < 0 {
		return ""
	}
	end := s.Start + s.Length
	if end > len(raw) {
		end = len(raw)
	}
	return raw[s.Start:end]
}
