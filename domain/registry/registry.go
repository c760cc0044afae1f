// Package registry defines server registry entries: which factory/system
// namespaces exist and how to reach the server that produces their logs.
package registry

import (
	"fmt"
	"strconv"
	"time"

	"github.com/parsedesk/parsedesk/domain/schema"
)

// Server is the connection half of a registry entry.
type Server struct {
	Alias        string `json:"alias"`
	Hostname     string `json:"hostname"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	RealtimePath string `json:"realtime_log_path,omitempty"`
	ArchivePath  string `json:"archive_log_path,omitempty"`
}

// Entry binds a (factory, system) namespace to a server.
type Entry struct {
	ID        string    `json:"id"`
	Factory   string    `json:"factory"`
	System    string    `json:"system"`
	Server    Server    `json:"server"`
	CreatedAt time.Time `json:"created_time,omitzero"`
	UpdatedAt time.Time `json:"updated_time,omitzero"`
}

// Namespace returns the schema namespace this entry owns.
func (e Entry) Namespace() schema.Namespace {
	return schema.Namespace{Factory: e.Factory, System: e.System}
}

// Validate checks the fields every entry must carry.
func (e Entry) Validate() error {
	if err := e.Namespace().Validate(); err != nil {
		return err
	}
	if e.Server.Alias == "" {
		return fmt.Errorf("server alias is required")
	}
	if e.Server.Hostname == "" {
		return fmt.Errorf("server hostname is required")
	}
	if e.Server.Username == "" {
		return fmt.Errorf("server username is required")
	}
	if e.Server.Password == "" {
		return fmt.Errorf("server password is required")
	}
	return nil
}

// AllocateID returns the next free numeric id: one past the highest
// numeric id in use, starting at "1".
func AllocateID(entries []Entry) string {
	max := 0
	for _, e := range entries {
		if n, err := strconv.Atoi(e.ID); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

// FindIndex returns the position of the entry with the given id, or -1.
func FindIndex(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// EnsureUnique rejects a (factory, system, alias) triple already claimed
// by another entry. excludeID skips the entry being updated.
func EnsureUnique(entries []Entry, factory, system, alias, excludeID string) error {
	for _, e := range entries {
		if excludeID != "" && e.ID == excludeID {
			continue
		}
		if e.Factory == factory && e.System == system && e.Server.Alias == alias {
			return fmt.Errorf("server config %s/%s/%s: %w", factory, system, alias, schema.ErrConflict)
		}
	}
	return nil
}

// Factories lists the distinct factory names in first-seen order.
func Factories(entries []Entry) []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.Factory != "" && !seen[e.Factory] {
			out = append(out, e.Factory)
			seen[e.Factory] = true
		}
	}
	return out
}

// Systems lists the distinct system names of one factory in first-seen
// order.
func Systems(entries []Entry, factory string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range entries {
		if e.Factory != factory {
			continue
		}
		if e.System != "" && !seen[e.System] {
			out = append(out, e.System)
			seen[e.System] = true
		}
	}
	return out
}
