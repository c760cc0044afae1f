// Package template defines region templates: named sets of terminal
// nodes, optionally bound to a server registry entry so that namespace
// renames propagate into them.
package template

import (
	"sort"
	"strings"
	"time"
)

// Template is one stored region template.
type Template struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	FactoryID      string    `json:"factory_id,omitempty"`
	FactoryName    string    `json:"factory_name"`
	SystemID       string    `json:"system_id,omitempty"`
	SystemName     string    `json:"system_name"`
	ServerConfigID string    `json:"server_config_id,omitempty"`
	Nodes          []string  `json:"nodes"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
}

// SanitizeNodes keeps numeric node ids of up to six digits, trimmed and
// deduplicated in first-seen order.
func SanitizeNodes(nodes []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range nodes {
		s := strings.TrimSpace(n)
		if s == "" || len(s) > 6 || seen[s] {
			continue
		}
		digits := true
		for _, r := range s {
			if r < '0' || r > '9' {
				digits = false
				break
			}
		}
		if !digits {
			continue
		}
		out = append(out, s)
		seen[s] = true
	}
	return out
}

// Patch is a partial template update; nil fields stay untouched.
type Patch struct {
	Name           *string
	FactoryID      *string
	FactoryName    *string
	SystemID       *string
	SystemName     *string
	ServerConfigID *string
	Nodes          *[]string
}

// Apply folds the patch into the template. Timestamps are the caller's
// concern.
func (t *Template) Apply(p Patch) {
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.FactoryID != nil {
		t.FactoryID = strings.TrimSpace(*p.FactoryID)
	}
	if p.FactoryName != nil {
		t.FactoryName = *p.FactoryName
	}
	if p.SystemID != nil {
		t.SystemID = strings.TrimSpace(*p.SystemID)
	}
	if p.SystemName != nil {
		t.SystemName = *p.SystemName
	}
	if p.ServerConfigID != nil {
		t.ServerConfigID = strings.TrimSpace(*p.ServerConfigID)
	}
	if p.Nodes != nil {
		t.Nodes = SanitizeNodes(*p.Nodes)
	}
}

// Filter selects and pages templates.
type Filter struct {
	Factory  string // matches FactoryID or FactoryName
	System   string // matches SystemID or SystemName
	Query    string // case-insensitive hit on name or any node
	Page     int    // 1-based; values below 1 mean page 1
	PageSize int    // values below 1 mean 20
}

// Page is one page of filtered templates.
type Page struct {
	Items []Template
	Total int
}

// Matches reports whether the template passes the filter (paging aside).
func (t Template) Matches(f Filter) bool {
	if f.Factory != "" && !matchAny(f.Factory, t.FactoryID, t.FactoryName) {
		return false
	}
	if f.System != "" && !matchAny(f.System, t.SystemID, t.SystemName) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		hit := strings.Contains(strings.ToLower(t.Name), q)
		for _, n := range t.Nodes {
			if hit {
				break
			}
			hit = strings.Contains(strings.ToLower(n), q)
		}
		if !hit {
			return false
		}
	}
	return true
}

func matchAny(needle string, candidates ...string) bool {
	n := strings.TrimSpace(needle)
	for _, c := range candidates {
		if c != "" && n == strings.TrimSpace(c) {
			return true
		}
	}
	return false
}

// Select filters, sorts (most recently updated first, creation time as
// the fallback) and pages the templates.
func Select(templates []Template, f Filter) Page {
	var hits []Template
	for _, t := range templates {
		if t.Matches(f) {
			hits = append(hits, t)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return sortKey(hits[i]).After(sortKey(hits[j]))
	})

	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size < 1 {
		size = 20
	}
	start := (page - 1) * size
	end := start + size
	if start > len(hits) {
		start = len(hits)
	}
	if end > len(hits) {
		end = len(hits)
	}
	return Page{Items: hits[start:end], Total: len(hits)}
}

func sortKey(t Template) time.Time {
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}
