package registry_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/parsedesk/parsedesk/domain/registry"
	"github.com/parsedesk/parsedesk/domain/schema"
)

func entries() []registry.Entry {
	return []registry.Entry{
		{ID: "1", Factory: "east", System: "osm", Server: registry.Server{Alias: "srv1"}},
		{ID: "2", Factory: "east", System: "mes", Server: registry.Server{Alias: "srv2"}},
		{ID: "7", Factory: "west", System: "osm", Server: registry.Server{Alias: "srv1"}},
	}
}

func TestAllocateID(t *testing.T) {
	tests := []struct {
		name string
		in   []registry.Entry
		want string
	}{
		{"empty", nil, "1"},
		{"next after max", entries(), "8"},
		{"ignores non-numeric ids", []registry.Entry{{ID: "abc"}, {ID: "3"}}, "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := registry.AllocateID(tt.in); got != tt.want {
				t.Errorf("AllocateID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnsureUnique(t *testing.T) {
	es := entries()

	if err := registry.EnsureUnique(es, "east", "osm", "srv9", ""); err != nil {
		t.Errorf("different alias rejected: %v", err)
	}
	err := registry.EnsureUnique(es, "east", "osm", "srv1", "")
	if !errors.Is(err, schema.ErrConflict) {
		t.Errorf("duplicate triple: err = %v, want ErrConflict", err)
	}
	// The entry being updated does not conflict with itself.
	if err := registry.EnsureUnique(es, "east", "osm", "srv1", "1"); err != nil {
		t.Errorf("self-exclusion failed: %v", err)
	}
}

func TestFindIndex(t *testing.T) {
	es := entries()
	if got := registry.FindIndex(es, "2"); got != 1 {
		t.Errorf("FindIndex(2) = %d, want 1", got)
	}
	if got := registry.FindIndex(es, "99"); got != -1 {
		t.Errorf("FindIndex(99) = %d, want -1", got)
	}
}

func TestFactoriesAndSystems(t *testing.T) {
	es := entries()
	if got, want := registry.Factories(es), []string{"east", "west"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Factories() = %v, want %v", got, want)
	}
	if got, want := registry.Systems(es, "east"), []string{"osm", "mes"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Systems(east) = %v, want %v", got, want)
	}
	if got := registry.Systems(es, "nowhere"); got != nil {
		t.Errorf("Systems(nowhere) = %v, want nil", got)
	}
}

func TestEntry_Validate(t *testing.T) {
	good := registry.Entry{
		Factory: "east",
		System:  "osm",
		Server: registry.Server{
			Alias:    "srv1",
			Hostname: "host1",
			Username: "user",
			Password: "pass",
		},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	tests := []struct {
		name   string
		mutate func(*registry.Entry)
	}{
		{"missing factory", func(e *registry.Entry) { e.Factory = "" }},
		{"underscore factory", func(e *registry.Entry) { e.Factory = "east_1" }},
		{"missing alias", func(e *registry.Entry) { e.Server.Alias = "" }},
		{"missing hostname", func(e *registry.Entry) { e.Server.Hostname = "" }},
		{"missing username", func(e *registry.Entry) { e.Server.Username = "" }},
		{"missing password", func(e *registry.Entry) { e.Server.Password = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := good
			tt.mutate(&e)
			if err := e.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
