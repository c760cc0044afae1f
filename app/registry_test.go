package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/adapters/clock"
	"github.com/parsedesk/parsedesk/adapters/idgen"
	"github.com/parsedesk/parsedesk/adapters/memory"
	"github.com/parsedesk/parsedesk/app"
	"github.com/parsedesk/parsedesk/domain/registry"
	"github.com/parsedesk/parsedesk/domain/schema"
	"github.com/parsedesk/parsedesk/domain/template"
)

var regNow = time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

type registryRig struct {
	reg       *app.Registry
	templates *app.Templates
	docs      *memory.DocStore
	editor    *app.Editor
	clk       *clock.Fake
}

func newRegistryRig(t *testing.T) *registryRig {
	t.Helper()
	clk := clock.NewFake(regNow)
	docs := memory.NewDocStore()
	templates := app.NewTemplates(memory.NewTemplateStore(), idgen.NewSequential("tpl_"), clk, zerolog.Nop())
	return &registryRig{
		reg:       app.NewRegistry(memory.NewRegistryStore(), docs, templates, clk, zerolog.Nop()),
		templates: templates,
		docs:      docs,
		editor:    app.NewEditor(docs, nil, zerolog.Nop()),
		clk:       clk,
	}
}

func serverEntry(factory, system, alias string) registry.Entry {
	return registry.Entry{
		Factory: factory,
		System:  system,
		Server: registry.Server{
			Alias:        alias,
			Hostname:     "10.0.0.1",
			Username:     "ops",
			Password:     "secret",
			RealtimePath: "/logs/realtime",
			ArchivePath:  "/logs/archive",
		},
	}
}

func TestRegistry_CreateAllocatesIDs(t *testing.T) {
	rig := newRegistryRig(t)
	ctx := context.Background()

	first, err := rig.reg.Create(ctx, serverEntry("tokyo", "press", "srv1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := rig.reg.Create(ctx, serverEntry("tokyo", "press", "srv2"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.ID != "1" || second.ID != "2" {
		t.Errorf("ids = %q, %q, want 1, 2", first.ID, second.ID)
	}
	if !first.CreatedAt.Equal(regNow) || !first.UpdatedAt.Equal(regNow) {
		t.Errorf("timestamps = %v / %v, want %v", first.CreatedAt, first.UpdatedAt, regNow)
	}

	all, err := rig.reg.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List = %d entries, want 2", len(all))
	}
}

func TestRegistry_CreateTrimsAndValidates(t *testing.T) {
	rig := newRegistryRig(t)
	ctx := context.Background()

	created, err := rig.reg.Create(ctx, serverEntry(" tokyo ", " press ", " srv1 "))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Factory != "tokyo" || created.Server.Alias != "srv1" {
		t.Errorf("entry not trimmed: %+v", created)
	}

	bad := serverEntry("tokyo", "press", "srv2")
	bad.Server.Hostname = "  "
	if _, err := rig.reg.Create(ctx, bad); err == nil {
		t.Error("blank hostname should be rejected")
	}
	if _, err := rig.reg.Create(ctx, serverEntry("to_kyo", "press", "srv3")); !schema.IsValidation(err) {
		t.Errorf("underscore factory: err = %v, want validation error", err)
	}
}

func TestRegistry_CreateRejectsDuplicate(t *testing.T) {
	rig := newRegistryRig(t)
	ctx := context.Background()

	if _, err := rig.reg.Create(ctx, serverEntry("tokyo", "press", "srv1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := rig.reg.Create(ctx, serverEntry("tokyo", "press", "srv1")); !errors.Is(err, schema.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	all, _ := rig.reg.List(ctx)
	if len(all) != 1 {
		t.Errorf("rejected create must not persist, got %d entries", len(all))
	}
}

func TestRegistry_Get(t *testing.T) {
	rig := newRegistryRig(t)
	ctx := context.Background()

	created, err := rig.reg.Create(ctx, serverEntry("tokyo", "press", "srv1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	got, err := rig.reg.Get(ctx, created.ID)
	if err != nil || got.Server.Alias != "srv1" {
		t.Errorf("Get = %+v (%v)", got, err)
	}
	if _, err := rig.reg.Get(ctx, "99"); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRegistry_Update(t *testing.T) {
	rig := newRegistryRig(t)
	ctx := context.Background()

	created, err := rig.reg.Create(ctx, serverEntry("tokyo", "press", "srv1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := rig.reg.Create(ctx, serverEntry("tokyo", "press", "srv2")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	rig.clk.Advance(time.Hour)
	next := serverEntry("tokyo", "press", "srv1")
	next.Server.Hostname = "10.0.0.9"
	updated, err := rig.reg.Update(ctx, created.ID, next)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Server.Hostname != "10.0.0.9" {
		t.Errorf("hostname = %q", updated.Server.Hostname)
	}
	if !updated.CreatedAt.Equal(regNow) {
		t.Errorf("CreatedAt = %v, want preserved %v", updated.CreatedAt, regNow)
	}
	if !updated.UpdatedAt.Equal(regNow.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v, want bumped", updated.UpdatedAt)
	}

	// Claiming another entry's (factory, system, alias) is a conflict.
	if _, err := rig.reg.Update(ctx, created.ID, serverEntry("tokyo", "press", "srv2")); !errors.Is(err, schema.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	if _, err := rig.reg.Update(ctx, "99", serverEntry("kobe", "mill", "srv9")); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRegistry_UpdateRenameCascade(t *testing.T) {
	rig := newRegistryRig(t)
	ctx := context.Background()

	created, err := rig.reg.Create(ctx, serverEntry("tokyo", "press", "srv1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := rig.editor.AddVersion(ctx, testNS, "Status", "01"); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	bound, err := rig.templates.Create(ctx, template.Template{
		Name:           "floor",
		FactoryName:    "tokyo",
		SystemName:     "press",
		ServerConfigID: created.ID,
	})
	if err != nil {
		t.Fatalf("seed template: %v", err)
	}

	if _, err := rig.reg.Update(ctx, created.ID, serverEntry("osaka", "weld", "srv1")); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	moved := schema.Namespace{Factory: "osaka", System: "weld"}
	if _, err := rig.docs.Load(ctx, moved); err != nil {
		t.Errorf("document should follow the rename: %v", err)
	}
	if _, err := rig.docs.Load(ctx, testNS); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("old namespace should be gone, got %v", err)
	}
	tpl, err := rig.templates.Get(ctx, bound.ID)
	if err != nil {
		t.Fatalf("Get template failed: %v", err)
	}
	if tpl.FactoryName != "osaka" || tpl.SystemName != "weld" {
		t.Errorf("template labels = %s/%s, want osaka/weld", tpl.FactoryName, tpl.SystemName)
	}
}

func TestRegistry_UpdateRenameWithoutDocument(t *testing.T) {
	rig := newRegistryRig(t)
	ctx := context.Background()

	created, err := rig.reg.Create(ctx, serverEntry("tokyo", "press", "srv1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := rig.reg.Update(ctx, created.ID, serverEntry("osaka", "weld", "srv1")); err != nil {
		t.Errorf("rename without a stored document should succeed, got %v", err)
	}
}

func TestRegistry_Delete(t *testing.T) {
	rig := newRegistryRig(t)
	ctx := context.Background()

	created, err := rig.reg.Create(ctx, serverEntry("tokyo", "press", "srv1"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for _, name := range []string{"one", "two"} {
		if _, err := rig.templates.Create(ctx, template.Template{Name: name, ServerConfigID: created.ID}); err != nil {
			t.Fatalf("seed template: %v", err)
		}
	}

	removed, err := rig.reg.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed %d templates, want 2", removed)
	}
	all, _ := rig.reg.List(ctx)
	if len(all) != 0 {
		t.Errorf("List = %d entries, want 0", len(all))
	}
	page, _ := rig.templates.List(ctx, template.Filter{})
	if page.Total != 0 {
		t.Errorf("bound templates should be gone, %d left", page.Total)
	}

	if _, err := rig.reg.Delete(ctx, created.ID); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestRegistry_FactoriesAndSystems(t *testing.T) {
	rig := newRegistryRig(t)
	ctx := context.Background()

	for _, e := range []registry.Entry{
		serverEntry("tokyo", "press", "srv1"),
		serverEntry("tokyo", "weld", "srv2"),
		serverEntry("osaka", "mill", "srv3"),
	} {
		if _, err := rig.reg.Create(ctx, e); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	factories, err := rig.reg.Factories(ctx)
	if err != nil {
		t.Fatalf("Factories failed: %v", err)
	}
	if len(factories) != 2 || factories[0] != "tokyo" || factories[1] != "osaka" {
		t.Errorf("Factories = %v", factories)
	}
	systems, err := rig.reg.Systems(ctx, "tokyo")
	if err != nil {
		t.Fatalf("Systems failed: %v", err)
	}
	if len(systems) != 2 || systems[0] != "press" || systems[1] != "weld" {
		t.Errorf("Systems = %v", systems)
	}
}
