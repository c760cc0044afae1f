package jsonfile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/adapters/clock"
	"github.com/parsedesk/parsedesk/adapters/jsonfile"
	"github.com/parsedesk/parsedesk/domain/schema"
)

var testTime = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func newDocStore(t *testing.T) (*jsonfile.DocumentStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := jsonfile.NewDocumentStore(dir, clock.NewFake(testTime), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDocumentStore failed: %v", err)
	}
	return store, dir
}

func sampleDoc() *schema.Document {
	doc := schema.NewDocument()
	mt := schema.NewMessageType("login request", "LoginResp", "0,4")
	ver := schema.NewVersion()
	field := schema.NewField(0, 2)
	field.Escapes.Set("01", "power on")
	ver.Fields.Set("Code", field)
	mt.Versions.Set("01", ver)
	doc.Set("LoginReq", mt)
	return doc
}

func TestDocumentStore_LoadMissing(t *testing.T) {
	store, _ := newDocStore(t)

	_, err := store.Load(context.Background(), schema.Namespace{Factory: "tokyo", System: "press"})
	if !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentStore_SaveAndLoad(t *testing.T) {
	store, dir := newDocStore(t)
	ctx := context.Background()
	ns := schema.Namespace{Factory: "tokyo", System: "press"}

	if err := store.Save(ctx, ns, sampleDoc()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// File lands at <factory>_<system>.json.
	if _, err := os.Stat(filepath.Join(dir, "tokyo_press.json")); err != nil {
		t.Fatalf("expected tokyo_press.json on disk: %v", err)
	}

	got, err := store.Load(ctx, ns)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	mt, err := got.MessageType("LoginReq")
	if err != nil {
		t.Fatalf("loaded document missing LoginReq: %v", err)
	}
	if mt.Description != "login request" {
		t.Errorf("Description = %q, want %q", mt.Description, "login request")
	}
}

func TestDocumentStore_SavePrettyPrints(t *testing.T) {
	store, dir := newDocStore(t)
	ns := schema.Namespace{Factory: "tokyo", System: "press"}

	if err := store.Save(context.Background(), ns, sampleDoc()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "tokyo_press.json"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"LoginReq\"") {
		t.Errorf("document should be indented, got:\n%s", data)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("document should end with a newline")
	}
}

func TestDocumentStore_LoadEmptyFile(t *testing.T) {
	store, dir := newDocStore(t)

	if err := os.WriteFile(filepath.Join(dir, "tokyo_press.json"), []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load(context.Background(), schema.Namespace{Factory: "tokyo", System: "press"})
	if !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("empty file should report ErrNotFound, got %v", err)
	}
}

func TestDocumentStore_LoadCorruptBacksUp(t *testing.T) {
	store, dir := newDocStore(t)
	path := filepath.Join(dir, "tokyo_press.json")

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load(context.Background(), schema.Namespace{Factory: "tokyo", System: "press"})
	if !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("corrupt file should report ErrNotFound, got %v", err)
	}

	backup := path + ".corrupt.20260315-103000"
	data, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("expected backup at %s: %v", backup, err)
	}
	if string(data) != "{not json" {
		t.Errorf("backup should hold the original bytes, got %q", data)
	}
}

func TestDocumentStore_LoadReturnsCopy(t *testing.T) {
	store, _ := newDocStore(t)
	ctx := context.Background()
	ns := schema.Namespace{Factory: "tokyo", System: "press"}

	if err := store.Save(ctx, ns, sampleDoc()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	first, _ := store.Load(ctx, ns)
	first.Set("Injected", schema.NewMessageType("", "", ""))

	second, _ := store.Load(ctx, ns)
	if second.Has("Injected") {
		t.Error("mutation of a loaded document leaked into the cache")
	}
}

func TestDocumentStore_CacheInvalidatedByExternalWrite(t *testing.T) {
	store, dir := newDocStore(t)
	ctx := context.Background()
	ns := schema.Namespace{Factory: "tokyo", System: "press"}
	path := filepath.Join(dir, "tokyo_press.json")

	if err := store.Save(ctx, ns, sampleDoc()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Load(ctx, ns); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Rewrite the file behind the store's back with a future mtime.
	if err := os.WriteFile(path, []byte(`{"Replaced": {"Description": "", "ResponseType": "", "TransIdPosition": "", "Versions": {}}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx, ns)
	if err != nil {
		t.Fatalf("Load after external write failed: %v", err)
	}
	if !got.Has("Replaced") || got.Has("LoginReq") {
		t.Error("external write should invalidate the cached document")
	}
}

func TestDocumentStore_Delete(t *testing.T) {
	store, _ := newDocStore(t)
	ctx := context.Background()
	ns := schema.Namespace{Factory: "tokyo", System: "press"}

	if err := store.Delete(ctx, ns); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing namespace, got %v", err)
	}

	store.Save(ctx, ns, sampleDoc())
	if err := store.Delete(ctx, ns); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(ctx, ns); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDocumentStore_Rename(t *testing.T) {
	store, dir := newDocStore(t)
	ctx := context.Background()
	old := schema.Namespace{Factory: "tokyo", System: "press"}
	dst := schema.Namespace{Factory: "osaka", System: "press"}

	if err := store.Rename(ctx, old, dst); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing source, got %v", err)
	}

	store.Save(ctx, old, sampleDoc())
	if err := store.Rename(ctx, old, dst); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "tokyo_press.json")); !os.IsNotExist(err) {
		t.Error("source file should be gone after rename")
	}
	got, err := store.Load(ctx, dst)
	if err != nil {
		t.Fatalf("Load after rename failed: %v", err)
	}
	if !got.Has("LoginReq") {
		t.Error("renamed document lost its message types")
	}
}

func TestDocumentStore_RenameBacksUpDestination(t *testing.T) {
	store, dir := newDocStore(t)
	ctx := context.Background()
	old := schema.Namespace{Factory: "tokyo", System: "press"}
	dst := schema.Namespace{Factory: "osaka", System: "press"}

	store.Save(ctx, old, sampleDoc())
	other := schema.NewDocument()
	other.Set("Heartbeat", schema.NewMessageType("", "", ""))
	store.Save(ctx, dst, other)

	if err := store.Rename(ctx, old, dst); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	backup := filepath.Join(dir, "osaka_press.json.bak.20260315-103000")
	data, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("expected destination backup at %s: %v", backup, err)
	}
	if !strings.Contains(string(data), "Heartbeat") {
		t.Error("backup should hold the overwritten document")
	}

	got, _ := store.Load(ctx, dst)
	if got.Has("Heartbeat") || !got.Has("LoginReq") {
		t.Error("destination should hold the renamed document")
	}
}

func TestDocumentStore_List(t *testing.T) {
	store, dir := newDocStore(t)
	ctx := context.Background()

	store.Save(ctx, schema.Namespace{Factory: "tokyo", System: "press"}, sampleDoc())
	store.Save(ctx, schema.Namespace{Factory: "osaka", System: "weld-line"}, sampleDoc())

	// Noise that must not show up as namespaces.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "nounderscore.json"), []byte("{}"), 0o644)
	os.WriteFile(filepath.Join(dir, "tokyo_press.json.corrupt.20260101-000000"), []byte("x"), 0o644)

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []schema.Namespace{
		{Factory: "osaka", System: "weld-line"},
		{Factory: "tokyo", System: "press"},
	}
	if len(got) != len(want) {
		t.Fatalf("List returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDocumentStore_ListSplitsOnFirstUnderscore(t *testing.T) {
	store, dir := newDocStore(t)

	// System names may themselves contain underscores.
	os.WriteFile(filepath.Join(dir, "tokyo_press_line_2.json"), []byte("{}"), 0o644)

	got, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List returned %v, want one namespace", got)
	}
	want := schema.Namespace{Factory: "tokyo", System: "press_line_2"}
	if got[0] != want {
		t.Errorf("List[0] = %v, want %v", got[0], want)
	}
}

func TestDocumentStore_Path(t *testing.T) {
	store, dir := newDocStore(t)

	got := store.Path(schema.Namespace{Factory: "tokyo", System: "press"})
	if got != filepath.Join(dir, "tokyo_press.json") {
		t.Errorf("Path = %q", got)
	}
}

func TestDocumentStore_Watch(t *testing.T) {
	store, dir := newDocStore(t)
	ctx := context.Background()

	if err := store.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer store.Close()

	// Drop a document in behind the store's back.
	content := `{"Ping": {"Description": "", "ResponseType": "", "TransIdPosition": "", "Versions": {}}}`
	if err := os.WriteFile(filepath.Join(dir, "kobe_mill.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	// Wait for the watcher to see the event.
	time.Sleep(100 * time.Millisecond)

	doc, err := store.Load(ctx, schema.Namespace{Factory: "kobe", System: "mill"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !doc.Has("Ping") {
		t.Error("externally created document not visible")
	}
}

func TestDocumentStore_AtomicSaveKeepsPreviousOnNoise(t *testing.T) {
	store, dir := newDocStore(t)
	ctx := context.Background()
	ns := schema.Namespace{Factory: "tokyo", System: "press"}

	store.Save(ctx, ns, sampleDoc())

	// A second save must leave no temp droppings behind.
	store.Save(ctx, ns, sampleDoc())
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}
