package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/parsedesk/parsedesk/adapters/memory"
	"github.com/parsedesk/parsedesk/app"
	"github.com/parsedesk/parsedesk/domain/schema"
)

var testNS = schema.Namespace{Factory: "tokyo", System: "press"}

func newEditor() (*app.Editor, *memory.DocStore) {
	store := memory.NewDocStore()
	return app.NewEditor(store, nil, zerolog.Nop()), store
}

func mustPatch(t *testing.T, path string, value any) schema.Patch {
	t.Helper()
	p, err := schema.ParsePath(path)
	if err != nil {
		t.Fatalf("ParsePath(%q) failed: %v", path, err)
	}
	return schema.Patch{Path: p, Value: value}
}

func TestEditor_AddMessageType(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	if err := editor.AddMessageType(ctx, testNS, "LoginReq", "login request", "LoginResp", "0,4"); err != nil {
		t.Fatalf("AddMessageType failed: %v", err)
	}

	doc, err := store.Load(ctx, testNS)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	mt, err := doc.MessageType("LoginReq")
	if err != nil {
		t.Fatalf("stored document missing LoginReq: %v", err)
	}
	if mt.Description != "login request" || mt.ResponseType != "LoginResp" || mt.TransIDPosition != "0,4" {
		t.Errorf("stored metadata = %+v", mt)
	}
}

func TestEditor_AddMessageType_UpdatesMetadataOnly(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	editor.AddMessageType(ctx, testNS, "LoginReq", "old", "", "")
	editor.AddVersion(ctx, testNS, "LoginReq", "01")

	if err := editor.AddMessageType(ctx, testNS, "LoginReq", "new", "LoginResp", "0,4"); err != nil {
		t.Fatalf("AddMessageType failed: %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	mt, _ := doc.MessageType("LoginReq")
	if mt.Description != "new" || mt.ResponseType != "LoginResp" {
		t.Errorf("metadata not updated: %+v", mt)
	}
	if !mt.Versions.Has("01") {
		t.Error("metadata update must not drop existing versions")
	}
}

func TestEditor_AddVersion(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	// The message type is created lazily.
	if err := editor.AddVersion(ctx, testNS, "Status", "01"); err != nil {
		t.Fatalf("AddVersion failed: %v", err)
	}

	// Adding the same version again is a quiet no-op.
	if err := editor.AddVersion(ctx, testNS, "Status", "01"); err != nil {
		t.Fatalf("repeated AddVersion failed: %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	mt, err := doc.MessageType("Status")
	if err != nil {
		t.Fatalf("stored document missing Status: %v", err)
	}
	if mt.Versions.Len() != 1 {
		t.Errorf("expected 1 version, got %d", mt.Versions.Len())
	}
}

func TestEditor_AddField(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	// Both ancestors are created lazily.
	if err := editor.AddField(ctx, testNS, "Status", "01", "Code", 4, 2); err != nil {
		t.Fatalf("AddField failed: %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	field, err := doc.Field("Status", "01", "Code")
	if err != nil {
		t.Fatalf("stored document missing field: %v", err)
	}
	if field.Start != 4 || field.Length == nil || *field.Length != 2 {
		t.Errorf("field = %+v", field)
	}
}

func TestEditor_AddField_OverwriteResetsEscapes(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	editor.AddField(ctx, testNS, "Status", "01", "Code", 0, 2)
	editor.AddEscape(ctx, testNS, "Status", "01", "Code", "01", "power on")

	// Re-adding the field replaces it wholesale.
	if err := editor.AddField(ctx, testNS, "Status", "01", "Code", 4, -1); err != nil {
		t.Fatalf("AddField failed: %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	field, _ := doc.Field("Status", "01", "Code")
	if field.Start != 4 || !field.OpenEnded() {
		t.Errorf("field not replaced: %+v", field)
	}
	if field.Escapes.Len() != 0 {
		t.Error("overwrite should reset the escape table")
	}
}

func TestEditor_AddField_RejectsNegativeStart(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	editor.AddField(ctx, testNS, "Status", "01", "Code", 0, 2)

	err := editor.AddField(ctx, testNS, "Status", "01", "Bad", -3, 2)
	if !schema.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// The rejected mutation must not reach the store.
	doc, _ := store.Load(ctx, testNS)
	if _, err := doc.Field("Status", "01", "Bad"); !errors.Is(err, schema.ErrNotFound) {
		t.Error("rejected field leaked into the stored document")
	}
}

func TestEditor_AddEscape(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	// The field must exist first.
	err := editor.AddEscape(ctx, testNS, "Status", "01", "Code", "01", "power on")
	if !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing field, got %v", err)
	}

	editor.AddField(ctx, testNS, "Status", "01", "Code", 0, 2)
	if err := editor.AddEscape(ctx, testNS, "Status", "01", "Code", "01", "power on"); err != nil {
		t.Fatalf("AddEscape failed: %v", err)
	}
	// Same key again silently overwrites.
	if err := editor.AddEscape(ctx, testNS, "Status", "01", "Code", "01", "powered"); err != nil {
		t.Fatalf("overwriting AddEscape failed: %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	field, _ := doc.Field("Status", "01", "Code")
	if v, _ := field.Escapes.Get("01"); v != "powered" {
		t.Errorf("escape value = %q, want %q", v, "powered")
	}
}

func TestEditor_RenameMessageType(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	editor.AddVersion(ctx, testNS, "Old", "01")
	editor.AddMessageType(ctx, testNS, "Later", "", "", "")

	if err := editor.RenameMessageType(ctx, testNS, "Missing", "X"); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing source, got %v", err)
	}

	if err := editor.RenameMessageType(ctx, testNS, "Old", "New"); err != nil {
		t.Fatalf("RenameMessageType failed: %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	if doc.Has("Old") {
		t.Error("old name still present")
	}
	if got := doc.Keys(); !reflect.DeepEqual(got, []string{"New", "Later"}) {
		t.Errorf("rename moved the type within the document: %v", got)
	}
	mt, err := doc.MessageType("New")
	if err != nil {
		t.Fatalf("new name missing: %v", err)
	}
	if !mt.Versions.Has("01") {
		t.Error("rename lost the subtree")
	}
}

func TestEditor_RenameMessageType_ConflictLeavesDocumentUntouched(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	editor.AddMessageType(ctx, testNS, "A", "alpha", "", "")
	editor.AddMessageType(ctx, testNS, "B", "beta", "", "")

	err := editor.RenameMessageType(ctx, testNS, "A", "B")
	if !errors.Is(err, schema.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	a, errA := doc.MessageType("A")
	b, errB := doc.MessageType("B")
	if errA != nil || errB != nil {
		t.Fatal("conflicting rename must leave both types in place")
	}
	if a.Description != "alpha" || b.Description != "beta" {
		t.Error("conflicting rename altered stored content")
	}
}

func TestEditor_RenameVersion(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	editor.AddField(ctx, testNS, "Status", "01", "Code", 0, 2)
	editor.AddVersion(ctx, testNS, "Status", "02")

	if err := editor.RenameVersion(ctx, testNS, "Status", "01", "02"); !errors.Is(err, schema.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	if err := editor.RenameVersion(ctx, testNS, "Status", "01", "10"); err != nil {
		t.Fatalf("RenameVersion failed: %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	if _, err := doc.Field("Status", "10", "Code"); err != nil {
		t.Errorf("renamed version lost its fields: %v", err)
	}
}

func TestEditor_RenameField(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	editor.AddField(ctx, testNS, "Status", "01", "Code", 0, 2)
	editor.AddEscape(ctx, testNS, "Status", "01", "Code", "01", "power on")

	if err := editor.RenameField(ctx, testNS, "Status", "01", "Code", "State"); err != nil {
		t.Fatalf("RenameField failed: %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	field, err := doc.Field("Status", "01", "State")
	if err != nil {
		t.Fatalf("renamed field missing: %v", err)
	}
	if v, _ := field.Escapes.Get("01"); v != "power on" {
		t.Error("rename lost the escape table")
	}
}

func TestEditor_Delete(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	editor.AddField(ctx, testNS, "Status", "01", "Code", 0, 2)
	editor.AddField(ctx, testNS, "Status", "01", "Station", 2, 4)
	editor.AddEscape(ctx, testNS, "Status", "01", "Code", "01", "power on")

	// Missing nodes report not found.
	err := editor.Delete(ctx, testNS, schema.NodeRef{Level: schema.LevelField, MessageType: "Status", Version: "01", Field: "Nope"})
	if !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Deleting one field leaves its sibling alone.
	err = editor.Delete(ctx, testNS, schema.NodeRef{Level: schema.LevelField, MessageType: "Status", Version: "01", Field: "Code"})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	if _, err := doc.Field("Status", "01", "Code"); !errors.Is(err, schema.ErrNotFound) {
		t.Error("deleted field still present")
	}
	if _, err := doc.Field("Status", "01", "Station"); err != nil {
		t.Errorf("sibling field lost: %v", err)
	}

	// Deleting the type takes the whole subtree.
	err = editor.Delete(ctx, testNS, schema.NodeRef{Level: schema.LevelMessageType, MessageType: "Status"})
	if err != nil {
		t.Fatalf("Delete message type failed: %v", err)
	}
	doc, _ = store.Load(ctx, testNS)
	if doc.Has("Status") {
		t.Error("deleted message type still present")
	}
}

func TestEditor_DeleteBatch(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	editor.AddField(ctx, testNS, "Status", "01", "Code", 0, 2)
	editor.AddField(ctx, testNS, "Status", "01", "Station", 2, 4)

	res, err := editor.DeleteBatch(ctx, testNS, []schema.NodeRef{
		{Level: schema.LevelField, MessageType: "Status", Version: "01", Field: "Code"},
		{Level: schema.LevelField, MessageType: "Status", Version: "01", Field: "Ghost"},
		{Level: schema.LevelField, MessageType: "Status", Version: "01", Field: "Station"},
	})
	if err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
	if res.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2", res.Deleted)
	}
	if len(res.Failures) != 1 || res.Failures[0].Ref.Field != "Ghost" {
		t.Errorf("Failures = %+v, want one for Ghost", res.Failures)
	}

	doc, _ := store.Load(ctx, testNS)
	ver, _ := doc.Version("Status", "01")
	if ver.Fields.Len() != 0 {
		t.Errorf("expected all fields deleted, got %d", ver.Fields.Len())
	}
}

func TestEditor_Clear(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	if err := editor.Clear(ctx, testNS); !errors.Is(err, schema.ErrNotFound) {
		t.Errorf("clearing an absent namespace should report ErrNotFound, got %v", err)
	}

	editor.AddVersion(ctx, testNS, "Status", "01")
	if err := editor.Clear(ctx, testNS); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := store.Load(ctx, testNS); !errors.Is(err, schema.ErrNotFound) {
		t.Error("document still present after Clear")
	}
}

func TestEditor_Update(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	// Patching requires an existing document.
	err := editor.Update(ctx, testNS, []schema.Patch{mustPatch(t, "Status.Description", "x")})
	if !errors.Is(err, schema.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent document, got %v", err)
	}

	editor.AddField(ctx, testNS, "Status", "01", "Code", 0, 2)

	err = editor.Update(ctx, testNS, []schema.Patch{
		mustPatch(t, "Status.Description", "machine status"),
		mustPatch(t, "Status.Versions.01.Fields.Code.Start", 6),
		mustPatch(t, "Status.Versions.01.Fields.Code.Length", -1),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	mt, _ := doc.MessageType("Status")
	if mt.Description != "machine status" {
		t.Errorf("Description = %q", mt.Description)
	}
	field, _ := doc.Field("Status", "01", "Code")
	if field.Start != 6 || !field.OpenEnded() {
		t.Errorf("field = %+v, want start 6 open-ended", field)
	}
}

func TestEditor_Update_InvalidValueLeavesDocumentUntouched(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	editor.AddField(ctx, testNS, "Status", "01", "Code", 0, 2)

	err := editor.Update(ctx, testNS, []schema.Patch{
		mustPatch(t, "Status.Versions.01.Fields.Code.Start", "six"),
	})
	if !schema.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	field, _ := doc.Field("Status", "01", "Code")
	if field.Start != 0 {
		t.Error("failed update leaked into the stored document")
	}
}

func TestEditor_Merge(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	editor.AddMessageType(ctx, testNS, "Status", "machine status", "", "")
	editor.AddField(ctx, testNS, "Status", "01", "Code", 0, 2)

	incoming := schema.NewDocument()
	hb := schema.NewMessageType("pinger", "", "")
	hb.Versions.Set("01", schema.NewVersion())
	incoming.Set("Heartbeat", hb)
	st := schema.NewMessageType("changed", "", "")
	st.Versions.Set("02", schema.NewVersion())
	incoming.Set("Status", st)

	stats, err := editor.Merge(ctx, testNS, incoming)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if stats.MessageTypes != 1 || stats.Versions != 1 {
		t.Errorf("stats = %+v, want 1 new type and 1 new version", stats)
	}

	doc, _ := store.Load(ctx, testNS)
	if !doc.Has("Heartbeat") {
		t.Error("merge did not add the missing type")
	}
	mt, _ := doc.MessageType("Status")
	if mt.Description != "machine status" {
		t.Error("merge must not overwrite existing metadata")
	}
	if !mt.Versions.Has("02") || !mt.Versions.Has("01") {
		t.Error("merge should add the missing version and keep the existing one")
	}
}

func TestEditor_Save(t *testing.T) {
	editor, store := newEditor()
	ctx := context.Background()

	bad := schema.NewDocument()
	bad.Set("Status", &schema.MessageType{TransIDPosition: "nope", Versions: &schema.Versions{}})
	if err := editor.Save(ctx, testNS, bad); !schema.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	good := schema.NewDocument()
	good.Set("Status", schema.NewMessageType("", "", "32,12"))
	if err := editor.Save(ctx, testNS, good); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	doc, _ := store.Load(ctx, testNS)
	if !doc.Has("Status") {
		t.Error("saved document not stored")
	}
}
