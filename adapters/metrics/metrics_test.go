package metrics_test

import (
	"testing"

	"github.com/parsedesk/parsedesk/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func TestNew(t *testing.T) {
	// Use a new registry to avoid conflicts with other tests
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}

	// Verify all metrics are initialized
	if m.DocumentLoads == nil {
		t.Error("DocumentLoads is nil")
	}
	if m.DocumentSaves == nil {
		t.Error("DocumentSaves is nil")
	}
	if m.LoadRecoveries == nil {
		t.Error("LoadRecoveries is nil")
	}
	if m.CacheHits == nil {
		t.Error("CacheHits is nil")
	}
	if m.Mutations == nil {
		t.Error("Mutations is nil")
	}
	if m.MutationFailures == nil {
		t.Error("MutationFailures is nil")
	}
	if m.RenderedMessages == nil {
		t.Error("RenderedMessages is nil")
	}
	if m.RenderedFields == nil {
		t.Error("RenderedFields is nil")
	}
	if m.MatchedTransactions == nil {
		t.Error("MatchedTransactions is nil")
	}
	if m.Imports == nil {
		t.Error("Imports is nil")
	}
	if m.Exports == nil {
		t.Error("Exports is nil")
	}
}

func TestMutations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.Mutations.WithLabelValues("field", "add").Inc()
	m.Mutations.WithLabelValues("field", "rename").Inc()
	m.Mutations.WithLabelValues("message_type", "delete").Add(2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "parsedesk_mutations_total" {
			found = true
			if len(f.GetMetric()) != 3 {
				t.Errorf("expected 3 metric series, got %d", len(f.GetMetric()))
			}
		}
	}
	if !found {
		t.Error("parsedesk_mutations_total metric not found")
	}
}

func TestRenderedFields(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.RenderedFields.WithLabelValues("ok").Add(4)
	m.RenderedFields.WithLabelValues("truncated").Inc()
	m.RenderedMessages.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	foundFields := false
	foundMessages := false
	for _, f := range families {
		if f.GetName() == "parsedesk_rendered_fields_total" {
			foundFields = true
			if len(f.GetMetric()) != 2 {
				t.Errorf("expected 2 metric series, got %d", len(f.GetMetric()))
			}
		}
		if f.GetName() == "parsedesk_rendered_messages_total" {
			foundMessages = true
		}
	}
	if !foundFields {
		t.Error("parsedesk_rendered_fields_total metric not found")
	}
	if !foundMessages {
		t.Error("parsedesk_rendered_messages_total metric not found")
	}
}

func TestDocumentLoads(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.DocumentLoads.WithLabelValues("ok").Inc()
	m.DocumentLoads.WithLabelValues("ok").Inc()
	m.DocumentLoads.WithLabelValues("not_found").Inc()
	m.LoadRecoveries.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() == "parsedesk_document_loads_total" {
			found = true
			for _, s := range f.GetMetric() {
				if s.GetLabel()[0].GetValue() == "ok" && s.GetCounter().GetValue() != 2 {
					t.Errorf("expected ok count 2, got %f", s.GetCounter().GetValue())
				}
			}
		}
	}
	if !found {
		t.Error("parsedesk_document_loads_total metric not found")
	}
}

func TestImports(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.Imports.WithLabelValues("yaml", "merge").Inc()
	m.Exports.WithLabelValues("json").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}

	foundImports := false
	foundExports := false
	for _, f := range families {
		if f.GetName() == "parsedesk_imports_total" {
			foundImports = true
		}
		if f.GetName() == "parsedesk_exports_total" {
			foundExports = true
		}
	}
	if !foundImports {
		t.Error("parsedesk_imports_total metric not found")
	}
	if !foundExports {
		t.Error("parsedesk_exports_total metric not found")
	}
}
