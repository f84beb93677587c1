package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ppiankov/openalexbot/internal/model"
)

func TestRecorder_ObserveOutcome(t *testing.T) {
	r := New()
	r.ObserveOutcome(model.Outcome{DOI: "10.1/a", State: model.StateCreated, Duration: 200 * time.Millisecond})
	r.ObserveOutcome(model.Outcome{DOI: "10.1/b", State: model.StateCreated})
	r.ObserveOutcome(model.Outcome{DOI: "10.1/c", State: model.StateExists})

	if got := testutil.ToFloat64(r.imports.WithLabelValues("created")); got != 2 {
		t.Errorf("expected 2 created, got %v", got)
	}
	if got := testutil.ToFloat64(r.imports.WithLabelValues("exists")); got != 1 {
		t.Errorf("expected 1 exists, got %v", got)
	}
	if n := testutil.CollectAndCount(r.duration); n != 1 {
		t.Errorf("expected one histogram, got %d", n)
	}
}

func TestRecorder_ObserveItem(t *testing.T) {
	r := New()
	r.ObserveItem(&model.KnowledgeBaseItem{Claims: []model.Claim{
		{Property: model.PropertyMainSubject},
		{Property: model.PropertyAuthor},
		{Property: model.PropertyAuthorNameString},
		{Property: model.PropertyCitesWork},
		{Property: model.PropertyDOI},
		{Property: model.PropertyTitle},
	}})
	r.ObserveItem(nil)

	tests := map[string]float64{"subjects": 1, "authors": 2, "citations": 1, "single": 2}
	for group, want := range tests {
		if got := testutil.ToFloat64(r.claims.WithLabelValues(group)); got != want {
			t.Errorf("%s: expected %v, got %v", group, want, got)
		}
	}
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.ObserveOutcome(model.Outcome{State: model.StateAssemblingFailed})

	path := filepath.Join(t.TempDir(), "openalexbot.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `openalexbot_imports_total{outcome="assembling_failed"} 1`) {
		t.Errorf("unexpected textfile contents:\n%s", data)
	}

	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Error("expected error for missing directory")
	}
}
