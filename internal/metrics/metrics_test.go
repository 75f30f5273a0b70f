package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDocumentLoaded(t *testing.T) {
	m := NewMetrics()

	m.DocumentLoaded("classic", 10*time.Millisecond, 1500, nil)
	m.DocumentLoaded("classic", 10*time.Millisecond, 1510, nil)
	m.DocumentLoaded("delve", time.Millisecond, 0, errors.New("missing"))

	if got := testutil.ToFloat64(m.DocumentLoadsTotal.WithLabelValues("classic", "success")); got != 2 {
		t.Errorf("Expected 2 classic loads, got %v", got)
	}
	if got := testutil.ToFloat64(m.DocumentLoadsTotal.WithLabelValues("delve", "error")); got != 1 {
		t.Errorf("Expected 1 delve failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.DocumentIdentifiers.WithLabelValues("classic")); got != 1510 {
		t.Errorf("Expected latest identifier count, got %v", got)
	}
	if got := testutil.CollectAndCount(m.DocumentIdentifiers); got != 1 {
		t.Errorf("Failed loads must not set identifier gauges, got %d series", got)
	}
}

func TestIndexSizeAndLookups(t *testing.T) {
	m := NewMetrics()

	m.IndexSize(4200, 5)
	m.RecordLookup("get", "hit")
	m.RecordLookup("get", "hit")
	m.RecordLookup("get", "miss")

	if got := testutil.ToFloat64(m.IdentifiersTotal); got != 4200 {
		t.Errorf("identifiers = %v", got)
	}
	if got := testutil.ToFloat64(m.DocumentsTotal); got != 5 {
		t.Errorf("documents = %v", got)
	}
	if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues("get", "hit")); got != 2 {
		t.Errorf("hits = %v", got)
	}
}

func TestRecordGrpcRequest(t *testing.T) {
	m := NewMetrics()
	m.RecordGrpcRequest("/swornref.v1.Reference/Get", "success", 2*time.Millisecond)

	if got := testutil.ToFloat64(m.GrpcRequestsTotal.WithLabelValues("/swornref.v1.Reference/Get", "success")); got != 1 {
		t.Errorf("requests = %v", got)
	}
	if got := testutil.CollectAndCount(m.GrpcRequestDuration); got != 1 {
		t.Errorf("Expected one duration series, got %d", got)
	}
}

func TestIndependentRegistriesAndHandler(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.IndexSize(1, 1)

	if testutil.ToFloat64(b.IdentifiersTotal) != 0 {
		t.Error("Instances must not share state")
	}

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Handler returned %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"swornref_identifiers_total 1", "swornref_server_uptime_seconds", "go_goroutines"} {
		if !strings.Contains(body, name) {
			t.Errorf("Exposition missing %q", name)
		}
	}
}
