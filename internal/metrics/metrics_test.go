package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveBackend(t *testing.T) {
	m := New()

	m.ObserveBackend("api_keys", "select", 0.01, nil)
	m.ObserveBackend("api_keys", "select", 0.02, nil)
	m.ObserveBackend("api_keys", "delete", 0.03, errors.New("boom"))

	if got := testutil.ToFloat64(m.BackendRequests.WithLabelValues("api_keys", "select", "ok")); got != 2 {
		t.Fatalf("expected 2 ok selects, got %v", got)
	}
	if got := testutil.ToFloat64(m.BackendRequests.WithLabelValues("api_keys", "delete", "error")); got != 1 {
		t.Fatalf("expected 1 failed delete, got %v", got)
	}
}

func TestObserveBackendNilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveBackend("commits", "insert", 0, nil)
}

func TestGlobalIsSingleton(t *testing.T) {
	if Global() != Global() {
		t.Fatalf("expected the same instance")
	}
}
