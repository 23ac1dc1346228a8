package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersAllInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Logins.WithLabelValues("success").Inc()
	m.Logins.WithLabelValues("locked").Inc()
	m.RefreshRotations.Inc()
	m.RefreshReplays.Inc()
	m.SessionsCreated.Inc()
	m.SessionsTerminated.Add(3)
	m.RateLimited.WithLabelValues("ip").Inc()
	m.DegradedEntries.Inc()
	m.StoreErrors.WithLabelValues("session").Inc()
	m.AccessValidations.WithLabelValues("valid").Inc()

	if got := testutil.ToFloat64(m.Logins.WithLabelValues("success")); got != 1 {
		t.Fatalf("logins success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SessionsTerminated); got != 3 {
		t.Fatalf("sessions terminated = %v, want 3", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 9 {
		t.Fatalf("gathered %d metric families, want 9", len(families))
	}
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.RefreshReplays.Inc()
	if got := testutil.ToFloat64(b.RefreshReplays); got != 0 {
		t.Fatalf("second registry leaked counts: %v", got)
	}
}
