package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilAuthMetricsIsNoop(t *testing.T) {
	var m *AuthMetrics
	m.RecordAttempt("success", "")
	m.ObserveValidation(true, time.Millisecond)
	m.RecordKeytabLoad(true, 3)
	m.RecordSessionIssued()
	m.RecordSessionRevoked()
	m.RecordSessionCheck("valid")
}

func TestNewAuthMetricsDisabled(t *testing.T) {
	resetRegistry()
	if IsEnabled() {
		t.Fatal("metrics should start disabled")
	}
	if m := NewAuthMetrics(nil); m != nil {
		t.Fatal("NewAuthMetrics(nil) should return nil when disabled")
	}
}

func TestAuthMetricsRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAuthMetrics(reg)

	m.RecordAttempt("success", "")
	m.RecordAttempt("failure", "security")
	m.RecordAttempt("failure", "security")
	m.RecordKeytabLoad(true, 4)
	m.RecordSessionIssued()
	m.RecordSessionCheck("revoked")

	if got := testutil.ToFloat64(m.Attempts.WithLabelValues("success", "none")); got != 1 {
		t.Errorf("success attempts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Attempts.WithLabelValues("failure", "security")); got != 2 {
		t.Errorf("security failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.KeytabEntries); got != 4 {
		t.Errorf("keytab entries = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.SessionsIssued); got != 1 {
		t.Errorf("sessions issued = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SessionChecks.WithLabelValues("revoked")); got != 1 {
		t.Errorf("revoked checks = %v, want 1", got)
	}
}

func TestInitRegistryIdempotent(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	a := InitRegistry()
	b := InitRegistry()
	if a != b {
		t.Fatal("InitRegistry should return the same registry")
	}
	if !IsEnabled() {
		t.Fatal("metrics should be enabled after InitRegistry")
	}
	if NewAuthMetrics(nil) == nil {
		t.Fatal("NewAuthMetrics(nil) should use the process registry")
	}
}

func TestServerHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewAuthMetrics(reg).RecordSessionIssued()

	srv := NewServer(0, reg)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "kerbgate_sessions_issued_total 1") {
		t.Errorf("metrics output missing sessions counter:\n%s", w.Body.String())
	}
}
