package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AuthMetrics tracks Prometheus metrics for Negotiate authentication, keytab
// loading and session bridging.
//
// All metrics use the "kerbgate_" prefix. Methods handle a nil receiver
// gracefully, so a nil *AuthMetrics acts as a no-op.
type AuthMetrics struct {
	// Attempts counts Negotiate attempts.
	// Labels: outcome=[no_result, success, failure], category=[..., none]
	Attempts *prometheus.CounterVec

	// ValidationDuration tracks ticket validation latency.
	// Labels: result=[success, failure]
	ValidationDuration *prometheus.HistogramVec

	// KeytabLoads counts keytab load attempts by result.
	KeytabLoads *prometheus.CounterVec

	// KeytabEntries reports the number of keys in the loaded keytab.
	KeytabEntries prometheus.Gauge

	// SessionsIssued counts session credentials minted at login.
	SessionsIssued prometheus.Counter

	// SessionsRevoked counts logouts that revoked a live session.
	SessionsRevoked prometheus.Counter

	// SessionChecks counts session capability checks by result.
	// Labels: result=[valid, missing, invalid, expired, revoked]
	SessionChecks *prometheus.CounterVec
}

// NewAuthMetrics creates and registers the authentication collectors on reg.
//
// If reg is nil the process registry is used; when metrics are not enabled
// (InitRegistry not called) nil is returned.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		r := GetRegistry()
		if r == nil {
			return nil
		}
		reg = r
	}

	f := promauto.With(reg)
	return &AuthMetrics{
		Attempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kerbgate_negotiate_attempts_total",
				Help: "Total Negotiate authentication attempts by outcome and failure category",
			},
			[]string{"outcome", "category"},
		),
		ValidationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "kerbgate_ticket_validation_duration_seconds",
				Help: "Duration of Kerberos ticket validation in seconds",
				Buckets: []float64{
					0.0005, // 500us - cached AES keys
					0.001,
					0.005,
					0.01,
					0.05,
					0.1,
					0.5, // PAC decoding with large group lists
				},
			},
			[]string{"result"},
		),
		KeytabLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kerbgate_keytab_loads_total",
				Help: "Total keytab load attempts by result",
			},
			[]string{"result"},
		),
		KeytabEntries: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "kerbgate_keytab_entries",
				Help: "Number of key entries in the loaded keytab",
			},
		),
		SessionsIssued: f.NewCounter(
			prometheus.CounterOpts{
				Name: "kerbgate_sessions_issued_total",
				Help: "Total session credentials issued after Kerberos login",
			},
		),
		SessionsRevoked: f.NewCounter(
			prometheus.CounterOpts{
				Name: "kerbgate_sessions_revoked_total",
				Help: "Total session credentials revoked by logout",
			},
		),
		SessionChecks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kerbgate_session_checks_total",
				Help: "Total session credential checks by result",
			},
			[]string{"result"},
		),
	}
}

// RecordAttempt records one Negotiate attempt. category is empty unless the
// outcome is a failure.
func (m *AuthMetrics) RecordAttempt(outcome, category string) {
	if m == nil {
		return
	}
	if category == "" {
		category = "none"
	}
	m.Attempts.WithLabelValues(outcome, category).Inc()
}

// ObserveValidation records how long ticket validation took.
func (m *AuthMetrics) ObserveValidation(success bool, d time.Duration) {
	if m == nil {
		return
	}
	m.ValidationDuration.WithLabelValues(resultLabel(success)).Observe(d.Seconds())
}

// RecordKeytabLoad records the single keytab load and its entry count.
func (m *AuthMetrics) RecordKeytabLoad(success bool, entries int) {
	if m == nil {
		return
	}
	m.KeytabLoads.WithLabelValues(resultLabel(success)).Inc()
	if success {
		m.KeytabEntries.Set(float64(entries))
	}
}

// RecordSessionIssued records a minted session credential.
func (m *AuthMetrics) RecordSessionIssued() {
	if m == nil {
		return
	}
	m.SessionsIssued.Inc()
}

// RecordSessionRevoked records a revoked session credential.
func (m *AuthMetrics) RecordSessionRevoked() {
	if m == nil {
		return
	}
	m.SessionsRevoked.Inc()
}

// RecordSessionCheck records the result of a session capability check.
func (m *AuthMetrics) RecordSessionCheck(result string) {
	if m == nil {
		return
	}
	m.SessionChecks.WithLabelValues(result).Inc()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
