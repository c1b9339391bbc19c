package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for authentication spans.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Client / HTTP attributes
	// ========================================================================
	AttrClientIP   = "client.address"
	AttrHTTPMethod = "http.request.method"
	AttrHTTPRoute  = "http.route"
	AttrHTTPStatus = "http.response.status_code"

	// ========================================================================
	// Authentication attributes
	// ========================================================================
	AttrAuthScheme   = "auth.scheme"   // Negotiate, Session
	AttrAuthOutcome  = "auth.outcome"  // no_result, success, failure
	AttrAuthCategory = "auth.category" // configuration, validation, security, unexpected
	AttrPrincipal    = "auth.principal"
	AttrMechanism    = "auth.mechanism"

	// ========================================================================
	// Kerberos attributes
	// ========================================================================
	AttrKrbRealm      = "krb.realm"
	AttrKrbService    = "krb.service"
	AttrKrbErrorCode  = "krb.error_code"
	AttrKrbTokenBytes = "krb.token_bytes"

	// ========================================================================
	// Session attributes
	// ========================================================================
	AttrSessionID    = "session.id"
	AttrSessionStore = "session.store"
)

// ClientIP returns an attribute for client IP address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// AuthScheme returns an attribute for the authentication scheme
func AuthScheme(scheme string) attribute.KeyValue {
	return attribute.String(AttrAuthScheme, scheme)
}

// AuthOutcome returns an attribute for an authentication outcome
func AuthOutcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrAuthOutcome, outcome)
}

// AuthCategory returns an attribute for a failure category
func AuthCategory(category string) attribute.KeyValue {
	return attribute.String(AttrAuthCategory, category)
}

// Principal returns an attribute for the authenticated principal
func Principal(name string) attribute.KeyValue {
	return attribute.String(AttrPrincipal, name)
}

// Mechanism returns an attribute for the negotiated GSS mechanism
func Mechanism(name string) attribute.KeyValue {
	return attribute.String(AttrMechanism, name)
}

// KrbRealm returns an attribute for the client realm
func KrbRealm(realm string) attribute.KeyValue {
	return attribute.String(AttrKrbRealm, realm)
}

// KrbErrorCode returns an attribute for a KRB-ERROR code
func KrbErrorCode(code int32) attribute.KeyValue {
	return attribute.Int(AttrKrbErrorCode, int(code))
}

// TokenBytes returns an attribute for the decoded token length
func TokenBytes(n int) attribute.KeyValue {
	return attribute.Int(AttrKrbTokenBytes, n)
}

// SessionStore returns an attribute for a session store type
func SessionStore(kind string) attribute.KeyValue {
	return attribute.String(AttrSessionStore, kind)
}

// StartAuthSpan starts a span for an authentication step ("auth.<step>").
func StartAuthSpan(ctx context.Context, step string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "auth."+step, trace.WithAttributes(attrs...))
}

// StartKerberosSpan starts a span for a Kerberos operation ("krb.<op>").
func StartKerberosSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "krb."+op, trace.WithAttributes(attrs...))
}

// StartSessionSpan starts a span for a session store operation.
func StartSessionSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "session."+op, trace.WithAttributes(attrs...))
}
