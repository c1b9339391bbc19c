package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently so log aggregation can query across components.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// HTTP Request
	// ========================================================================
	KeyRequestID  = "request_id"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyClientIP   = "client_ip"
	KeyUserAgent  = "user_agent"
	KeyDurationMs = "duration_ms"

	// ========================================================================
	// Authentication
	// ========================================================================
	KeyPrincipal     = "principal"      // Authenticated client principal (user@REALM)
	KeyRealm         = "realm"          // Kerberos realm
	KeyService       = "service"        // Service principal the ticket was issued for
	KeyAuthType      = "auth_type"      // Authentication scheme: Negotiate, Session
	KeyAuthOutcome   = "auth_outcome"   // no_result, success, failure
	KeyAuthCategory  = "auth_category"  // Failure category: configuration, validation, security, unexpected
	KeySecurityEvent = "security_event" // Marks events that indicate a possible attack
	KeyClaims        = "claims"         // JSON-encoded claims (debug only)
	KeyMechanism     = "mechanism"      // Negotiated GSS mechanism

	// ========================================================================
	// Keytab
	// ========================================================================
	KeyKeytabPath = "keytab_path"
	KeyEntries    = "entries"
	KeyKVNO       = "kvno"
	KeyEtype      = "etype"

	// ========================================================================
	// Session
	// ========================================================================
	KeySessionID = "session_id"
	KeyExpiresAt = "expires_at"
	KeyStoreType = "store_type"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyError     = "error"
	KeyErrorCode = "error_code"
	KeyOperation = "operation"
	KeyAddress   = "address"
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// RequestID returns a slog.Attr for the HTTP request ID
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// ClientIP returns a slog.Attr for client IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// Status returns a slog.Attr for HTTP status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Principal returns a slog.Attr for an authenticated principal
func Principal(name string) slog.Attr {
	return slog.String(KeyPrincipal, name)
}

// Realm returns a slog.Attr for a Kerberos realm
func Realm(name string) slog.Attr {
	return slog.String(KeyRealm, name)
}

// AuthOutcome returns a slog.Attr for an authentication outcome
func AuthOutcome(outcome string) slog.Attr {
	return slog.String(KeyAuthOutcome, outcome)
}

// AuthCategory returns a slog.Attr for an authentication failure category
func AuthCategory(category string) slog.Attr {
	return slog.String(KeyAuthCategory, category)
}

// SecurityEvent marks a record as security relevant
func SecurityEvent() slog.Attr {
	return slog.Bool(KeySecurityEvent, true)
}

// SessionID returns a slog.Attr for a session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}
