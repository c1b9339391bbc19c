// Package kerberos validates Kerberos service tickets presented in HTTP
// Negotiate exchanges.
//
// It contains two pieces:
//   - KeytabStore: loads the service keytab once, on first use, and shares the
//     parsed key material read-only with every concurrent validation. A failed
//     load is sticky for the lifetime of the store.
//   - Krb5Validator: unwraps a Negotiate token (SPNEGO, GSS-API krb5 or raw
//     AP-REQ), verifies the AP-REQ against the keytab using gokrb5 and builds an
//     auth.Identity with a stable claim order.
//
// Failures are reported as *ValidationError (structural or cryptographic) or
// *SecurityError (clock skew, replay, validity window, address mismatch) so the
// caller can log them at different severities.
//
// This package does NOT read HTTP headers or write responses; see
// pkg/auth/negotiate for the request state machine.
//
// References:
//   - RFC 4120: The Kerberos Network Authentication Service (V5)
//   - RFC 4121: The Kerberos Version 5 GSS-API Mechanism
//   - RFC 4178: SPNEGO
//   - RFC 4559: SPNEGO-based Kerberos and NTLM HTTP Authentication
package kerberos
