// Package auth provides the protocol-neutral authentication abstractions used
// by kerbgate.
//
// This package defines the core types and interfaces for authentication:
//
//   - Authenticator: a scheme that inspects an HTTP request and produces an Outcome
//   - Outcome: exactly one of NoResult, Success or Failure
//   - Identity: the validated principal and its ordered claims
//   - Failure: a categorized, log-safe failure description
//
// Sub-packages:
//   - kerberos/: keytab lifecycle and Kerberos AP-REQ validation
//   - negotiate/: the HTTP Negotiate (SPNEGO) scheme handler
//   - sid/: Windows SID parsing for PAC group claims
package auth
