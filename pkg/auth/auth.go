package auth

import (
	"errors"
	"net/http"
)

// Authenticator is an HTTP authentication scheme.
//
// Authenticate inspects the request and never writes to the response; it must
// not panic. Challenge advertises the scheme on a response that is about to be
// rejected (typically 401).
//
// Thread safety: implementations must be safe for concurrent use.
type Authenticator interface {
	// Authenticate returns the outcome of one authentication attempt.
	Authenticate(r *http.Request) Outcome

	// Challenge adds the scheme's challenge headers to w, if enabled.
	Challenge(w http.ResponseWriter)

	// Scheme returns the scheme name ("Negotiate").
	Scheme() string
}

// Standard authentication errors.
var (
	// ErrAuthFailed indicates that authentication was attempted but failed.
	ErrAuthFailed = errors.New("auth: authentication failed")

	// ErrUnsupportedMechanism indicates the client offered only mechanisms
	// this service does not accept (for example raw NTLM).
	ErrUnsupportedMechanism = errors.New("auth: unsupported authentication mechanism")

	// ErrInvalidCredentials indicates that the credentials are malformed or
	// cannot be parsed (distinct from wrong credentials).
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrNotAuthenticated is returned by capability checks that found no
	// usable credential on the request.
	ErrNotAuthenticated = errors.New("auth: not authenticated")
)
