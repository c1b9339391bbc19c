package bridge

import (
	"context"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/codes"

	"github.com/marmos91/kerbgate/internal/logger"
	"github.com/marmos91/kerbgate/internal/telemetry"
	"github.com/marmos91/kerbgate/pkg/auth"
	"github.com/marmos91/kerbgate/pkg/session"
)

// LoginKind is the result of a Login call.
type LoginKind int

const (
	// LoginUnauthorized means Negotiate did not succeed and no challenge was
	// emitted (auto-challenge disabled).
	LoginUnauthorized LoginKind = iota
	// LoginChallenged means Negotiate did not succeed and a challenge header
	// was added to the response.
	LoginChallenged
	// LoginSucceeded means a session credential was issued.
	LoginSucceeded
)

func (k LoginKind) String() string {
	switch k {
	case LoginUnauthorized:
		return "unauthorized"
	case LoginChallenged:
		return "challenged"
	case LoginSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// LoginResult describes a Login call. Identity and Credential are set only
// when Kind is LoginSucceeded.
type LoginResult struct {
	Kind       LoginKind
	Outcome    auth.Outcome
	Identity   *auth.Identity
	Credential *session.Credential
}

// challenger reports whether Challenge will emit a header.
type challenger interface {
	AutoChallenge() bool
}

// Bridge composes a Negotiate authenticator with a session manager.
//
// Thread Safety: safe for concurrent use.
type Bridge struct {
	authn    auth.Authenticator
	sessions *session.Manager
	fallback bool
	denier   Denier
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithNegotiateFallback lets the gate accept a valid Negotiate header on a
// request that has no session cookie.
func WithNegotiateFallback(enabled bool) Option {
	return func(b *Bridge) {
		b.fallback = enabled
	}
}

// WithDenier replaces the default 403 denier.
func WithDenier(d Denier) Option {
	return func(b *Bridge) {
		if d != nil {
			b.denier = d
		}
	}
}

// New creates a bridge.
func New(authn auth.Authenticator, sessions *session.Manager, opts ...Option) *Bridge {
	b := &Bridge{
		authn:    authn,
		sessions: sessions,
		denier:   Forbidden(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Login runs Negotiate once and, on success, issues a session credential and
// sets its cookie on w. On NoResult or Failure it invokes the authenticator's
// challenge; the caller responds 401. The outcome is returned in the result
// and attached with auth.WithOutcome to the context the session is issued
// under.
//
// The returned error is non-nil only when authentication succeeded but the
// session could not be recorded.
func (b *Bridge) Login(w http.ResponseWriter, r *http.Request) (LoginResult, error) {
	ctx, span := telemetry.StartAuthSpan(r.Context(), "login")
	defer span.End()

	out := b.authn.Authenticate(r.WithContext(ctx))
	ctx = auth.WithOutcome(ctx, out)
	res := LoginResult{Outcome: out}

	if !out.Succeeded() {
		b.authn.Challenge(w)
		res.Kind = LoginUnauthorized
		if c, ok := b.authn.(challenger); !ok || c.AutoChallenge() {
			res.Kind = LoginChallenged
		}
		span.SetAttributes(telemetry.AuthOutcome(res.Kind.String()))
		return res, nil
	}

	cred, err := b.sessions.Issue(ctx, w, out.Identity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session issue failed")
		logger.ErrorCtx(ctx, "Login failed to issue session",
			logger.Principal(out.Identity.Principal),
			logger.Err(err),
		)
		res.Kind = LoginUnauthorized
		return res, err
	}

	res.Kind = LoginSucceeded
	res.Identity = out.Identity
	res.Credential = cred
	span.SetAttributes(
		telemetry.AuthOutcome(res.Kind.String()),
		telemetry.Principal(out.Identity.Principal),
	)
	return res, nil
}

// Logout revokes the session on r and clears its cookie. It is idempotent.
func (b *Bridge) Logout(w http.ResponseWriter, r *http.Request) error {
	return b.sessions.Revoke(r.Context(), w, r)
}

// AuthenticateSession checks only the session cookie on r. It never runs
// Kerberos. A renewed cookie is written to w.
func (b *Bridge) AuthenticateSession(w http.ResponseWriter, r *http.Request) (*session.Credential, error) {
	return b.sessions.Authenticate(r.Context(), w, r)
}

// RequireAuthentication gates next on a session credential or, when the
// Negotiate fallback is enabled, a valid Negotiate header. The identity is
// available to next through IdentityFrom.
func (b *Bridge) RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cred, err := b.sessions.Authenticate(ctx, w, r)
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(withIdentity(ctx, cred.Identity())))
			return
		case !errors.Is(err, auth.ErrNotAuthenticated):
			// The store could not answer; fail closed.
			logger.WarnCtx(ctx, "Session check failed, denying access", logger.Err(err))
		}

		if b.fallback {
			out := b.authn.Authenticate(r)
			ctx = auth.WithOutcome(ctx, out)
			if out.Succeeded() {
				next.ServeHTTP(w, r.WithContext(withIdentity(ctx, out.Identity)))
				return
			}
		}

		b.authn.Challenge(w)
		b.denier.Deny(w, r.WithContext(ctx))
	})
}

// IdentityFrom returns the identity the gate attached to ctx, or nil.
func IdentityFrom(ctx context.Context) *auth.Identity {
	return auth.IdentityFrom(ctx)
}

func withIdentity(ctx context.Context, id *auth.Identity) context.Context {
	if lc := logger.FromContext(ctx); lc != nil {
		ctx = logger.WithContext(ctx, lc.WithPrincipal(id.Principal))
	}
	return auth.WithIdentity(ctx, id)
}
