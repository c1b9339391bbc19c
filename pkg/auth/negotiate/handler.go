// Package negotiate implements the HTTP Negotiate (RFC 4559) authentication
// scheme on top of pkg/auth/kerberos.
//
// A Handler inspects the Authorization header of one request and produces an
// auth.Outcome:
//
//	header absent / other scheme / malformed token  -> NoResult
//	keytab unavailable                              -> Failure(configuration)
//	ticket rejected                                 -> Failure(validation | security)
//	panic during the attempt                        -> Failure(unexpected)
//	ticket verified                                 -> Success(identity)
//
// The handler never writes to the response from Authenticate. Challenge adds
// the WWW-Authenticate header when auto-challenge is enabled.
package negotiate

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/jcmturner/gokrb5/v8/keytab"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/kerbgate/internal/logger"
	"github.com/marmos91/kerbgate/internal/telemetry"
	"github.com/marmos91/kerbgate/pkg/auth"
	"github.com/marmos91/kerbgate/pkg/auth/kerberos"
	"github.com/marmos91/kerbgate/pkg/metrics"
)

// Scheme is the HTTP authentication scheme name.
const Scheme = "Negotiate"

const (
	headerAuthorization   = "Authorization"
	headerWWWAuthenticate = "WWW-Authenticate"
	schemePrefix          = Scheme + " "
)

// ErrTokenFormat is reported (as NoResult) when the Authorization header uses
// the Negotiate scheme but carries no decodable token.
var ErrTokenFormat = errors.New("negotiate: malformed token")

// errNoCredentials means the request did not attempt Negotiate at all.
var errNoCredentials = errors.New("negotiate: no Negotiate credentials")

// KeytabSource provides the shared keytab. *kerberos.KeytabStore implements it.
type KeytabSource interface {
	Get() (*keytab.Keytab, error)
}

// Handler is the Negotiate authentication state machine.
//
// Thread Safety: safe for concurrent use; it holds no per-request state.
type Handler struct {
	keytabs       KeytabSource
	validator     kerberos.Validator
	autoChallenge bool
	metrics       *metrics.AuthMetrics
}

// Option configures a Handler.
type Option func(*Handler)

// WithAutoChallenge controls whether Challenge emits WWW-Authenticate.
// Enabled by default.
func WithAutoChallenge(enabled bool) Option {
	return func(h *Handler) {
		h.autoChallenge = enabled
	}
}

// WithMetrics records attempts and validation latency on m.
func WithMetrics(m *metrics.AuthMetrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// New creates a Handler that validates tokens with validator against the
// keytab provided by keytabs.
func New(keytabs KeytabSource, validator kerberos.Validator, opts ...Option) *Handler {
	h := &Handler{
		keytabs:       keytabs,
		validator:     validator,
		autoChallenge: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Scheme returns "Negotiate".
func (h *Handler) Scheme() string {
	return Scheme
}

// AutoChallenge reports whether Challenge emits a header.
func (h *Handler) AutoChallenge() bool {
	return h.autoChallenge
}

// Authenticate runs one Negotiate attempt for r. It never panics.
func (h *Handler) Authenticate(r *http.Request) (out auth.Outcome) {
	ctx, span := telemetry.StartAuthSpan(r.Context(), "negotiate", telemetry.AuthScheme(Scheme))
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			logger.ErrorCtx(ctx, "Negotiate authentication panicked",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			out = auth.Fail(auth.CategoryUnexpected, "authentication failed", fmt.Errorf("panic: %v", rec))
		}
		h.observe(span, out)
	}()

	token, err := inspect(r)
	if err != nil {
		if !errors.Is(err, errNoCredentials) {
			logger.DebugCtx(ctx, "Ignoring Negotiate header", logger.Err(err))
		}
		return auth.NoResult()
	}
	span.SetAttributes(telemetry.TokenBytes(len(token)))

	return h.validate(ctx, r, token)
}

// inspect extracts and decodes the Negotiate token from the Authorization header.
func inspect(r *http.Request) ([]byte, error) {
	header := r.Header.Get(headerAuthorization)
	if header == "" {
		return nil, errNoCredentials
	}
	if len(header) < len(schemePrefix) || !strings.EqualFold(header[:len(schemePrefix)], schemePrefix) {
		return nil, errNoCredentials
	}

	encoded := strings.TrimSpace(header[len(schemePrefix):])
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenFormat)
	}
	token, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenFormat, err)
	}
	if len(token) == 0 {
		return nil, fmt.Errorf("%w: empty token", ErrTokenFormat)
	}
	return token, nil
}

func (h *Handler) validate(ctx context.Context, r *http.Request, token []byte) auth.Outcome {
	kt, err := h.keytabs.Get()
	if err != nil {
		logger.ErrorCtx(ctx, "Negotiate authentication unavailable: keytab not loaded", logger.Err(err))
		return auth.Fail(auth.CategoryConfiguration, "keytab unavailable", err)
	}

	start := time.Now()
	id, err := h.validator.Validate(kerberos.WithClientAddr(ctx, clientIP(r)), kt, token)
	h.metrics.ObserveValidation(err == nil, time.Since(start))

	if err != nil {
		return failureOutcome(ctx, err)
	}

	out := auth.Success(id)
	if !out.Succeeded() {
		logger.ErrorCtx(ctx, "Validator returned no principal")
		return out
	}

	logger.InfoCtx(ctx, "Negotiate authentication succeeded",
		logger.Principal(id.Principal),
	)
	if logger.IsDebugEnabled() {
		logger.DebugCtx(ctx, "Negotiate claims",
			logger.Principal(id.Principal),
			logger.KeyClaims, kerberos.ClaimsJSON(id),
		)
	}
	return out
}

// failureOutcome maps a validator error onto a Failure and logs it. Security
// violations are logged at a higher level than plain validation failures.
func failureOutcome(ctx context.Context, err error) auth.Outcome {
	var (
		se *kerberos.SecurityError
		ve *kerberos.ValidationError
	)
	switch {
	case errors.As(err, &se):
		logger.WarnCtx(ctx, "Negotiate authentication rejected by security policy",
			logger.SecurityEvent(),
			logger.AuthCategory(string(auth.CategorySecurity)),
			logger.KeyErrorCode, se.Code,
			logger.Err(err),
		)
		return auth.Fail(auth.CategorySecurity, se.Message, err)

	case errors.As(err, &ve):
		logger.InfoCtx(ctx, "Negotiate authentication failed",
			logger.AuthCategory(string(auth.CategoryValidation)),
			logger.Err(err),
		)
		return auth.Fail(auth.CategoryValidation, ve.Message, err)

	case errors.Is(err, kerberos.ErrKeytabUnavailable):
		logger.ErrorCtx(ctx, "Negotiate authentication unavailable", logger.Err(err))
		return auth.Fail(auth.CategoryConfiguration, "keytab unavailable", err)

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.DebugCtx(ctx, "Negotiate authentication abandoned", logger.Err(err))
		return auth.Fail(auth.CategoryUnexpected, "request cancelled", err)

	default:
		logger.ErrorCtx(ctx, "Negotiate authentication error", logger.Err(err))
		return auth.Fail(auth.CategoryUnexpected, "authentication failed", err)
	}
}

func (h *Handler) observe(span trace.Span, out auth.Outcome) {
	var category string
	if out.Failure != nil {
		category = string(out.Failure.Category)
	}
	h.metrics.RecordAttempt(out.Kind.String(), category)

	span.SetAttributes(telemetry.AuthOutcome(out.Kind.String()))
	switch out.Kind {
	case auth.OutcomeSuccess:
		span.SetAttributes(telemetry.Principal(out.Identity.Principal))
	case auth.OutcomeFailure:
		span.SetAttributes(telemetry.AuthCategory(category))
		span.SetStatus(codes.Error, out.Failure.Message)
	}
}

// Challenge advertises Negotiate on w when auto-challenge is enabled.
func (h *Handler) Challenge(w http.ResponseWriter) {
	if !h.autoChallenge {
		logger.Debug("Auto-challenge disabled, not sending WWW-Authenticate")
		return
	}
	w.Header().Add(headerWWWAuthenticate, Scheme)
}

// DumpClaims renders the identity of a successful outcome for diagnostics.
// It returns "[]" for any other outcome and never modifies o.
func (h *Handler) DumpClaims(o auth.Outcome) string {
	if !o.Succeeded() {
		return "[]"
	}
	return kerberos.ClaimsJSON(o.Identity)
}

// clientIP is the address matched against address-bound tickets. It is the
// socket peer recorded by the server, never a forwarding header, since
// r.RemoteAddr may have been rewritten from X-Forwarded-For.
func clientIP(r *http.Request) net.IP {
	addr, ok := auth.PeerAddrFrom(r.Context())
	if !ok {
		addr = r.RemoteAddr
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return net.ParseIP(host)
}

var _ auth.Authenticator = (*Handler)(nil)
