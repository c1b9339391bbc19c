package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/marmos91/kerbgate/internal/logger"
	"github.com/marmos91/kerbgate/internal/telemetry"
	"github.com/marmos91/kerbgate/pkg/auth"
	"github.com/marmos91/kerbgate/pkg/metrics"
)

// Capability check errors. Each matches auth.ErrNotAuthenticated.
var (
	ErrNoSession      = fmt.Errorf("%w: no session cookie", auth.ErrNotAuthenticated)
	ErrInvalidSession = fmt.Errorf("%w: invalid session", auth.ErrNotAuthenticated)
	ErrSessionExpired = fmt.Errorf("%w: session expired", auth.ErrNotAuthenticated)
	ErrSessionRevoked = fmt.Errorf("%w: session revoked", auth.ErrNotAuthenticated)
)

// Defaults.
const (
	DefaultCookieName    = "kerbgate_session"
	DefaultSlidingWindow = 8 * time.Hour
	DefaultMaxLifetime   = 24 * time.Hour
)

// Config configures a Manager.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string

	// SlidingWindow is how far ExpiresAt is pushed past the last use.
	SlidingWindow time.Duration

	// MaxLifetime caps the total age of a session regardless of activity.
	MaxLifetime time.Duration

	// SecureCookie sets the Secure attribute on the cookie.
	SecureCookie bool
}

func (c *Config) applyDefaults() {
	if c.CookieName == "" {
		c.CookieName = DefaultCookieName
	}
	if c.SlidingWindow <= 0 {
		c.SlidingWindow = DefaultSlidingWindow
	}
	if c.MaxLifetime <= 0 {
		c.MaxLifetime = DefaultMaxLifetime
	}
	if c.MaxLifetime < c.SlidingWindow {
		c.SlidingWindow = c.MaxLifetime
	}
}

// Manager issues, checks and revokes session credentials.
//
// Thread Safety: safe for concurrent use. Two concurrent requests presenting
// the same cookie may both renew it; the later write wins and both results
// are valid. A renewal never outlives a concurrent Revoke: Store.Renew only
// writes records that still exist.
type Manager struct {
	cfg     Config
	sealer  *Sealer
	store   Store
	metrics *metrics.AuthMetrics
	now     func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerMetrics records issued, revoked and checked sessions on m.
func WithManagerMetrics(m *metrics.AuthMetrics) ManagerOption {
	return func(mgr *Manager) {
		mgr.metrics = m
	}
}

// WithClock replaces time.Now. Use the same clock for the Sealer.
func WithClock(now func() time.Time) ManagerOption {
	return func(mgr *Manager) {
		mgr.now = now
	}
}

// NewManager creates a manager sealing with sealer and recording in store.
func NewManager(cfg Config, sealer *Sealer, store Store, opts ...ManagerOption) *Manager {
	cfg.applyDefaults()
	m := &Manager{
		cfg:    cfg,
		sealer: sealer,
		store:  store,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Issue mints a credential for id, records it and sets the session cookie.
func (m *Manager) Issue(ctx context.Context, w http.ResponseWriter, id *auth.Identity) (*Credential, error) {
	if id == nil || id.Principal == "" {
		return nil, errors.New("session: cannot issue a session without a principal")
	}

	ctx, span := telemetry.StartSessionSpan(ctx, "issue", telemetry.Principal(id.Principal))
	defer span.End()

	cred := NewCredential(id, m.now(), m.cfg.SlidingWindow, m.cfg.MaxLifetime)
	token, err := m.sealer.Seal(cred)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := m.store.Put(ctx, cred); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("record session: %w", err)
	}

	http.SetCookie(w, m.cookie(token, cred.ExpiresAt))
	m.metrics.RecordSessionIssued()

	logger.InfoCtx(ctx, "Session issued",
		logger.Principal(cred.Principal),
		logger.SessionID(cred.ID),
		logger.KeyExpiresAt, cred.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return cred, nil
}

// Authenticate checks the session cookie on r. It never runs Kerberos.
//
// On success it returns the authoritative record and, when the credential is
// past half of its sliding window, renews it and re-sets the cookie on w.
// Every failure matches auth.ErrNotAuthenticated unless the store itself is
// unavailable, in which case the store error is returned and access should
// be denied.
func (m *Manager) Authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Credential, error) {
	ctx, span := telemetry.StartSessionSpan(ctx, "authenticate")
	defer span.End()

	cred, result, err := m.check(ctx, r)
	m.metrics.RecordSessionCheck(result)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			logger.DebugCtx(ctx, "Session rejected", "result", result, logger.Err(err))
		}
		return nil, err
	}

	span.SetAttributes(telemetry.Principal(cred.Principal))
	if err := m.maybeRenew(ctx, w, cred); err != nil {
		logger.DebugCtx(ctx, "Session revoked during renewal", logger.SessionID(cred.ID))
		return nil, err
	}
	return cred, nil
}

func (m *Manager) check(ctx context.Context, r *http.Request) (*Credential, string, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, "missing", ErrNoSession
	}

	sealed, err := m.sealer.Open(cookie.Value)
	switch {
	case errors.Is(err, ErrExpiredToken):
		return nil, "expired", ErrSessionExpired
	case err != nil:
		return nil, "invalid", ErrInvalidSession
	}

	rec, err := m.store.Get(ctx, sealed.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, "revoked", ErrSessionRevoked
	case err != nil:
		logger.ErrorCtx(ctx, "Session store lookup failed", logger.SessionID(sealed.ID), logger.Err(err))
		return nil, "error", err
	}

	if rec.Principal != sealed.Principal {
		return nil, "invalid", ErrInvalidSession
	}
	if rec.Expired(m.now()) {
		_ = m.store.Delete(ctx, rec.ID)
		return nil, "expired", ErrSessionExpired
	}
	return rec, "valid", nil
}

// maybeRenew slides the expiry once less than half of the window remains.
// It returns ErrSessionRevoked when the record vanished since it was read.
// Other renewal failures are logged; the current credential stays valid.
func (m *Manager) maybeRenew(ctx context.Context, w http.ResponseWriter, cred *Credential) error {
	now := m.now()
	if cred.ExpiresAt.Sub(now) > m.cfg.SlidingWindow/2 {
		return nil
	}
	renewed := cred.Clone()
	if !renewed.Renew(now, m.cfg.SlidingWindow) {
		return nil
	}

	token, err := m.sealer.Seal(renewed)
	if err != nil {
		logger.WarnCtx(ctx, "Session renewal failed", logger.SessionID(cred.ID), logger.Err(err))
		return nil
	}
	if err := m.store.Renew(ctx, renewed); err != nil {
		if errors.Is(err, ErrNotFound) {
			m.metrics.RecordSessionCheck("revoked")
			return ErrSessionRevoked
		}
		logger.WarnCtx(ctx, "Session renewal failed", logger.SessionID(cred.ID), logger.Err(err))
		return nil
	}

	*cred = *renewed
	http.SetCookie(w, m.cookie(token, renewed.ExpiresAt))
	logger.DebugCtx(ctx, "Session renewed",
		logger.SessionID(cred.ID),
		logger.KeyExpiresAt, cred.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return nil
}

// Revoke deletes the record behind the cookie on r, if any, and clears the
// cookie. It is idempotent.
func (m *Manager) Revoke(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ctx, span := telemetry.StartSessionSpan(ctx, "revoke")
	defer span.End()

	http.SetCookie(w, m.clearCookie())

	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	// An expired or forged token names no live record.
	sealed, err := m.sealer.Open(cookie.Value)
	if err != nil {
		return nil
	}

	if err := m.store.Delete(ctx, sealed.ID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("revoke session: %w", err)
	}
	m.metrics.RecordSessionRevoked()
	logger.InfoCtx(ctx, "Session revoked",
		logger.Principal(sealed.Principal),
		logger.SessionID(sealed.ID),
	)
	return nil
}

func (m *Manager) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) clearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
