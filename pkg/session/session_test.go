package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/kerbgate/pkg/auth"
	"github.com/marmos91/kerbgate/pkg/metrics"
	"github.com/marmos91/kerbgate/pkg/session"
	"github.com/marmos91/kerbgate/pkg/session/store/memory"
)

const testSecret = "test-secret-key-that-is-at-least-32-chars"

var alice = &auth.Identity{
	Principal:          "alice@EXAMPLE.COM",
	AuthenticationType: "Negotiate",
	Claims: []auth.Claim{
		{Type: auth.ClaimName, Value: "alice@EXAMPLE.COM"},
		{Type: auth.ClaimRealm, Value: "EXAMPLE.COM"},
	},
}

// fakeClock is a settable clock shared by the sealer, manager and store.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	clock   *fakeClock
	store   *memory.Store
	manager *session.Manager
	metrics *metrics.AuthMetrics
}

func newFixture(t *testing.T, cfg session.Config) *fixture {
	t.Helper()
	clock := newClock()
	sealer, err := session.NewSealer(testSecret, session.WithSealerClock(clock.Now))
	require.NoError(t, err)
	st := memory.New(memory.WithClock(clock.Now))
	m := metrics.NewAuthMetrics(prometheus.NewRegistry())
	return &fixture{
		clock:   clock,
		store:   st,
		metrics: m,
		manager: session.NewManager(cfg, sealer, st,
			session.WithClock(clock.Now),
			session.WithManagerMetrics(m),
		),
	}
}

// issue logs alice in and returns the session cookie.
func (f *fixture) issue(t *testing.T) (*session.Credential, *http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	cred, err := f.manager.Issue(context.Background(), w, alice)
	require.NoError(t, err)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return cred, cookies[0]
}

func requestWith(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

// ============================================================================
// Credential
// ============================================================================

func TestNewCredential(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	c := session.NewCredential(alice, now, 8*time.Hour, 24*time.Hour)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, alice.Principal, c.Principal)
	assert.Equal(t, alice.Claims, c.Claims)
	assert.Equal(t, now.Add(8*time.Hour), c.ExpiresAt)
	assert.Equal(t, now.Add(24*time.Hour), c.AbsoluteExpiry)

	short := session.NewCredential(alice, now, 8*time.Hour, time.Hour)
	assert.Equal(t, now.Add(time.Hour), short.ExpiresAt, "expiry is capped by the lifetime")

	other := session.NewCredential(alice, now, time.Hour, time.Hour)
	assert.NotEqual(t, c.ID, other.ID)
}

func TestCredentialRenew(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Slides", func(t *testing.T) {
		c := session.NewCredential(alice, now, 8*time.Hour, 24*time.Hour)
		require.True(t, c.Renew(now.Add(6*time.Hour), 8*time.Hour))
		assert.Equal(t, now.Add(14*time.Hour), c.ExpiresAt)
	})

	t.Run("CappedByAbsoluteExpiry", func(t *testing.T) {
		c := session.NewCredential(alice, now, 8*time.Hour, 10*time.Hour)
		require.True(t, c.Renew(now.Add(7*time.Hour), 8*time.Hour))
		assert.Equal(t, c.AbsoluteExpiry, c.ExpiresAt)

		assert.False(t, c.Renew(now.Add(9*time.Hour), 8*time.Hour), "already at the cap")
	})

	t.Run("ExpiredIsNeverRenewed", func(t *testing.T) {
		c := session.NewCredential(alice, now, time.Hour, 24*time.Hour)
		before := c.ExpiresAt
		assert.False(t, c.Renew(now.Add(time.Hour), 8*time.Hour))
		assert.Equal(t, before, c.ExpiresAt)
		assert.True(t, c.Expired(now.Add(time.Hour)))
	})
}

func TestCredentialIdentityIsACopy(t *testing.T) {
	c := session.NewCredential(alice, time.Now(), time.Hour, time.Hour)
	id := c.Identity()
	id.Claims[0].Value = "mallory"
	assert.Equal(t, "alice@EXAMPLE.COM", c.Claims[0].Value)
	assert.Equal(t, "alice@EXAMPLE.COM", alice.Claims[0].Value)
}

// ============================================================================
// Sealer
// ============================================================================

func TestNewSealerRejectsShortSecret(t *testing.T) {
	_, err := session.NewSealer("short")
	assert.ErrorIs(t, err, session.ErrInvalidSecretLength)
}

func TestSealerRoundTrip(t *testing.T) {
	clock := newClock()
	s, err := session.NewSealer(testSecret, session.WithSealerClock(clock.Now))
	require.NoError(t, err)

	c := session.NewCredential(alice, clock.Now(), time.Hour, 2*time.Hour)
	token, err := s.Seal(c)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	opened, err := s.Open(token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, opened.ID)
	assert.Equal(t, c.Principal, opened.Principal)
	assert.Equal(t, c.AuthenticationType, opened.AuthenticationType)
	assert.Equal(t, c.Claims, opened.Claims)
	assert.True(t, c.ExpiresAt.Equal(opened.ExpiresAt))
	assert.True(t, c.AbsoluteExpiry.Equal(opened.AbsoluteExpiry))
}

func TestSealerOpenRejects(t *testing.T) {
	clock := newClock()
	s, err := session.NewSealer(testSecret, session.WithSealerClock(clock.Now))
	require.NoError(t, err)
	other, err := session.NewSealer("another-secret-key-that-is-32-chars-long", session.WithSealerClock(clock.Now))
	require.NoError(t, err)
	foreign, err := session.NewSealer(testSecret, session.WithIssuer("someone-else"), session.WithSealerClock(clock.Now))
	require.NoError(t, err)

	c := session.NewCredential(alice, clock.Now(), time.Hour, time.Hour)
	good, err := s.Seal(c)
	require.NoError(t, err)
	wrongKey, err := other.Seal(c)
	require.NoError(t, err)
	wrongIssuer, err := foreign.Seal(c)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		ID:        c.ID,
		Subject:   c.Principal,
		Issuer:    "kerbgate",
		Audience:  jwt.ClaimStrings{"kerbgate-session"},
		ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
	})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"Garbage", "not-a-jwt"},
		{"Empty", ""},
		{"WrongKey", wrongKey},
		{"WrongIssuer", wrongIssuer},
		{"AlgNone", unsigned},
		{"Truncated", good[:len(good)-4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Open(tt.token)
			assert.ErrorIs(t, err, session.ErrInvalidToken)
		})
	}

	t.Run("Expired", func(t *testing.T) {
		clock.Advance(time.Hour)
		_, err := s.Open(good)
		assert.ErrorIs(t, err, session.ErrExpiredToken)
	})
}

// ============================================================================
// Manager
// ============================================================================

func TestIssueSetsCookie(t *testing.T) {
	f := newFixture(t, session.Config{SecureCookie: true})

	cred, cookie := f.issue(t)

	assert.Equal(t, session.DefaultCookieName, cookie.Name)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionsIssued))

	stored, err := f.store.Get(context.Background(), cred.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Principal, stored.Principal)
}

func TestIssueRequiresPrincipal(t *testing.T) {
	f := newFixture(t, session.Config{})
	_, err := f.manager.Issue(context.Background(), httptest.NewRecorder(), &auth.Identity{})
	assert.Error(t, err)
	_, err = f.manager.Issue(context.Background(), httptest.NewRecorder(), nil)
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t, session.Config{})
	cred, cookie := f.issue(t)

	w := httptest.NewRecorder()
	got, err := f.manager.Authenticate(context.Background(), w, requestWith(cookie))
	require.NoError(t, err)
	assert.Equal(t, cred.ID, got.ID)
	assert.Equal(t, alice.Principal, got.Identity().Principal)
	assert.Empty(t, w.Result().Cookies(), "fresh sessions are not renewed")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SessionChecks.WithLabelValues("valid")))
}

func TestAuthenticateRejects(t *testing.T) {
	f := newFixture(t, session.Config{})
	_, cookie := f.issue(t)

	tampered := *cookie
	tampered.Value = cookie.Value[:len(cookie.Value)-2] + "xx"

	wrongName := *cookie
	wrongName.Name = "other"

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   error
	}{
		{"NoCookie", nil, session.ErrNoSession},
		{"OtherCookie", &wrongName, session.ErrNoSession},
		{"Tampered", &tampered, session.ErrInvalidSession},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.manager.Authenticate(context.Background(), httptest.NewRecorder(), requestWith(tt.cookie))
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
		})
	}
}

func TestAuthenticateExpired(t *testing.T) {
	f := newFixture(t, session.Config{SlidingWindow: time.Hour, MaxLifetime: 24 * time.Hour})
	_, cookie := f.issue(t)

	f.clock.Advance(time.Hour)

	_, err := f.manager.Authenticate(context.Background(), httptest.NewRecorder(), requestWith(cookie))
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestSlidingRenewal(t *testing.T) {
	f := newFixture(t, session.Config{SlidingWindow: 8 * time.Hour, MaxLifetime: 12 * time.Hour})
	cred, cookie := f.issue(t)
	issued := f.clock.Now()

	// Past half of the window: renewed.
	f.clock.Advance(5 * time.Hour)
	w := httptest.NewRecorder()
	renewed, err := f.manager.Authenticate(context.Background(), w, requestWith(cookie))
	require.NoError(t, err)
	assert.Equal(t, cred.ID, renewed.ID)
	assert.Equal(t, issued.Add(12*time.Hour), renewed.ExpiresAt, "capped by the absolute expiry")

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, cookie.Value, cookies[0].Value)
	cookie = cookies[0]

	stored, err := f.store.Get(context.Background(), cred.ID)
	require.NoError(t, err)
	assert.Equal(t, renewed.ExpiresAt, stored.ExpiresAt)

	// At the absolute expiry nothing resurrects the session.
	f.clock.Advance(7 * time.Hour)
	_, err = f.manager.Authenticate(context.Background(), httptest.NewRecorder(), requestWith(cookie))
	assert.ErrorIs(t, err, session.ErrSessionExpired)
}

func TestRevoke(t *testing.T) {
	f := newFixture(t, session.Config{})
	cred, cookie := f.issue(t)

	w := httptest.NewRecorder()
	require.NoError(t, f.manager.Revoke(context.Background(), w, requestWith(cookie)))

	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, session.DefaultCookieName, cleared[0].Name)
	assert.Empty(t, cleared[0].Value)
	assert.Less(t, cleared[0].MaxAge, 0)

	_, err := f.store.Get(context.Background(), cred.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	// The old cookie is dead even though its signature is still valid.
	_, err = f.manager.Authenticate(context.Background(), httptest.NewRecorder(), requestWith(cookie))
	assert.ErrorIs(t, err, session.ErrSessionRevoked)

	// Idempotent.
	require.NoError(t, f.manager.Revoke(context.Background(), httptest.NewRecorder(), requestWith(cookie)))
	require.NoError(t, f.manager.Revoke(context.Background(), httptest.NewRecorder(), requestWith(nil)))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.SessionsRevoked))
}

type brokenStore struct {
	session.Store
}

func (brokenStore) Get(context.Context, string) (*session.Credential, error) {
	return nil, errors.Join(session.ErrStoreUnavailable, errors.New("connection refused"))
}

// revokingStore deletes the record right after the first Get returns, as a
// logout running between the lookup and the renewal would.
type revokingStore struct {
	session.Store
	once sync.Once
}

func (s *revokingStore) Get(ctx context.Context, id string) (*session.Credential, error) {
	c, err := s.Store.Get(ctx, id)
	s.once.Do(func() { _ = s.Store.Delete(ctx, id) })
	return c, err
}

func TestRenewalDoesNotUndoRevoke(t *testing.T) {
	f := newFixture(t, session.Config{SlidingWindow: 8 * time.Hour, MaxLifetime: 24 * time.Hour})
	_, cookie := f.issue(t)

	sealer, err := session.NewSealer(testSecret, session.WithSealerClock(f.clock.Now))
	require.NoError(t, err)
	m := session.NewManager(session.Config{SlidingWindow: 8 * time.Hour, MaxLifetime: 24 * time.Hour},
		sealer, &revokingStore{Store: f.store}, session.WithClock(f.clock.Now))

	f.clock.Advance(5 * time.Hour)
	w := httptest.NewRecorder()
	_, err = m.Authenticate(context.Background(), w, requestWith(cookie))
	assert.ErrorIs(t, err, session.ErrSessionRevoked)
	assert.Empty(t, w.Result().Cookies(), "no renewed cookie for a revoked session")
	assert.Equal(t, 0, f.store.Len())

	_, err = m.Authenticate(context.Background(), httptest.NewRecorder(), requestWith(cookie))
	assert.ErrorIs(t, err, session.ErrSessionRevoked)
	assert.Equal(t, 0, f.store.Len())
}

func TestAuthenticateStoreUnavailable(t *testing.T) {
	f := newFixture(t, session.Config{})
	_, cookie := f.issue(t)

	sealer, err := session.NewSealer(testSecret, session.WithSealerClock(f.clock.Now))
	require.NoError(t, err)
	m := session.NewManager(session.Config{}, sealer, brokenStore{Store: f.store}, session.WithClock(f.clock.Now))

	_, err = m.Authenticate(context.Background(), httptest.NewRecorder(), requestWith(cookie))
	assert.ErrorIs(t, err, session.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestConfigDefaults(t *testing.T) {
	f := newFixture(t, session.Config{SlidingWindow: 48 * time.Hour, MaxLifetime: 24 * time.Hour})
	cfg := f.manager.Config()
	assert.Equal(t, session.DefaultCookieName, cfg.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.SlidingWindow)
}
