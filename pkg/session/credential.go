// Package session turns a one-time Kerberos authentication into a durable,
// cookie-carried session credential.
//
// A Credential is sealed into an HS256 JWT (Sealer) and sent as an HttpOnly
// cookie. A server-side Store keeps the authoritative record so that a
// credential can be revoked at logout and its sliding expiry tracked.
//
// Expiry rules:
//   - ExpiresAt slides forward on use, by at most SlidingWindow from now.
//   - ExpiresAt never moves past AbsoluteExpiry (IssuedAt + MaxLifetime).
//   - A credential whose ExpiresAt has passed is never renewed.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/kerbgate/pkg/auth"
)

// Credential is the durable artifact issued after a successful login.
type Credential struct {
	// ID identifies the server-side record (UUID v4).
	ID string `json:"id"`

	// Principal is the authenticated client principal ("alice@EXAMPLE.COM").
	Principal string `json:"principal"`

	// AuthenticationType is the scheme that originally authenticated the
	// client ("Negotiate").
	AuthenticationType string `json:"auth_type"`

	// Claims are copied from the validated identity, order preserved.
	Claims []auth.Claim `json:"claims"`

	IssuedAt       time.Time `json:"issued_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	AbsoluteExpiry time.Time `json:"absolute_expiry"`
}

// NewCredential creates a credential for id issued at now. ExpiresAt is
// now+window, capped at now+maxLifetime.
func NewCredential(id *auth.Identity, now time.Time, window, maxLifetime time.Duration) *Credential {
	c := &Credential{
		ID:                 uuid.NewString(),
		Principal:          id.Principal,
		AuthenticationType: id.AuthenticationType,
		Claims:             append([]auth.Claim(nil), id.Claims...),
		IssuedAt:           now,
		AbsoluteExpiry:     now.Add(maxLifetime),
	}
	c.ExpiresAt = minTime(now.Add(window), c.AbsoluteExpiry)
	return c
}

// Expired reports whether the credential is no longer usable at now.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Renew slides ExpiresAt to min(now+window, AbsoluteExpiry). It returns false
// and leaves the credential unchanged when the credential has already expired
// or the new expiry would not be later than the current one.
func (c *Credential) Renew(now time.Time, window time.Duration) bool {
	if c.Expired(now) {
		return false
	}
	next := minTime(now.Add(window), c.AbsoluteExpiry)
	if !next.After(c.ExpiresAt) {
		return false
	}
	c.ExpiresAt = next
	return true
}

// Identity reconstructs the authenticated identity carried by the credential.
func (c *Credential) Identity() *auth.Identity {
	return &auth.Identity{
		Principal:          c.Principal,
		AuthenticationType: c.AuthenticationType,
		Claims:             append([]auth.Claim(nil), c.Claims...),
	}
}

// Clone returns a deep copy.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Claims = append([]auth.Claim(nil), c.Claims...)
	return &cp
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
