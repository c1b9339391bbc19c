package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marmos91/kerbgate/pkg/auth"
)

// Sealer errors.
var (
	ErrInvalidToken        = errors.New("session: invalid token")
	ErrExpiredToken        = errors.New("session: token has expired")
	ErrTokenSigningFailed  = errors.New("session: failed to sign token")
	ErrInvalidSecretLength = errors.New("session: secret must be at least 32 characters")
)

const (
	defaultIssuer = "kerbgate"
	audience      = "kerbgate-session"
)

// sealedClaims is the JWT payload of a session cookie.
type sealedClaims struct {
	jwt.RegisteredClaims

	AuthType       string       `json:"auth_type"`
	Claims         []auth.Claim `json:"claims,omitempty"`
	AbsoluteExpiry int64        `json:"abs_exp"`
}

// Sealer seals credentials into HS256-signed JWTs and opens them again.
//
// The token is integrity protected, not encrypted: claims are readable by the
// client. Revocation is enforced by the Store, not by the token.
type Sealer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// SealerOption configures a Sealer.
type SealerOption func(*Sealer)

// WithIssuer overrides the "iss" claim. Default: "kerbgate".
func WithIssuer(issuer string) SealerOption {
	return func(s *Sealer) {
		s.issuer = issuer
	}
}

// WithSealerClock sets the clock used to validate "exp".
func WithSealerClock(now func() time.Time) SealerOption {
	return func(s *Sealer) {
		s.now = now
	}
}

// NewSealer creates a sealer. secret must be at least 32 characters.
func NewSealer(secret string, opts ...SealerOption) (*Sealer, error) {
	if len(secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	s := &Sealer{
		secret: []byte(secret),
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Seal signs c into a compact JWT whose "exp" is c.ExpiresAt.
func (s *Sealer) Seal(c *Credential) (string, error) {
	claims := &sealedClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        c.ID,
			Issuer:    s.issuer,
			Subject:   c.Principal,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
		AuthType:       c.AuthenticationType,
		Claims:         c.Claims,
		AbsoluteExpiry: c.AbsoluteExpiry.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenSigningFailed, err)
	}
	return signed, nil
}

// Open verifies the signature, issuer, audience and expiry of token and
// returns the credential it carries.
func (s *Sealer) Open(token string) (*Credential, error) {
	parsed, err := jwt.ParseWithClaims(token, &sealedClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*sealedClaims)
	if !ok || !parsed.Valid || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	c := &Credential{
		ID:                 claims.ID,
		Principal:          claims.Subject,
		AuthenticationType: claims.AuthType,
		Claims:             claims.Claims,
		AbsoluteExpiry:     time.Unix(claims.AbsoluteExpiry, 0),
	}
	if claims.IssuedAt != nil {
		c.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		c.ExpiresAt = claims.ExpiresAt.Time
	}
	return c, nil
}
