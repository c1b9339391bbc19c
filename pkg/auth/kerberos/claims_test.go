package kerberos

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/kerbgate/pkg/auth"
)

func TestBuildClaims_PACOrdering(t *testing.T) {
	authTime := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	claims := buildClaims(claimsInput{
		CName:      "alice",
		Realm:      "EXAMPLE.COM",
		Service:    "HTTP/www.example.com@EXAMPLE.COM",
		AuthTime:   authTime,
		ValidUntil: authTime.Add(10 * time.Hour),
		AD: &credentials.ADCredentials{
			FullName:        "Alice Example",
			LogonDomainName: "EXAMPLE",
			GroupMembershipSIDs: []string{
				"S-1-5-21-1-2-3-513",
				"S-1-5-21-1-2-3-1104",
				"S-1-5-21-1-2-3-512",
			},
		},
	})

	want := []auth.Claim{
		{Type: auth.ClaimName, Value: "alice@EXAMPLE.COM"},
		{Type: auth.ClaimPrincipal, Value: "alice"},
		{Type: auth.ClaimRealm, Value: "EXAMPLE.COM"},
		{Type: auth.ClaimService, Value: "HTTP/www.example.com@EXAMPLE.COM"},
		{Type: auth.ClaimAuthTime, Value: "2026-01-02T03:04:05Z"},
		{Type: auth.ClaimValidUntil, Value: "2026-01-02T13:04:05Z"},
		{Type: auth.ClaimDisplayName, Value: "Alice Example"},
		{Type: auth.ClaimLogonDomain, Value: "EXAMPLE"},
		{Type: auth.ClaimGroupSID, Value: "S-1-5-21-1-2-3-1104"},
		{Type: auth.ClaimGroupSID, Value: "S-1-5-21-1-2-3-512"},
		{Type: auth.ClaimGroupSID, Value: "S-1-5-21-1-2-3-513"},
		{Type: auth.ClaimGroup, Value: "EXAMPLE\\Domain Admins"},
		{Type: auth.ClaimGroup, Value: "EXAMPLE\\Domain Users"},
	}
	assert.Equal(t, want, claims)
}

func TestBuildClaims_Deterministic(t *testing.T) {
	in := claimsInput{
		CName: "alice",
		Realm: "EXAMPLE.COM",
		AD:    &credentials.ADCredentials{GroupMembershipSIDs: []string{"S-1-5-32-545", "S-1-1-0", "garbage"}},
	}
	first := buildClaims(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, buildClaims(in))
	}
}

func TestClaimsJSON(t *testing.T) {
	id := &auth.Identity{
		Principal: "alice@EXAMPLE.COM",
		Claims:    []auth.Claim{{Type: auth.ClaimName, Value: "alice@EXAMPLE.COM"}},
	}
	before := id.Clone()

	var decoded []auth.Claim
	require.NoError(t, json.Unmarshal([]byte(ClaimsJSON(id)), &decoded))
	assert.Equal(t, id.Claims, decoded)
	assert.Equal(t, before, id)

	assert.Equal(t, "[]", ClaimsJSON(nil))
}
