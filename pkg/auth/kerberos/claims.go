package kerberos

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/jcmturner/gokrb5/v8/credentials"

	"github.com/marmos91/kerbgate/pkg/auth"
	"github.com/marmos91/kerbgate/pkg/auth/sid"
)

type claimsInput struct {
	CName      string
	Realm      string
	Service    string
	AuthTime   time.Time
	ValidUntil time.Time
	AD         *credentials.ADCredentials
}

// buildClaims emits claims in a fixed order:
//
//	name, principal, realm, service, auth_time, valid_until,
//	display_name, logon_domain, group_sid (sorted), group (same order)
//
// PAC-derived claims are omitted when the ticket has no PAC.
func buildClaims(in claimsInput) []auth.Claim {
	claims := []auth.Claim{
		{Type: auth.ClaimName, Value: in.CName + "@" + in.Realm},
		{Type: auth.ClaimPrincipal, Value: in.CName},
		{Type: auth.ClaimRealm, Value: in.Realm},
		{Type: auth.ClaimService, Value: in.Service},
	}
	if !in.AuthTime.IsZero() {
		claims = append(claims, auth.Claim{Type: auth.ClaimAuthTime, Value: in.AuthTime.UTC().Format(time.RFC3339)})
	}
	if !in.ValidUntil.IsZero() {
		claims = append(claims, auth.Claim{Type: auth.ClaimValidUntil, Value: in.ValidUntil.UTC().Format(time.RFC3339)})
	}

	if in.AD == nil {
		return claims
	}
	return append(claims, pacClaims(in.AD)...)
}

func pacClaims(ad *credentials.ADCredentials) []auth.Claim {
	var claims []auth.Claim
	if ad.FullName != "" {
		claims = append(claims, auth.Claim{Type: auth.ClaimDisplayName, Value: ad.FullName})
	}
	if ad.LogonDomainName != "" {
		claims = append(claims, auth.Claim{Type: auth.ClaimLogonDomain, Value: ad.LogonDomainName})
	}

	sids := append([]string(nil), ad.GroupMembershipSIDs...)
	sort.Strings(sids)

	var names []auth.Claim
	for _, s := range sids {
		claims = append(claims, auth.Claim{Type: auth.ClaimGroupSID, Value: s})

		parsed, err := sid.Parse(s)
		if err != nil {
			continue
		}
		if name, ok := sid.WellKnownName(parsed, ad.LogonDomainName); ok {
			names = append(names, auth.Claim{Type: auth.ClaimGroup, Value: name})
		}
	}
	return append(claims, names...)
}

// ClaimsJSON renders an identity's claims for diagnostic logging. It never
// modifies the identity.
func ClaimsJSON(id *auth.Identity) string {
	if id == nil || len(id.Claims) == 0 {
		return "[]"
	}
	b, err := json.Marshal(id.Claims)
	if err != nil {
		return "[]"
	}
	return string(b)
}
