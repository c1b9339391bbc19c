package auth

// Well-known claim types. Claims are ordered; producers emit them in a stable
// order so that dumps and session payloads are deterministic.
const (
	ClaimName        = "name"
	ClaimPrincipal   = "principal"
	ClaimRealm       = "realm"
	ClaimService     = "service"
	ClaimAuthTime    = "auth_time"
	ClaimValidUntil  = "valid_until"
	ClaimDisplayName = "display_name"
	ClaimLogonDomain = "logon_domain"
	ClaimGroupSID    = "group_sid"
	ClaimGroup       = "group"
)

// Claim is a single typed assertion about an authenticated principal.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Identity is the product of a successful authentication.
//
// Principal is never empty for a valid Identity. Identities are treated as
// immutable once produced; use Clone before modifying.
type Identity struct {
	// Principal is the client principal, "name@REALM".
	Principal string `json:"principal"`

	// AuthenticationType is the scheme that produced the identity ("Negotiate").
	AuthenticationType string `json:"auth_type"`

	// Claims are ordered by their producer.
	Claims []Claim `json:"claims"`
}

// Name returns the value of the first "name" claim, falling back to Principal.
func (id *Identity) Name() string {
	if id == nil {
		return ""
	}
	if v, ok := id.FirstClaim(ClaimName); ok {
		return v
	}
	return id.Principal
}

// FirstClaim returns the value of the first claim of the given type.
func (id *Identity) FirstClaim(claimType string) (string, bool) {
	if id == nil {
		return "", false
	}
	for _, c := range id.Claims {
		if c.Type == claimType {
			return c.Value, true
		}
	}
	return "", false
}

// ClaimValues returns every value of the given claim type, in order.
func (id *Identity) ClaimValues(claimType string) []string {
	if id == nil {
		return nil
	}
	var out []string
	for _, c := range id.Claims {
		if c.Type == claimType {
			out = append(out, c.Value)
		}
	}
	return out
}

// Clone returns a deep copy of the identity.
func (id *Identity) Clone() *Identity {
	if id == nil {
		return nil
	}
	c := *id
	c.Claims = append([]Claim(nil), id.Claims...)
	return &c
}
