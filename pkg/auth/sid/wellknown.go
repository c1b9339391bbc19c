package sid

// Well-known SIDs that commonly appear in PAC group memberships.
var (
	// WellKnownEveryone is the "Everyone" (World) SID: S-1-1-0.
	WellKnownEveryone = MustParse("S-1-1-0")

	// WellKnownAuthenticatedUsers is NT AUTHORITY\Authenticated Users: S-1-5-11.
	WellKnownAuthenticatedUsers = MustParse("S-1-5-11")

	// WellKnownAdministrators is BUILTIN\Administrators: S-1-5-32-544.
	WellKnownAdministrators = MustParse("S-1-5-32-544")

	// WellKnownUsers is BUILTIN\Users: S-1-5-32-545.
	WellKnownUsers = MustParse("S-1-5-32-545")
)

var wellKnownNames = map[string]string{
	"S-1-1-0":      "Everyone",
	"S-1-2-0":      "LOCAL",
	"S-1-5-2":      "NT AUTHORITY\\NETWORK",
	"S-1-5-4":      "NT AUTHORITY\\INTERACTIVE",
	"S-1-5-7":      "NT AUTHORITY\\ANONYMOUS LOGON",
	"S-1-5-11":     "NT AUTHORITY\\Authenticated Users",
	"S-1-5-15":     "NT AUTHORITY\\This Organization",
	"S-1-5-18":     "NT AUTHORITY\\SYSTEM",
	"S-1-5-32-544": "BUILTIN\\Administrators",
	"S-1-5-32-545": "BUILTIN\\Users",
	"S-1-5-32-546": "BUILTIN\\Guests",
	"S-1-18-1":     "Authentication authority asserted identity",
	"S-1-18-2":     "Service asserted identity",
}

// Domain-relative RIDs from MS-DTYP 2.4.2.4.
var domainRIDNames = map[uint32]string{
	500: "Administrator",
	501: "Guest",
	502: "krbtgt",
	512: "Domain Admins",
	513: "Domain Users",
	514: "Domain Guests",
	515: "Domain Computers",
	516: "Domain Controllers",
	518: "Schema Admins",
	519: "Enterprise Admins",
	520: "Group Policy Creator Owners",
	525: "Protected Users",
}

// WellKnownName returns the display name for a well-known SID or for a
// well-known RID within any domain. domain is prefixed to domain RID names
// when non-empty ("EXAMPLE\\Domain Admins").
func WellKnownName(s *SID, domain string) (string, bool) {
	if s == nil {
		return "", false
	}
	if name, ok := wellKnownNames[s.String()]; ok {
		return name, true
	}
	if !s.IsDomainRelative() {
		return "", false
	}
	rid, _ := s.RID()
	name, ok := domainRIDNames[rid]
	if !ok {
		return "", false
	}
	if domain != "" {
		return domain + "\\" + name, true
	}
	return name, true
}
