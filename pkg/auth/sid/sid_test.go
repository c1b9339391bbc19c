package sid

import "testing"

func TestParseRoundTrip(t *testing.T) {
	tests := []string{
		"S-1-1-0",
		"S-1-5-11",
		"S-1-5-32-544",
		"S-1-5-21-3623811015-3361044348-30300820-1013",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			parsed, err := Parse(s)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", s, err)
			}
			if got := parsed.String(); got != s {
				t.Errorf("String() = %q, want %q", got, s)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"NoPrefix", "1-5-32"},
		{"OnlyRevision", "S-1"},
		{"BadRevision", "S-x-5"},
		{"UnsupportedRevision", "S-2-5"},
		{"BadAuthority", "S-1-z"},
		{"BadSubAuthority", "S-1-5-abc"},
		{"SubAuthorityOverflow", "S-1-5-4294967296"},
		{"TooManySubAuthorities", "S-1-5-1-2-3-4-5-6-7-8-9-10-11-12-13-14-15-16"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.input); err == nil {
				t.Errorf("Parse(%q) should fail", tt.input)
			}
		})
	}
}

func TestDomainRelative(t *testing.T) {
	s := MustParse("S-1-5-21-1-2-3-512")
	if !s.IsDomainRelative() {
		t.Fatal("expected domain-relative SID")
	}
	rid, ok := s.RID()
	if !ok || rid != 512 {
		t.Errorf("RID() = %d, %v", rid, ok)
	}
	if got := s.Domain().String(); got != "S-1-5-21-1-2-3" {
		t.Errorf("Domain() = %q", got)
	}
	if WellKnownAdministrators.IsDomainRelative() {
		t.Error("BUILTIN\\Administrators is not domain relative")
	}
}

func TestEqual(t *testing.T) {
	a := MustParse("S-1-5-32-544")
	if !a.Equal(WellKnownAdministrators) {
		t.Error("equal SIDs reported unequal")
	}
	if a.Equal(WellKnownUsers) {
		t.Error("different SIDs reported equal")
	}
	var nilSID *SID
	if a.Equal(nilSID) || !nilSID.Equal(nil) {
		t.Error("nil handling mismatch")
	}
}

func TestWellKnownName(t *testing.T) {
	tests := []struct {
		sid    string
		domain string
		want   string
		ok     bool
	}{
		{"S-1-1-0", "", "Everyone", true},
		{"S-1-5-32-544", "EXAMPLE", "BUILTIN\\Administrators", true},
		{"S-1-5-21-1-2-3-512", "EXAMPLE", "EXAMPLE\\Domain Admins", true},
		{"S-1-5-21-1-2-3-513", "", "Domain Users", true},
		{"S-1-5-21-1-2-3-1104", "EXAMPLE", "", false},
		{"S-1-5-99", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.sid, func(t *testing.T) {
			got, ok := WellKnownName(MustParse(tt.sid), tt.domain)
			if ok != tt.ok || got != tt.want {
				t.Errorf("WellKnownName() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}

	if _, ok := WellKnownName(nil, ""); ok {
		t.Error("nil SID should not be well known")
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse should panic on invalid input")
		}
	}()
	MustParse("not-a-sid")
}
