// Package sid provides Windows Security Identifier (SID) parsing and naming
// for group memberships carried in a Kerberos PAC.
//
// The string format is "S-{Revision}-{Authority}-{SubAuth1}-...-{SubAuthN}".
// Domain SIDs end in a relative identifier (RID) that names a principal
// within the domain, e.g. S-1-5-21-x-y-z-512 is the domain's Domain Admins.
package sid

import (
	"fmt"
	"strconv"
	"strings"
)

// maxSubAuthorities is the MS-DTYP limit on sub-authority values.
const maxSubAuthorities = 15

// SID represents a Windows Security Identifier per MS-DTYP Section 2.4.2.
type SID struct {
	// Revision is always 1.
	Revision uint8

	// Authority is the 48-bit identifier authority.
	Authority uint64

	// SubAuthorities contains the sub-authority values.
	SubAuthorities []uint32
}

// Parse parses a SID string in "S-1-5-21-..." format.
func Parse(s string) (*SID, error) {
	if !strings.HasPrefix(s, "S-") {
		return nil, fmt.Errorf("invalid SID format: must start with S-")
	}

	parts := strings.Split(s[2:], "-")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid SID format: need at least revision and authority")
	}
	if len(parts)-2 > maxSubAuthorities {
		return nil, fmt.Errorf("invalid SID format: %d sub-authorities exceeds %d", len(parts)-2, maxSubAuthorities)
	}

	revision, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid SID revision: %w", err)
	}
	if revision != 1 {
		return nil, fmt.Errorf("unsupported SID revision %d", revision)
	}

	authority, err := strconv.ParseUint(parts[1], 10, 48)
	if err != nil {
		return nil, fmt.Errorf("invalid SID authority: %w", err)
	}

	sid := &SID{
		Revision:       uint8(revision),
		Authority:      authority,
		SubAuthorities: make([]uint32, len(parts)-2),
	}
	for i, p := range parts[2:] {
		val, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid SID sub-authority %d: %w", i, err)
		}
		sid.SubAuthorities[i] = uint32(val)
	}

	return sid, nil
}

// MustParse parses a SID string and panics on error. Used for well-known SIDs.
func MustParse(s string) *SID {
	sid, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("invalid well-known SID %q: %v", s, err))
	}
	return sid
}

// String formats the SID in canonical "S-1-5-21-..." form.
func (s *SID) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "S-%d-%d", s.Revision, s.Authority)
	for _, sa := range s.SubAuthorities {
		fmt.Fprintf(&b, "-%d", sa)
	}
	return b.String()
}

// IsDomainRelative reports whether the SID is an NT domain account SID
// (S-1-5-21-a-b-c-RID).
func (s *SID) IsDomainRelative() bool {
	return s.Authority == 5 && len(s.SubAuthorities) == 5 && s.SubAuthorities[0] == 21
}

// RID returns the relative identifier (last sub-authority).
func (s *SID) RID() (uint32, bool) {
	if len(s.SubAuthorities) == 0 {
		return 0, false
	}
	return s.SubAuthorities[len(s.SubAuthorities)-1], true
}

// Domain returns the SID with the trailing RID removed.
func (s *SID) Domain() *SID {
	if len(s.SubAuthorities) == 0 {
		return s
	}
	return &SID{
		Revision:       s.Revision,
		Authority:      s.Authority,
		SubAuthorities: append([]uint32(nil), s.SubAuthorities[:len(s.SubAuthorities)-1]...),
	}
}

// Equal reports whether two SIDs are identical.
func (s *SID) Equal(other *SID) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if s.Revision != other.Revision || s.Authority != other.Authority {
		return false
	}
	if len(s.SubAuthorities) != len(other.SubAuthorities) {
		return false
	}
	for i := range s.SubAuthorities {
		if s.SubAuthorities[i] != other.SubAuthorities[i] {
			return false
		}
	}
	return true
}
