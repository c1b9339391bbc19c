package kerberos

import (
	"bytes"
	"fmt"

	"github.com/jcmturner/gofork/encoding/asn1"
	"github.com/jcmturner/gokrb5/v8/messages"
	"github.com/jcmturner/gokrb5/v8/spnego"

	"github.com/marmos91/kerbgate/pkg/auth"
)

// Well-known mechanism OIDs seen in Negotiate tokens.
var (
	// OIDMSKerberosV5 is Microsoft's Kerberos 5 OID (1.2.840.48018.1.2.2).
	// Windows clients list it first in NegTokenInit.
	OIDMSKerberosV5 = asn1.ObjectIdentifier{1, 2, 840, 48018, 1, 2, 2}

	// OIDKerberosV5 is the standard Kerberos 5 OID (1.2.840.113554.1.2.2).
	OIDKerberosV5 = asn1.ObjectIdentifier{1, 2, 840, 113554, 1, 2, 2}

	// OIDNTLMSSP is the NTLM Security Support Provider OID (1.3.6.1.4.1.311.2.2.10).
	OIDNTLMSSP = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 311, 2, 2, 10}

	// OIDSPNEGO is the SPNEGO mechanism OID (1.3.6.1.5.5.2).
	OIDSPNEGO = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 2}
)

// TokenKind identifies the framing a Negotiate token arrived in.
type TokenKind string

const (
	// TokenSPNEGO is a GSS-API token carrying a SPNEGO NegTokenInit.
	TokenSPNEGO TokenKind = "spnego"
	// TokenGSSKrb5 is a GSS-API krb5 initial context token (RFC 4121 4.1).
	TokenGSSKrb5 TokenKind = "gss-krb5"
	// TokenAPReq is a bare KRB_AP_REQ.
	TokenAPReq TokenKind = "ap-req"
)

const (
	tagGSSInitial = 0x60 // [APPLICATION 0]
	tagAPReq      = 0x6E // [APPLICATION 14]
	tagNegResp    = 0xA1 // NegTokenResp
)

var ntlmSignature = []byte("NTLMSSP\x00")

// ParseToken extracts the AP-REQ from a decoded Negotiate token.
//
// Accepted framings, outermost first:
//   - SPNEGO NegTokenInit offering Kerberos, whose mech token is either of the below
//   - GSS-API krb5 initial context token (0x60, krb5 OID, token id 0x0100)
//   - raw AP-REQ (0x6E)
//
// NTLM tokens and SPNEGO offers without a Kerberos mechanism fail with a
// *ValidationError wrapping auth.ErrUnsupportedMechanism.
func ParseToken(b []byte) (*messages.APReq, TokenKind, error) {
	if len(b) < 2 {
		return nil, "", validationErr("token too short", auth.ErrInvalidCredentials)
	}
	if bytes.HasPrefix(b, ntlmSignature) {
		return nil, "", validationErr("unsupported mechanism: NTLM", auth.ErrUnsupportedMechanism)
	}

	switch b[0] {
	case tagAPReq:
		apReq, err := unmarshalAPReq(b)
		return apReq, TokenAPReq, err
	case tagNegResp:
		return nil, "", validationErr("unexpected SPNEGO response token", auth.ErrInvalidCredentials)
	case tagGSSInitial:
	default:
		return nil, "", validationErr(fmt.Sprintf("unrecognized token tag 0x%02x", b[0]), auth.ErrInvalidCredentials)
	}

	oid, err := gssMechanism(b)
	if err != nil {
		return nil, "", validationErr("malformed GSS-API token", err)
	}

	switch {
	case oid.Equal(OIDSPNEGO):
		apReq, err := parseSPNEGO(b)
		return apReq, TokenSPNEGO, err
	case oid.Equal(OIDKerberosV5), oid.Equal(OIDMSKerberosV5):
		apReq, err := parseKRB5Token(b)
		return apReq, TokenGSSKrb5, err
	default:
		return nil, "", validationErr("unsupported mechanism: "+oid.String(), auth.ErrUnsupportedMechanism)
	}
}

// gssMechanism returns the mechanism OID of a GSS-API initial context token.
func gssMechanism(b []byte) (asn1.ObjectIdentifier, error) {
	var oid asn1.ObjectIdentifier
	if _, err := asn1.UnmarshalWithParams(b, &oid, "application,explicit,tag:0"); err != nil {
		return nil, err
	}
	return oid, nil
}

func parseSPNEGO(b []byte) (*messages.APReq, error) {
	var tok spnego.SPNEGOToken
	if err := tok.Unmarshal(b); err != nil {
		return nil, validationErr("malformed SPNEGO token", err)
	}
	if !tok.Init {
		return nil, validationErr("unexpected SPNEGO response token", auth.ErrInvalidCredentials)
	}

	neg := tok.NegTokenInit
	if !offersKerberos(neg.MechTypes) {
		return nil, validationErr("unsupported mechanism: no Kerberos in SPNEGO offer", auth.ErrUnsupportedMechanism)
	}

	mech := neg.MechTokenBytes
	switch {
	case len(mech) == 0:
		return nil, validationErr("SPNEGO offer carries no mechanism token", auth.ErrInvalidCredentials)
	case bytes.HasPrefix(mech, ntlmSignature):
		return nil, validationErr("unsupported mechanism: NTLM", auth.ErrUnsupportedMechanism)
	case mech[0] == tagAPReq:
		return unmarshalAPReq(mech)
	default:
		return parseKRB5Token(mech)
	}
}

func offersKerberos(mechs []asn1.ObjectIdentifier) bool {
	for _, m := range mechs {
		if m.Equal(OIDKerberosV5) || m.Equal(OIDMSKerberosV5) {
			return true
		}
	}
	return false
}

func parseKRB5Token(b []byte) (*messages.APReq, error) {
	var tok spnego.KRB5Token
	if err := tok.Unmarshal(b); err != nil {
		return nil, validationErr("malformed krb5 mechanism token", err)
	}
	if !tok.IsAPReq() {
		return nil, validationErr("krb5 mechanism token is not an AP-REQ", auth.ErrInvalidCredentials)
	}
	apReq := tok.APReq
	return &apReq, nil
}

func unmarshalAPReq(b []byte) (*messages.APReq, error) {
	var apReq messages.APReq
	if err := apReq.Unmarshal(b); err != nil {
		return nil, validationErr("malformed AP-REQ", err)
	}
	return &apReq, nil
}
