// Package krbtest builds keytabs and Negotiate tokens for tests.
//
// Tickets are minted locally with the service key, so no KDC is needed. The
// helpers fail the test on any error.
package krbtest

import (
	"crypto/rand"
	"encoding/base64"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jcmturner/gofork/encoding/asn1"
	"github.com/jcmturner/gokrb5/v8/asn1tools"
	"github.com/jcmturner/gokrb5/v8/crypto"
	"github.com/jcmturner/gokrb5/v8/iana"
	"github.com/jcmturner/gokrb5/v8/iana/asnAppTag"
	"github.com/jcmturner/gokrb5/v8/iana/etypeID"
	"github.com/jcmturner/gokrb5/v8/iana/keyusage"
	"github.com/jcmturner/gokrb5/v8/iana/nametype"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/messages"
	"github.com/jcmturner/gokrb5/v8/spnego"
	"github.com/jcmturner/gokrb5/v8/types"
)

// Defaults used by the helpers.
const (
	Service  = "HTTP/www.example.com"
	Realm    = "EXAMPLE.COM"
	Password = "test-password"
	EType    = etypeID.AES256_CTS_HMAC_SHA1_96
	KVNO     = 1
)

var (
	oidKerberosV5 = asn1.ObjectIdentifier{1, 2, 840, 113554, 1, 2, 2}
	oidNTLMSSP    = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 311, 2, 2, 10}
)

// NewKeytab returns a keytab holding one key for Service@Realm derived from
// password.
func NewKeytab(t testing.TB, password string) *keytab.Keytab {
	t.Helper()

	kt := keytab.New()
	if err := kt.AddEntry(Service, Realm, password, time.Now(), KVNO, EType); err != nil {
		t.Fatalf("add keytab entry: %v", err)
	}
	return kt
}

// WriteKeytab marshals kt into dir and returns the file path.
func WriteKeytab(t testing.TB, dir string, kt *keytab.Keytab) string {
	t.Helper()

	data, err := kt.Marshal()
	if err != nil {
		t.Fatalf("marshal test keytab: %v", err)
	}
	path := filepath.Join(dir, "http.keytab")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write test keytab: %v", err)
	}
	return path
}

// Ticket describes the AP-REQ to mint. Zero times default to a ticket valid
// from one minute ago for one hour, with the authenticator stamped now.
type Ticket struct {
	Client    string
	StartTime time.Time
	EndTime   time.Time
	CTime     time.Time
	Tamper    bool     // corrupt the encrypted ticket part
	CAddr     []net.IP // bind the ticket to these client addresses
}

// APReq mints a raw AP-REQ for tkt, encrypted under the service key in kt.
func APReq(t testing.TB, kt *keytab.Keytab, tkt Ticket) []byte {
	t.Helper()

	now := time.Now().UTC()
	if tkt.Client == "" {
		tkt.Client = "alice"
	}
	if tkt.StartTime.IsZero() {
		tkt.StartTime = now.Add(-time.Minute)
	}
	if tkt.EndTime.IsZero() {
		tkt.EndTime = now.Add(time.Hour)
	}

	cname := types.NewPrincipalName(nametype.KRB_NT_PRINCIPAL, tkt.Client)
	sname := types.NewPrincipalName(nametype.KRB_NT_SRV_INST, Service)

	ticket, sessionKey := newTicket(t, kt, cname, sname, tkt)
	if tkt.Tamper {
		ticket.EncPart.Cipher[len(ticket.EncPart.Cipher)/2] ^= 0xff
	}

	authenticator, err := types.NewAuthenticator(Realm, cname)
	if err != nil {
		t.Fatalf("create authenticator: %v", err)
	}
	if !tkt.CTime.IsZero() {
		authenticator.CTime = tkt.CTime
	}

	apReq, err := messages.NewAPReq(ticket, sessionKey, authenticator)
	if err != nil {
		t.Fatalf("create AP-REQ: %v", err)
	}
	b, err := apReq.Marshal()
	if err != nil {
		t.Fatalf("marshal AP-REQ: %v", err)
	}
	return b
}

// newTicket encrypts a service ticket under the keytab key. It mirrors
// messages.NewTicket but can fill in the client address list.
func newTicket(t testing.TB, kt *keytab.Keytab, cname, sname types.PrincipalName, tkt Ticket) (messages.Ticket, types.EncryptionKey) {
	t.Helper()

	if len(tkt.CAddr) == 0 {
		ticket, sessionKey, err := messages.NewTicket(cname, Realm, sname, Realm,
			types.NewKrbFlags(), kt, EType, KVNO, tkt.StartTime, tkt.StartTime, tkt.EndTime, tkt.EndTime)
		if err != nil {
			t.Fatalf("create ticket: %v", err)
		}
		return ticket, sessionKey
	}

	et, err := crypto.GetEtype(EType)
	if err != nil {
		t.Fatalf("get etype: %v", err)
	}
	kv := make([]byte, et.GetKeyByteSize())
	if _, err := rand.Read(kv); err != nil {
		t.Fatalf("generate session key: %v", err)
	}
	sessionKey := types.EncryptionKey{KeyType: EType, KeyValue: kv}

	addrs := make([]types.HostAddress, 0, len(tkt.CAddr))
	for _, ip := range tkt.CAddr {
		addrs = append(addrs, types.HostAddressFromNetIP(ip))
	}
	part := messages.EncTicketPart{
		Flags:     types.NewKrbFlags(),
		Key:       sessionKey,
		CRealm:    Realm,
		CName:     cname,
		Transited: messages.TransitedEncoding{},
		AuthTime:  tkt.StartTime,
		StartTime: tkt.StartTime,
		EndTime:   tkt.EndTime,
		RenewTill: tkt.EndTime,
		CAddr:     addrs,
	}
	b, err := asn1.Marshal(part)
	if err != nil {
		t.Fatalf("marshal ticket part: %v", err)
	}
	b = asn1tools.AddASNAppTag(b, asnAppTag.EncTicketPart)

	serviceKey, _, err := kt.GetEncryptionKey(sname, Realm, KVNO, EType)
	if err != nil {
		t.Fatalf("service key: %v", err)
	}
	encPart, err := crypto.GetEncryptedData(b, serviceKey, keyusage.KDC_REP_TICKET, KVNO)
	if err != nil {
		t.Fatalf("encrypt ticket part: %v", err)
	}
	return messages.Ticket{
		TktVNO:  iana.PVNO,
		Realm:   Realm,
		SName:   sname,
		EncPart: encPart,
	}, sessionKey
}

// GSSKrb5 wraps an AP-REQ in a GSS-API krb5 initial context token.
func GSSKrb5(t testing.TB, apReq []byte) []byte {
	t.Helper()

	b, err := asn1.Marshal(oidKerberosV5)
	if err != nil {
		t.Fatalf("marshal krb5 OID: %v", err)
	}
	b = append(b, 0x01, 0x00)
	b = append(b, apReq...)
	return asn1tools.AddASNAppTag(b, 0)
}

// SPNEGO wraps mechToken in a SPNEGO NegTokenInit offering Kerberos.
func SPNEGO(t testing.TB, mechToken []byte) []byte {
	t.Helper()
	return spnegoInit(t, []asn1.ObjectIdentifier{oidKerberosV5}, mechToken)
}

// SPNEGONTLMOnly builds a NegTokenInit that offers only NTLM.
func SPNEGONTLMOnly(t testing.TB) []byte {
	t.Helper()
	return spnegoInit(t, []asn1.ObjectIdentifier{oidNTLMSSP}, []byte("NTLMSSP\x00\x01\x00\x00\x00"))
}

func spnegoInit(t testing.TB, mechs []asn1.ObjectIdentifier, mechToken []byte) []byte {
	t.Helper()

	tok := spnego.SPNEGOToken{
		Init: true,
		NegTokenInit: spnego.NegTokenInit{
			MechTypes:      mechs,
			MechTokenBytes: mechToken,
		},
	}
	b, err := tok.Marshal()
	if err != nil {
		t.Fatalf("marshal SPNEGO token: %v", err)
	}
	return b
}

// Header returns an Authorization header value carrying token.
func Header(token []byte) string {
	return "Negotiate " + base64.StdEncoding.EncodeToString(token)
}
