package kerberos

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/service"
	"github.com/jcmturner/gokrb5/v8/types"
	"go.opentelemetry.io/otel/codes"

	"github.com/marmos91/kerbgate/internal/logger"
	"github.com/marmos91/kerbgate/internal/telemetry"
	"github.com/marmos91/kerbgate/pkg/auth"
)

// DefaultMaxClockSkew is the RFC 4120 recommended skew tolerance.
const DefaultMaxClockSkew = 5 * time.Minute

// SchemeNegotiate is the authentication type recorded on identities produced
// by this package.
const SchemeNegotiate = "Negotiate"

// Validator checks a Negotiate token against a keytab.
//
// Validate returns a non-nil Identity with a non-empty principal on success.
// On failure the identity is nil and the error is a *ValidationError or
// *SecurityError, or the context error if ctx was cancelled first.
type Validator interface {
	Validate(ctx context.Context, kt *keytab.Keytab, token []byte) (*auth.Identity, error)
}

// ValidatorConfig configures a Krb5Validator.
type ValidatorConfig struct {
	// ServicePrincipal selects the keytab principal used to decrypt tickets
	// ("HTTP/www.example.com@EXAMPLE.COM"). When empty the ticket's own
	// server name is looked up.
	ServicePrincipal string

	// MaxClockSkew bounds the difference between the client authenticator
	// time and the local clock.
	MaxClockSkew time.Duration

	// DecodePAC adds claims from the Microsoft PAC when the ticket carries one.
	DecodePAC bool

	// RequireHostAddr rejects tickets that carry no client addresses.
	RequireHostAddr bool
}

// Krb5Validator validates AP-REQs with gokrb5.
//
// Thread Safety: safe for concurrent use. Replay detection uses gokrb5's
// process-wide replay cache.
type Krb5Validator struct {
	cfg ValidatorConfig
}

// NewValidator creates a validator. A zero MaxClockSkew is replaced by
// DefaultMaxClockSkew.
func NewValidator(cfg ValidatorConfig) *Krb5Validator {
	if cfg.MaxClockSkew <= 0 {
		cfg.MaxClockSkew = DefaultMaxClockSkew
	}
	return &Krb5Validator{cfg: cfg}
}

// Config returns the effective configuration.
func (v *Krb5Validator) Config() ValidatorConfig {
	return v.cfg
}

// Validate decodes token, verifies the contained AP-REQ against kt and
// returns the client identity.
func (v *Krb5Validator) Validate(ctx context.Context, kt *keytab.Keytab, token []byte) (*auth.Identity, error) {
	if kt == nil {
		return nil, ErrKeytabUnavailable
	}

	ctx, span := telemetry.StartKerberosSpan(ctx, "validate", telemetry.TokenBytes(len(token)))
	defer span.End()

	apReq, kind, err := ParseToken(token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token parse failed")
		return nil, err
	}
	span.SetAttributes(telemetry.Mechanism(string(kind)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ok, creds, err := service.VerifyAPREQ(apReq, v.settings(ctx, kt))
	if err != nil {
		err = classify(err)
		if code, has := failureCode(err); has {
			span.SetAttributes(telemetry.KrbErrorCode(code))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "AP-REQ verification failed")
		return nil, err
	}
	if !ok || creds == nil {
		err := validationErr("ticket rejected", nil)
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}

	// The client principal comes from the decrypted ticket, which gokrb5 has
	// already checked against the authenticator.
	enc := apReq.Ticket.DecryptedEncPart
	cname := enc.CName.PrincipalNameString()
	if cname == "" || enc.CRealm == "" {
		return nil, validationErr("ticket carries no client principal", nil)
	}

	in := claimsInput{
		CName:      cname,
		Realm:      enc.CRealm,
		Service:    apReq.Ticket.SName.PrincipalNameString() + "@" + apReq.Ticket.Realm,
		AuthTime:   enc.AuthTime,
		ValidUntil: enc.EndTime,
	}
	if v.cfg.DecodePAC {
		ad := creds.GetADCredentials()
		in.AD = &ad
	}

	id := &auth.Identity{
		Principal:          cname + "@" + enc.CRealm,
		AuthenticationType: SchemeNegotiate,
		Claims:             buildClaims(in),
	}

	span.SetAttributes(telemetry.Principal(id.Principal), telemetry.KrbRealm(enc.CRealm))
	logger.DebugCtx(ctx, "AP-REQ verified",
		logger.KeyPrincipal, id.Principal,
		logger.KeyService, in.Service,
		logger.KeyMechanism, string(kind),
		logger.KeyEtype, apReq.Ticket.EncPart.EType,
	)
	return id, nil
}

func (v *Krb5Validator) settings(ctx context.Context, kt *keytab.Keytab) *service.Settings {
	opts := []func(*service.Settings){
		service.MaxClockSkew(v.cfg.MaxClockSkew),
		service.DecodePAC(v.cfg.DecodePAC),
		service.RequireHostAddr(v.cfg.RequireHostAddr),
	}
	if v.cfg.ServicePrincipal != "" {
		opts = append(opts, service.KeytabPrincipal(v.cfg.ServicePrincipal))
	}
	if ip := clientAddr(ctx); ip != nil {
		opts = append(opts, service.ClientAddress(types.HostAddressFromNetIP(ip)))
	}
	return service.NewSettings(kt, opts...)
}

func failureCode(err error) (int32, bool) {
	var se *SecurityError
	if errors.As(err, &se) {
		return se.Code, true
	}
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Code != 0 {
		return ve.Code, true
	}
	return 0, false
}

type clientAddrKey struct{}

// WithClientAddr returns a copy of ctx carrying the client IP, which is
// matched against the addresses embedded in address-bound tickets.
func WithClientAddr(ctx context.Context, ip net.IP) context.Context {
	if ip == nil {
		return ctx
	}
	return context.WithValue(ctx, clientAddrKey{}, ip)
}

func clientAddr(ctx context.Context) net.IP {
	ip, _ := ctx.Value(clientAddrKey{}).(net.IP)
	return ip
}
