package auth

import "context"

type contextKey int

const (
	outcomeKey contextKey = iota
	identityKey
	peerAddrKey
)

// WithOutcome returns a copy of ctx carrying the outcome of an attempt so
// downstream handlers can inspect it.
func WithOutcome(ctx context.Context, o Outcome) context.Context {
	return context.WithValue(ctx, outcomeKey, o)
}

// OutcomeFrom returns the outcome stored in ctx, if any.
func OutcomeFrom(ctx context.Context) (Outcome, bool) {
	o, ok := ctx.Value(outcomeKey).(Outcome)
	return o, ok
}

// WithIdentity returns a copy of ctx carrying the authenticated identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the authenticated identity stored in ctx, or nil.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// WithPeerAddr returns a copy of ctx carrying the address of the connection
// peer, as seen before any proxy headers are honoured.
func WithPeerAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, peerAddrKey, addr)
}

// PeerAddrFrom returns the connection peer address stored in ctx.
func PeerAddrFrom(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(peerAddrKey).(string)
	return addr, ok
}
