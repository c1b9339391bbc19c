// Package bridge turns one Negotiate handshake into a cookie session and
// gates protected routes on either credential.
//
// The gate is two independent capability checks:
//
//  1. A session cookie issued by Login (cheap, no Kerberos).
//  2. Optionally, a fresh Negotiate attempt on the request itself. This path
//     never mints a session; only Login does.
//
// A request that passes neither check is challenged (when the authenticator
// is configured to) and handed to the Denier.
package bridge
