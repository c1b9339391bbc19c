package bridge

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/marmos91/kerbgate/pkg/api/problem"
)

// Access-denied modes.
const (
	DenyForbidden = "forbidden"
	DenyRedirect  = "redirect"
)

// Denier writes the response for a request that failed the gate.
type Denier interface {
	Deny(w http.ResponseWriter, r *http.Request)
}

// DenierFunc adapts a function to Denier.
type DenierFunc func(w http.ResponseWriter, r *http.Request)

// Deny calls f(w, r).
func (f DenierFunc) Deny(w http.ResponseWriter, r *http.Request) {
	f(w, r)
}

// Forbidden denies with a 403 problem response.
func Forbidden() Denier {
	return DenierFunc(func(w http.ResponseWriter, _ *http.Request) {
		problem.Forbidden(w, "Authentication required")
	})
}

// Redirect denies with a 302 to target, passing the original request URI
// in the ReturnUrl query parameter.
func Redirect(target *url.URL) Denier {
	return DenierFunc(func(w http.ResponseWriter, r *http.Request) {
		u := *target
		q := u.Query()
		q.Set("ReturnUrl", r.URL.RequestURI())
		u.RawQuery = q.Encode()
		http.Redirect(w, r, u.String(), http.StatusFound)
	})
}

// NewDenier builds the denier for mode. redirectURL is required for
// DenyRedirect and ignored otherwise.
func NewDenier(mode, redirectURL string) (Denier, error) {
	switch mode {
	case "", DenyForbidden:
		return Forbidden(), nil
	case DenyRedirect:
		if redirectURL == "" {
			return nil, fmt.Errorf("access denied mode %q requires a redirect url", mode)
		}
		u, err := url.Parse(redirectURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redirect url: %w", err)
		}
		return Redirect(u), nil
	default:
		return nil, fmt.Errorf("unknown access denied mode %q", mode)
	}
}
