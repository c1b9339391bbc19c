package middleware

import (
	"net/http"

	"github.com/marmos91/kerbgate/pkg/auth"
)

// PeerAddr records r.RemoteAddr in the request context before anything can
// rewrite it from client-supplied headers.
func PeerAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(auth.WithPeerAddr(r.Context(), r.RemoteAddr)))
	})
}
