package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/kerbgate/pkg/api/handlers"
	"github.com/marmos91/kerbgate/pkg/api/middleware"
	"github.com/marmos91/kerbgate/pkg/api/problem"
	"github.com/marmos91/kerbgate/pkg/bridge"
	"github.com/marmos91/kerbgate/pkg/session"
)

// Services are the components the router serves.
type Services struct {
	// Bridge handles login, logout and the authorization gate.
	Bridge *bridge.Bridge

	// Keytabs and Sessions are probed by /health/ready.
	Keytabs  handlers.KeytabSource
	Sessions session.Store
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Request-scoped log context and request logging
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /            - Help page
//   - GET /public      - No authentication
//   - GET /login       - Negotiate, then issue a session cookie
//   - GET /logout      - Revoke the session
//   - GET /secure      - Requires a session (403 otherwise)
//   - GET /auth-status - Session status, never challenges
//   - GET /health      - Liveness probe
//   - GET /health/ready - Readiness probe
func NewRouter(cfg Config, svc Services) http.Handler {
	cfg.ApplyDefaults()

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(chimw.RequestID)
	// PeerAddr must precede RealIP: ticket address checks use the socket
	// peer, RealIP only feeds logging.
	r.Use(middleware.PeerAddr)
	r.Use(chimw.RealIP)
	r.Use(middleware.LogContext)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem.NotFound(w, "No such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem.MethodNotAllowed(w, "Method not allowed")
	})

	healthHandler := handlers.NewHealthHandler(svc.Keytabs, svc.Sessions)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	authHandler := handlers.NewAuthHandler(svc.Bridge)
	r.Get("/", handlers.Index)
	r.Get("/public", authHandler.Public)
	r.Get("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)
	r.Get("/auth-status", authHandler.AuthStatus)

	r.Group(func(r chi.Router) {
		r.Use(svc.Bridge.RequireAuthentication)
		r.Get("/secure", authHandler.Secure)
	})

	return r
}
