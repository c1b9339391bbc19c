package handlers

import (
	"net/http"

	"github.com/marmos91/kerbgate/internal/logger"
	"github.com/marmos91/kerbgate/pkg/api/problem"
	"github.com/marmos91/kerbgate/pkg/auth"
	"github.com/marmos91/kerbgate/pkg/bridge"
)

// AuthHandler serves the login, logout and session-protected endpoints.
type AuthHandler struct {
	bridge *bridge.Bridge
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(b *bridge.Bridge) *AuthHandler {
	return &AuthHandler{bridge: b}
}

// MessageResponse is the body of the simple JSON endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResponse is the response body for GET /login.
type LoginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
}

// ClaimResponse is a single claim in GET /auth-status.
type ClaimResponse struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// AuthStatusResponse is the response body for GET /auth-status.
type AuthStatusResponse struct {
	Authenticated bool            `json:"authenticated"`
	Username      string          `json:"username,omitempty"`
	AuthType      string          `json:"authType,omitempty"`
	Claims        []ClaimResponse `json:"claims,omitempty"`
}

// Login handles GET /login.
// Runs Negotiate and, on success, issues the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	res, err := h.bridge.Login(w, r)
	if err != nil {
		problem.ServiceUnavailable(w, "Unable to create session")
		return
	}
	if res.Kind != bridge.LoginSucceeded {
		problem.Unauthorized(w, "Negotiate authentication required")
		return
	}

	problem.WriteJSONOK(w, LoginResponse{
		Message:  "Successfully authenticated and logged in",
		Username: res.Identity.Name(),
	})
}

// Logout handles GET /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.bridge.Logout(w, r); err != nil {
		logger.WarnCtx(r.Context(), "Logout could not revoke session", logger.Err(err))
		problem.ServiceUnavailable(w, "Unable to revoke session")
		return
	}
	problem.WriteJSONOK(w, MessageResponse{Message: "Successfully logged out"})
}

// Public handles GET /public.
func (h *AuthHandler) Public(w http.ResponseWriter, r *http.Request) {
	problem.WriteJSONOK(w, MessageResponse{Message: "This is a public endpoint - no authentication required"})
}

// Secure handles GET /secure. It must be mounted behind
// bridge.RequireAuthentication.
func (h *AuthHandler) Secure(w http.ResponseWriter, r *http.Request) {
	id := bridge.IdentityFrom(r.Context())
	if id == nil {
		problem.Forbidden(w, "Authentication required")
		return
	}
	problem.WriteJSONOK(w, MessageResponse{
		Message: "Hello, " + id.Name() + "! You are authenticated via " + id.AuthenticationType + ".",
	})
}

// AuthStatus handles GET /auth-status.
// Reports the session on the request without ever running Kerberos.
func (h *AuthHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	cred, err := h.bridge.AuthenticateSession(w, r)
	if err != nil {
		problem.WriteJSONOK(w, AuthStatusResponse{Authenticated: false})
		return
	}

	id := cred.Identity()
	problem.WriteJSONOK(w, AuthStatusResponse{
		Authenticated: true,
		Username:      id.Name(),
		AuthType:      id.AuthenticationType,
		Claims:        claimsResponse(id.Claims),
	})
}

func claimsResponse(claims []auth.Claim) []ClaimResponse {
	out := make([]ClaimResponse, 0, len(claims))
	for _, c := range claims {
		out = append(out, ClaimResponse(c))
	}
	return out
}
