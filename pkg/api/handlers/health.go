package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jcmturner/gokrb5/v8/keytab"

	"github.com/marmos91/kerbgate/internal/logger"
	"github.com/marmos91/kerbgate/pkg/session"
)

// KeytabSource provides the shared keytab.
type KeytabSource interface {
	Get() (*keytab.Keytab, error)
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Can the keytab be loaded and the session store reached?
type HealthHandler struct {
	keytabs  KeytabSource
	sessions session.Store
}

// NewHealthHandler creates a new health handler. Either dependency may be
// nil, in which case readiness reports it as unhealthy.
func NewHealthHandler(keytabs KeytabSource, sessions session.Store) *HealthHandler {
	return &HealthHandler{keytabs: keytabs, sessions: sessions}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "kerbgate",
	}))
}

// ComponentHealth is the health of one dependency.
type ComponentHealth struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Readiness handles GET /health/ready.
//
// The keytab check triggers the first (sticky) keytab load if no request has
// done so yet. Returns 503 Service Unavailable if any component is unhealthy.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := []ComponentHealth{
		h.checkKeytab(ctx),
		h.checkSessions(ctx),
	}

	allHealthy := true
	for _, c := range components {
		if c.Status != "healthy" {
			allHealthy = false
		}
	}

	if allHealthy {
		writeJSON(w, http.StatusOK, healthyResponse(components))
	} else {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData(components))
	}
}

// Component errors in the response are fixed strings; the load or backend
// error, which can name paths and addresses, only goes to the log.
func (h *HealthHandler) checkKeytab(ctx context.Context) ComponentHealth {
	c := ComponentHealth{Name: "keytab"}
	if h.keytabs == nil {
		c.Status = "unhealthy"
		c.Error = "keytab not configured"
		return c
	}
	start := time.Now()
	_, err := h.keytabs.Get()
	c.Latency = time.Since(start).String()
	if err != nil {
		c.Status = "unhealthy"
		c.Error = "keytab unavailable"
		logger.WarnCtx(ctx, "Readiness: keytab unavailable", logger.Err(err))
		return c
	}
	c.Status = "healthy"
	return c
}

func (h *HealthHandler) checkSessions(ctx context.Context) ComponentHealth {
	c := ComponentHealth{Name: "session_store"}
	if h.sessions == nil {
		c.Status = "unhealthy"
		c.Error = "session store not configured"
		return c
	}
	start := time.Now()
	err := h.sessions.Healthcheck(ctx)
	c.Latency = time.Since(start).String()
	if err != nil {
		c.Status = "unhealthy"
		c.Error = "session store unavailable"
		logger.WarnCtx(ctx, "Readiness: session store unavailable", logger.Err(err))
		return c
	}
	c.Status = "healthy"
	return c
}
