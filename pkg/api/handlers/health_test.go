package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jcmturner/gokrb5/v8/keytab"

	"github.com/marmos91/kerbgate/pkg/session"
	"github.com/marmos91/kerbgate/pkg/session/store/memory"
)

type keytabFunc func() (*keytab.Keytab, error)

func (f keytabFunc) Get() (*keytab.Keytab, error) { return f() }

type downStore struct{ session.Store }

func (downStore) Healthcheck(context.Context) error { return session.ErrStoreUnavailable }

func TestLiveness_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil, nil)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}

	if data["service"] != "kerbgate" {
		t.Errorf("Expected service 'kerbgate', got '%s'", data["service"])
	}
}

func TestReadiness(t *testing.T) {
	okKeytab := keytabFunc(func() (*keytab.Keytab, error) { return keytab.New(), nil })
	badKeytab := keytabFunc(func() (*keytab.Keytab, error) { return nil, errors.New("keytab unavailable: read /etc/krb5.keytab") })

	tests := []struct {
		name     string
		keytabs  KeytabSource
		sessions session.Store
		want     int
	}{
		{"AllHealthy", okKeytab, memory.New(), http.StatusOK},
		{"NoDependencies", nil, nil, http.StatusServiceUnavailable},
		{"KeytabUnavailable", badKeytab, memory.New(), http.StatusServiceUnavailable},
		{"StoreDown", okKeytab, downStore{}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.keytabs, tt.sessions)
			w := httptest.NewRecorder()

			handler.Readiness(w, httptest.NewRequest("GET", "/health/ready", nil))

			if w.Code != tt.want {
				t.Fatalf("Expected status %d, got %d", tt.want, w.Code)
			}

			var resp Response
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			components, ok := resp.Data.([]interface{})
			if !ok || len(components) != 2 {
				t.Fatalf("Expected 2 components, got %v", resp.Data)
			}
		})
	}
}

func TestReadiness_HidesErrorDetail(t *testing.T) {
	badKeytab := keytabFunc(func() (*keytab.Keytab, error) {
		return nil, errors.New("keytab unavailable: open /etc/secret/http.keytab: permission denied")
	})
	handler := NewHealthHandler(badKeytab, downStore{})
	w := httptest.NewRecorder()

	handler.Readiness(w, httptest.NewRequest("GET", "/health/ready", nil))

	body := w.Body.String()
	if strings.Contains(body, "/etc/secret") || strings.Contains(body, "permission denied") {
		t.Errorf("Expected keytab error detail to stay out of the response, got: %s", body)
	}
	if !strings.Contains(body, `"error":"keytab unavailable"`) {
		t.Errorf("Expected generic keytab error, got: %s", body)
	}
	if !strings.Contains(body, `"error":"session store unavailable"`) {
		t.Errorf("Expected generic session store error, got: %s", body)
	}
}
