package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sitestock/supplytrack/internal/config"
	"github.com/sitestock/supplytrack/internal/core"
	"github.com/sitestock/supplytrack/internal/engine"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted keeps remote", nil, "203.0.113.9:5555", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.9"},
		{"trusted real ip", []string{"10.0.0.0/8"}, "10.1.2.3:80", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted forwarded for", []string{"10.0.0.1"}, "10.0.0.1:80", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, "5.6.7.8"},
		{"trusted invalid header", []string{"10.0.0.0/8"}, "10.0.0.2:80", map[string]string{"X-Real-IP": "nope"}, "10.0.0.2"},
		{"invalid entry skipped", []string{"bogus", "10.0.0.0/8"}, "10.0.0.2:80", map[string]string{"X-Real-IP": "9.9.9.9"}, "9.9.9.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	keys := []config.APIKey{
		{Key: "k-admin", ActorID: "ada", Role: "admin"},
		{Key: "k-keeper", ActorID: "kim", Role: "warehouse_manager"},
	}

	tests := []struct {
		name       string
		required   bool
		headers    map[string]string
		wantStatus int
		wantActor  engine.Actor
	}{
		{"valid key", true, map[string]string{HeaderAPIKey: "k-keeper"}, http.StatusOK, engine.Actor{ID: "kim", Role: engine.RoleWarehouseManager}},
		{"unknown key", true, map[string]string{HeaderAPIKey: "nope"}, http.StatusUnauthorized, engine.Actor{}},
		{"missing key", true, nil, http.StatusUnauthorized, engine.Actor{}},
		{"actor headers ignored when required", true, map[string]string{HeaderActorID: "x", HeaderActorRole: "admin"}, http.StatusUnauthorized, engine.Actor{}},
		{"dev actor headers", false, map[string]string{HeaderActorID: "sam", HeaderActorRole: "site_supervisor"}, http.StatusOK, engine.Actor{ID: "sam", Role: engine.RoleSiteSupervisor}},
		{"dev bad role", false, map[string]string{HeaderActorID: "sam", HeaderActorRole: "owner"}, http.StatusUnauthorized, engine.Actor{}},
		{"dev key still checked", false, map[string]string{HeaderAPIKey: "nope"}, http.StatusUnauthorized, engine.Actor{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got engine.Actor
			h := APIKeyAuth(keys, tt.required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = core.ActorFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/requests", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got != tt.wantActor {
				t.Errorf("actor = %+v, want %+v", got, tt.wantActor)
			}
			if rec.Code == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), "AUTH002") {
				t.Errorf("body = %s, want AUTH002 code", rec.Body.String())
			}
		})
	}
}

func TestLogger_CapturesStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}
