// Package web provides the HTTP API of the inventory service.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sitestock/supplytrack/internal/config"
	"github.com/sitestock/supplytrack/internal/core"
	mw "github.com/sitestock/supplytrack/internal/web/middleware"
)

// Server is the HTTP server for the inventory API.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	keys     []config.APIKey
	validate *validator.Validate
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer creates a Server with all middleware and routes installed.
func NewServer(service *core.Service, cfg *config.Config) (*Server, error) {
	keys, err := cfg.Security.ParseAPIKeys()
	if err != nil {
		return nil, fmt.Errorf("api keys: %w", err)
	}

	s := &Server{
		service:  service,
		cfg:      cfg,
		keys:     keys,
		validate: newValidator(),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.keys, s.cfg.Security.RequireAPIKey))

		// Inventories
		r.Route("/inventories/{scope}/{ownerID}", func(r chi.Router) {
			r.Get("/entries", s.handleListEntries)
			r.Group(func(r chi.Router) {
				if s.cfg.Rate.Enabled {
					r.Use(s.newRateLimiter(s.cfg.Rate.ImportLimit).middleware)
				}
				r.Post("/import/preview", s.handlePreviewImport)
				r.Post("/import/commit", s.handleCommitImport)
			})
		})

		// Site supplies and pricing
		r.Post("/sites/{siteID}/supplies", s.handleCreateSiteSupply)
		r.Patch("/supplies/{id}", s.handleEditSiteSupply)
		r.Put("/supplies/{id}/price", s.handleSetPrice)
		r.Put("/warehouse-entries/{id}/current-price", s.handleSetCurrentPrice)

		// Supply requests
		r.Post("/sites/{siteID}/requests", s.handleCreateSupplyRequest)
		r.Get("/requests", s.handleListSupplyRequests)
		r.Post("/requests/{id}/approve", s.handleApproveTransfer)
		r.Post("/requests/{id}/reject", s.handleRejectTransfer)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() http.Handler {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	state := "ok"
	if err := s.service.Ping(r.Context()); err != nil {
		slog.Warn("health: store unreachable", "error", err)
		status = http.StatusServiceUnavailable
		state = "unavailable"
	}
	writeJSON(w, status, map[string]any{
		"status":  state,
		"imports": s.service.Limiter().Status(),
	})
}
