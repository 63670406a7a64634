// Package web provides the HTTP API behind the forecast dashboards and the
// webhook entry point for storage notifications.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/JonMunkholm/ticketcast/internal/config"
	"github.com/JonMunkholm/ticketcast/internal/history"
	"github.com/JonMunkholm/ticketcast/internal/pipeline"
	"github.com/JonMunkholm/ticketcast/internal/reports"
	"github.com/JonMunkholm/ticketcast/internal/web/middleware"
)

// Deps are the services the API is built on.
type Deps struct {
	Pipeline *pipeline.Orchestrator
	Reports  *reports.Service
	Runs     history.Lister

	// Gatherer backs /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// Server is the dashboard API server.
type Server struct {
	cfg      *config.Config
	pipeline *pipeline.Orchestrator
	reports  *reports.Service
	runs     history.Lister
	gatherer prometheus.Gatherer

	router   *chi.Mux
	server   *http.Server
	limiters []*middleware.RateLimiter
	stop     context.CancelFunc
}

// NewServer creates a Server with all routes mounted.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: deps.Pipeline,
		reports:  deps.Reports,
		runs:     deps.Runs,
		gatherer: deps.Gatherer,
		router:   chi.NewRouter(),
	}
	if s.runs == nil {
		s.runs = history.Nop{}
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)

	if len(s.cfg.Security.AllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Options{
			AllowedOrigins: s.cfg.Security.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{
				"Content-Type",
				middleware.APIKeyHeader,
				s.cfg.Security.PrincipalHeader,
				s.cfg.Security.RoleHeader,
			},
			ExposedHeaders: []string{"Retry-After", "Content-Disposition"},
			MaxAge:         300,
		}).Handler)
	}

	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimit(s.cfg.Rate.RequestsPerMinute))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))

		// Storage notifications relayed by a webhook
		r.Post("/events", s.handleEvent)

		r.Group(func(r chi.Router) {
			r.Use(s.withSession)

			// User dashboard
			r.With(s.uploadRateLimit()).Post("/uploads", s.handleUpload)
			r.Get("/reports", s.handleListReports)
			r.Get("/reports/{name}", s.handleDownloadReport)

			// Admin dashboard
			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/reports", s.handlePendingReports)
				r.Post("/reports/send", s.handleSendReports)
				r.Get("/logs", s.handleListLogs)
				r.Get("/logs/{owner}/{name}", s.handleReadLog)
				r.Get("/runs", s.handleListRuns)
				r.Get("/uploads/status", s.handleUploadStatus)
			})
		})
	})
}

// rateLimit returns a per-IP limiter middleware and keeps the limiter for
// the eviction loop started by Start.
func (s *Server) rateLimit(perMinute int) func(http.Handler) http.Handler {
	rl := middleware.NewRateLimiter(perMinute, time.Minute)
	s.limiters = append(s.limiters, rl)
	return rl.Middleware
}

func (s *Server) uploadRateLimit() func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.rateLimit(s.cfg.Rate.UploadLimit)
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	for _, rl := range s.limiters {
		go rl.Run(ctx)
	}

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, waits for in-flight uploads, and
// then drains the remaining connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stop != nil {
		s.stop()
	}
	if s.reports != nil {
		if active := s.reports.Limiter().Active(); active > 0 {
			slog.Info("waiting for uploads to complete", "active", active)
			if err := s.reports.Limiter().WaitForDrain(ctx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			}
		}
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				// JSON only; nothing may be loaded or framed.
				h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode error", "error", err)
	}
}
