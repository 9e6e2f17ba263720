// Package web serves the nemweb HTTP API: archive parsing, report ingest,
// schema listing, the processed-archive ledger, health and metrics.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/nemweb/internal/ingest"
	"github.com/JonMunkholm/nemweb/internal/metrics"
	"github.com/JonMunkholm/nemweb/internal/web/middleware"
)

// Options holds HTTP server settings.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// RequestTimeout bounds each /api request.
	RequestTimeout time.Duration

	// MaxUpload is the largest archive POST /api/parse accepts.
	MaxUpload int64

	TrustedProxies []string
	APIKeys        []string
}

// Server is the nemweb HTTP server.
type Server struct {
	service *ingest.Service
	metrics *metrics.Metrics
	opts    Options
	router  *chi.Mux
	server  *http.Server
	started time.Time
}

// NewServer creates a Server and registers its routes.
func NewServer(service *ingest.Service, m *metrics.Metrics, opts Options) *Server {
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = 100 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 90 * time.Second
	}
	s := &Server{
		service: service,
		metrics: m,
		opts:    opts,
		router:  chi.NewRouter(),
		started: time.Now(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.opts.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(chimw.Timeout(s.opts.RequestTimeout))

		r.Get("/schemas", s.handleSchemas)
		r.Post("/parse", s.handleParse)
		r.Get("/ledger", s.handleLedger)
		r.With(middleware.APIKeyAuth(s.opts.APIKeys)).Post("/ingest", s.handleIngest)
	})
}

// Start listens on Options.Addr until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.opts.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, then waits for in-flight parses.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.service.Limiter().WaitForDrain(ctx)
}

// Router returns the chi router for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders sets headers suitable for a JSON-only API.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}
