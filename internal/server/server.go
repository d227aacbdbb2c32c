// Package server provides the HTTP server and routing for TRUEEDGE.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/trueedge/trueedge/internal/config"
	"github.com/trueedge/trueedge/internal/database"
	notify "github.com/trueedge/trueedge/internal/events"
	"github.com/trueedge/trueedge/internal/modules/events"
	eventhandlers "github.com/trueedge/trueedge/internal/modules/events/handlers"
	metricshandlers "github.com/trueedge/trueedge/internal/modules/metrics/handlers"
	"github.com/trueedge/trueedge/internal/modules/reports"
)

// Config holds server configuration
type Config struct {
	Log      zerolog.Logger
	LedgerDB *database.DB // nil when the JSONL backend is active
	Store    events.Store
	Notifier *notify.Notifier
	Config   *config.Config
	Port     int
	DevMode  bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	ledgerDB       *database.DB
	store          events.Store
	notifier       *notify.Notifier
	cfg            *config.Config
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log,
		ledgerDB: cfg.LedgerDB,
		store:    cfg.Store,
		notifier: cfg.Notifier,
		cfg:      cfg.Config,
	}

	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.LedgerDB, cfg.Store)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Long-lived websocket stream; must stay outside the request timeout
	s.router.Get("/api/events/ws", s.handleEventsWS)

	eventHandlers := eventhandlers.NewEventHandlers(s.store, s.notifier, s.log)
	metricsHandlers := metricshandlers.NewMetricsHandlers(s.store, s.cfg.StartingBalance, s.log)
	reportGenerator := reports.NewGenerator(s.cfg.DataDir, s.log)
	reportHandlers := reports.NewHandlers(s.store, reportGenerator, s.cfg.StartingBalance, s.log)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/health", s.handleHealth)

		r.Route("/api", func(r chi.Router) {
			eventHandlers.RegisterRoutes(r)
			metricsHandlers.RegisterRoutes(r)
			reportHandlers.RegisterRoutes(r)

			r.Get("/system/status", s.systemHandlers.HandleStatus)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
