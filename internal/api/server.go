package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ananyabshetty/SQL-Detective-Game/internal/analytics"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/config"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/game"
	"github.com/ananyabshetty/SQL-Detective-Game/internal/health"
)

// Server represents the HTTP API server
type Server struct {
	config   config.ServerConfig
	router   *chi.Mux
	game     *game.Service
	reporter analytics.Reporter
	health   *health.Registry
	player   *PlayerMiddleware
}

// NewServer creates a new API server. The reporter may be nil when
// analytics is disabled; the report routes then answer 503.
func NewServer(
	cfg config.ServerConfig,
	svc *game.Service,
	reporter analytics.Reporter,
	registry *health.Registry,
	recorder analytics.Recorder,
) *Server {
	s := &Server{
		config:   cfg,
		game:     svc,
		reporter: reporter,
		health:   registry,
		player:   NewPlayerMiddleware(recorder),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (every player gets an identity cookie)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.player.Identify)

		// Query console
		r.Route("/query", func(r chi.Router) {
			r.Post("/validate", s.handleValidateQuery)
			r.Post("/execute", s.handleExecuteQuery)
			r.Post("/check", s.handleCheckQuery)
			r.Get("/blocked-keywords", s.handleBlockedKeywords)
		})

		// Game progression
		r.Route("/game", func(r chi.Router) {
			r.Get("/levels", s.handleListLevels)
			r.Get("/levels/{id}", s.handleGetLevel)
			r.Get("/progress", s.handleGetProgress)
			r.Post("/progress/reset", s.handleResetProgress)
			r.Post("/progress/unlock/{id}", s.handleUnlockLevel)
			r.Get("/tables", s.handleListTables)
			r.Get("/tables/{name}/schema", s.handleTableSchema)
			r.Get("/tables/{name}/sample", s.handleTableSample)
		})

		// Analytics reports
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/funnel", s.handleFunnelReport)
			r.Get("/errors", s.handleErrorReport)
			r.Get("/learning-curve", s.handleLearningCurveReport)
			r.Get("/sessions", s.handleSessionReport)
			r.Get("/queries", s.handleQueryStatsReport)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
