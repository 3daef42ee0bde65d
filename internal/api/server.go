// Package api provides the HTTP API server and handlers for the QueryDeck application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/querydeckapp/querydeck-server/internal/auth"
	"github.com/querydeckapp/querydeck-server/internal/ratelimit"
	"github.com/querydeckapp/querydeck-server/internal/service"
	"github.com/querydeckapp/querydeck-server/internal/store"
	"github.com/querydeckapp/querydeck-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     *store.Store
	catalog   *service.CatalogService
	tokens    *auth.TokenService
	limiter   *ratelimit.KeyedRateLimiter
	validator *validation.Validator
	router    *chi.Mux
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, catalog *service.CatalogService, tokens *auth.TokenService, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Server {
	s := &Server{
		store:     st,
		catalog:   catalog,
		tokens:    tokens,
		limiter:   limiter,
		validator: validation.New(),
		router:    chi.NewRouter(),
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Query catalog.
		r.Route("/queries", func(r chi.Router) {
			// Public browse/search endpoints, rate limited per client IP.
			r.With(s.rateLimitByIP).Get("/", s.handleListQueries)
			r.With(s.rateLimitByIP).Get("/{id}/revisions", s.handleGetRevisions)

			// Mutations require auth.
			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Post("/", s.handleCreateQuery)
				r.Patch("/{id}", s.handleUpdateQuery)
				r.Delete("/{id}", s.handleDeleteQuery)
				r.Post("/{id}/star", s.handleStarQuery)
				r.Delete("/{id}/star", s.handleUnstarQuery)
				r.Post("/{id}/fork", s.handleForkQuery)
			})
		})

		// User profiles and their published queries.
		r.With(s.rateLimitByIP).Get("/users/{uid}/queries", s.handleGetUserQueries)

		// Admin endpoints, root-gated.
		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Use(s.requireRoot)
			r.Delete("/queries", s.handleDeleteAllQueries)
		})
	})
}
