package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"orgdex/internal/config"
	"orgdex/internal/query"
)

// RebuildFunc reloads the sources and returns a fresh query service.
type RebuildFunc func(ctx context.Context) (*query.Service, error)

// Server is the HTTP API over the corpus. The query service sits behind
// an atomic pointer so a reload swaps the whole corpus without blocking
// in-flight requests.
type Server struct {
	router  chi.Router
	svc     atomic.Pointer[query.Service]
	rebuild RebuildFunc
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server. A nil rebuild
// disables the reload endpoint.
func NewServer(svc *query.Service, rebuild RebuildFunc, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		rebuild: rebuild,
		log:     log,
		cfg:     cfg,
	}
	s.svc.Store(svc)
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) service() *query.Service {
	return s.svc.Load()
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Corpus endpoints, authenticated when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/*", s.handleReadDocument)
		r.Get("/api/outline/*", s.handleOutline)
		r.Get("/api/heading/*", s.handleHeading)
		r.Get("/api/id/{id}", s.handleByID)
		r.Post("/api/search", s.handleSearch)
		r.Get("/api/tasks", s.handleTasks)
		if s.rebuild != nil {
			r.Post("/api/reload", s.handleReload)
		}
	})

	s.router = r
}
