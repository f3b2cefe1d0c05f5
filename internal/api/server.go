package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clarityhq/claritymark/internal/config"
	"github.com/clarityhq/claritymark/internal/database"
	"github.com/clarityhq/claritymark/internal/fetch"
)

// Server is the HTTP API server for claritymark.
type Server struct {
	router  chi.Router
	fetcher *fetch.Fetcher
	history *database.HistoryDB
	log     *slog.Logger

	// palette maps verdict slugs to marker background colors.
	palette map[string]string

	// maxBodyBytes limits inline document uploads.
	maxBodyBytes int64

	// cacheMaxAge is the page cache freshness window for URL sources.
	cacheMaxAge time.Duration
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithHistory enables the run history and page cache.
func WithHistory(history *database.HistoryDB, cacheMaxAge time.Duration) ServerOption {
	return func(s *Server) {
		s.history = history
		s.cacheMaxAge = cacheMaxAge
	}
}

// WithPalette sets the verdict color palette used for injected chrome.
func WithPalette(palette map[string]string) ServerOption {
	return func(s *Server) {
		s.palette = palette
	}
}

// WithMaxBodyBytes limits the size of inline document uploads.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// NewServer creates and configures the HTTP server.
func NewServer(fetcher *fetch.Fetcher, log *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		fetcher:      fetcher,
		log:          log,
		palette:      config.DefaultPalette(),
		maxBodyBytes: config.DefaultMaxBodySize,
		cacheMaxAge:  config.DefaultCacheMaxAge,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/v1/health", s.handleHealth)
	r.Post("/v1/highlight", s.handleHighlight)
	r.Get("/v1/runs", s.handleListRuns)
	r.Get("/v1/runs/{runID}", s.handleGetRun)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
