// Package server exposes workspaces over a JSON HTTP API.
//
// A client uploads rows to create a workspace, then issues the same commands
// the state package offers: set the column mapping, set view parameters,
// switch the active view and read projections. Every response is JSON;
// errors have the form
//
//	{"error": {"code": "INVALID_VIEW", "message": "unknown view \"x\" ..."}}
//
// with the HTTP status derived from the error code.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/session"
	"github.com/matzehuels/flowlens/pkg/state"
)

// DefaultMaxUpload bounds the body of a workspace upload.
const DefaultMaxUpload = 32 << 20

const shutdownTimeout = 5 * time.Second

// Options configures a [Server].
type Options struct {
	// MaxUpload is the largest accepted upload in bytes. Zero means
	// [DefaultMaxUpload].
	MaxUpload int64
	// StateOptions seed every new workspace, typically from the config file.
	StateOptions []state.Option
	// Logger receives request logs. Nil discards them.
	Logger *log.Logger
	// Cache stores rendered SVG views. Nil disables caching.
	Cache cache.Cache
}

// Server serves the workspace API.
type Server struct {
	registry *session.Registry
	opts     Options
	logger   *log.Logger
	cache    cache.Cache
	keyer    cache.Keyer
	router   chi.Router
}

// New creates a server over registry.
func New(registry *session.Registry, opts Options) *Server {
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultMaxUpload
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	c := opts.Cache
	if c == nil {
		c = cache.NewNullCache()
	}
	s := &Server{registry: registry, opts: opts, logger: logger, cache: c, keyer: cache.NewDefaultKeyer()}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Route("/api/workspaces", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Put("/rows", s.handleLoadRows)
			r.Put("/mapping", s.handleSetMapping)
			r.Put("/active", s.handleSetActive)
			r.Get("/views/{view}", s.handleGetView)
			r.Put("/views/{view}", s.handleSetView)
		})
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
