// package server contains middleware & handlers for the remote widget service
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sia/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the remote widget service.
// Implementations handle specific endpoints (embed registration, player events).
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the method-qualified patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Options contains configuration for a [Server].
type Options struct {
	Addr     string
	Registry *Registry
	Logger   *log.Logger
	CORS     bool
}

// Server exposes a [Registry] over HTTP.
type Server struct {
	http     *http.Server
	router   *BasicRouter
	registry *Registry
	logger   *log.Logger
}

// New creates a [Server] with logging, CORS and per-embed rate limiting applied to every route.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	router := NewBasicRouter()
	router.Use(LogMiddleware(opts.Logger, opts.CORS), RateLimitMiddleware(opts.Registry.Limiter(), EmbedKey))
	router.Handler(NewEmbedHandler(opts.Registry, opts.Logger))
	router.Handle(http.MethodGet, "/health", HealthHandler(opts.Registry))

	return &Server{
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		router:   router,
		registry: opts.Registry,
		logger:   opts.Logger,
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down and disposes every embed.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr, "routes", len(s.router.Patterns()))
		errs <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)
	s.registry.Close()
	s.logger.Info("server stopped")
	return err
}
