package server

import (
	"net/http"
	"slices"
	"sync"
)

// BasicRouter implements [Router] over [http.ServeMux] with method-qualified patterns ("POST /embeds"), so a known
// path requested with another method gets a 405 from the mux.
type BasicRouter struct {
	mux   *http.ServeMux
	chain []Middleware

	mu       sync.Mutex
	patterns []string
}

// NewBasicRouter creates an empty [BasicRouter].
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware. Only routes registered afterwards are wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.chain = append(r.chain, middleware...)
}

// Handle registers handler for method and path.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.register(method+" "+path, r.Apply(handler))
}

// Handler registers h for every pattern in [Handler.Routes], sharing one middleware chain.
func (r *BasicRouter) Handler(h Handler) {
	wrapped := r.Apply(h)
	for _, pattern := range h.Routes() {
		r.register(pattern, wrapped)
	}
}

// Patterns returns the registered patterns in sorted order.
func (r *BasicRouter) Patterns() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	patterns := slices.Clone(r.patterns)
	slices.Sort(patterns)
	return patterns
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler so the first middleware passed to [BasicRouter.Use] runs first.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	for i := len(r.chain) - 1; i >= 0; i-- {
		handler = r.chain[i](handler)
	}
	return handler
}

func (r *BasicRouter) register(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)

	r.mu.Lock()
	r.patterns = append(r.patterns, pattern)
	r.mu.Unlock()
}
