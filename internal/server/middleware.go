package server

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func newStatusResponseWriter(w http.ResponseWriter) *statusResponseWriter {
	return &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusResponseWriter) Status() int { return w.status }

// LogMiddleware logs every request with its status and duration.
func LogMiddleware(logger *log.Logger, corsEnabled bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			if corsEnabled {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
			sw := newStatusResponseWriter(w)
			next.ServeHTTP(sw, r)
			logger.Info("http request",
				"method", r.Method, "path", r.URL.Path, "status", sw.Status(), "duration", time.Since(start))
		})
	}
}

// KeyedLimiter holds one token bucket per key.
type KeyedLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewKeyedLimiter allows perSecond events per key with an equal burst. A non-positive rate allows everything.
func NewKeyedLimiter(perSecond float64) *KeyedLimiter {
	limit := rate.Inf
	burst := 0
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(math.Ceil(perSecond))
	}
	return &KeyedLimiter{limit: limit, burst: burst, limiters: map[string]*rate.Limiter{}}
}

// Allow reports whether an event for key may happen now, and if not how long until one may.
func (k *KeyedLimiter) Allow(key string) (bool, time.Duration) {
	k.mu.Lock()
	l, ok := k.limiters[key]
	if !ok {
		l = rate.NewLimiter(k.limit, k.burst)
		k.limiters[key] = l
	}
	k.mu.Unlock()

	r := l.Reserve()
	if !r.OK() {
		return false, time.Second
	}
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return false, delay
	}
	return true, 0
}

// Forget drops the bucket for key.
func (k *KeyedLimiter) Forget(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.limiters, key)
}

// EmbedKey keys requests by the {id} path value; requests without one are not limited.
func EmbedKey(r *http.Request) string {
	if r.Method != http.MethodPost {
		return ""
	}
	return r.PathValue("id")
}

// RateLimitMiddleware rejects requests over the limit for their key with 429 and a Retry-After header.
func RateLimitMiddleware(limiter *KeyedLimiter, key func(*http.Request) string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			if ok, wait := limiter.Allow(k); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "too many events")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
