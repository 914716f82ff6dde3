package handlers

import (
	"fmt"
	"net/http"
	"time"

	gorillahandlers "github.com/gorilla/handlers"

	"mindquest/internal/logger"
	"mindquest/internal/security"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	limiter *security.RateLimiter
	log     *logger.Logger
}

// NewMiddleware creates a new middleware instance. A nil limiter disables rate limiting.
func NewMiddleware(limiter *security.RateLimiter, log *logger.Logger) *Middleware {
	return &Middleware{
		limiter: limiter,
		log:     logger.OrNop(log),
	}
}

// RateLimit rejects clients that exceed the request budget with 429
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	if m.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			m.log.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path)
			respondWithError(m.log, w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		m.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type recoveryLogger struct {
	log *logger.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error("Recovered from panic", "panic", fmt.Sprint(v...))
}

// Recover turns a panicking handler into a 500 response
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return gorillahandlers.RecoveryHandler(gorillahandlers.RecoveryLogger(recoveryLogger{m.log}))(next)
}

// CORS lets the dashboard UI served from origins call the API. No origins leaves next unwrapped.
func (m *Middleware) CORS(origins []string, next http.Handler) http.Handler {
	if len(origins) == 0 {
		return next
	}
	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(origins),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type"}),
	)(next)
}
