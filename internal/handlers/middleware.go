package handlers

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"finlearn/internal/logger"
	"finlearn/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const UserIDContextKey ContextKey = "userID"

// Authenticator resolves an access token to a user id
type Authenticator interface {
	Authenticate(accessToken string) (string, error)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	auth    Authenticator
	limiter security.Limiter
	log     *logger.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(auth Authenticator, limiter security.Limiter, log *logger.Logger) *Middleware {
	if log == nil {
		log = logger.Nop()
	}
	return &Middleware{auth: auth, limiter: limiter, log: log}
}

// RequireAuth rejects requests without a valid access token. The token is read
// from the Authorization bearer header, then the accessToken cookie.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if cookie, err := r.Cookie(security.AccessTokenCookie); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			respondWithError(w, m.log, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		userID, err := m.auth.Authenticate(token)
		if err != nil {
			respondWithError(w, m.log, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil {
			next(w, r)
			return
		}
		ip := security.GetClientIP(r)
		allowed, err := m.limiter.Allow(r.Context(), ip)
		if err != nil {
			// Fail open when the shared counter store is unreachable
			m.log.Warn("rate limiter unavailable", "error", err)
			allowed = true
		}
		if !allowed {
			m.log.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondWithError(w, m.log, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// UserIDFromContext returns the authenticated user id set by RequireAuth
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDContextKey).(string)
	return userID
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack lets the websocket upgrade take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Logging logs each request with its status and duration
func Logging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// Recover turns a panicking handler into a 500 response
func Recover(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.Error("handler panic", "method", r.Method, "path", r.URL.Path, "panic", p)
					respondWithError(w, log, http.StatusInternalServerError, ErrInternalServerError, "", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows the configured browser origins to call the API with credentials
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowed[origin] || allowed["*"]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key")
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so the first one listed is outermost
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
