package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"labsite/internal/platform/logger"
)

var (
	corsHeaders = [][2]string{
		{"Access-Control-Allow-Origin", "*"},
		{"Access-Control-Allow-Methods", "GET, POST, OPTIONS"},
		{"Access-Control-Allow-Headers", "Content-Type, Authorization"},
		{"Access-Control-Max-Age", "3600"},
	}
	securityHeaders = [][2]string{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	}
)

func setHeaders(h http.Header, pairs [][2]string) {
	for _, kv := range pairs {
		h.Set(kv[0], kv[1])
	}
}

// RequestLogger logs one line per request and stores a request-scoped logger
// (tagged with the chi request ID) in the context for handlers downstream.
// 5xx responses are logged at warn.
func RequestLogger(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := base
			if reqID := middleware.GetReqID(r.Context()); reqID != "" {
				reqLog = base.With("request_id", reqID)
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.IntoContext(r.Context(), reqLog)))

			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			reqLog.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// Recoverer turns a handler panic into a JSON 500. http.ErrAbortHandler is
// re-raised so net/http can abort the connection.
func Recoverer(fallback *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				log := fallback
				if l, ok := logger.Lookup(r.Context()); ok {
					log = l
				}
				log.Error("panic recovered",
					"error", fmt.Errorf("panic: %v", rvr),
					"method", r.Method,
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusInternalServerError, "internal error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// CORS sets the public CORS policy on every response and answers preflight
// requests with 204 on any path.
func CORS() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setHeaders(w.Header(), corsHeaders)
			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// SecurityHeaders locks responses down for a JSON-only API.
func SecurityHeaders() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			setHeaders(w.Header(), securityHeaders)
			next.ServeHTTP(w, r)
		})
	}
}

// Counter increments a windowed counter. *cache.Cache satisfies it.
type Counter interface {
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RateLimitConfig configures the fixed-window limiter.
type RateLimitConfig struct {
	Counter Counter
	Limit   int
	Window  time.Duration
	Logger  *slog.Logger

	// Prefix namespaces counter keys. Defaults to "ratelimit".
	Prefix string
	// Skip exempts requests, e.g. health probes.
	Skip func(r *http.Request) bool
	// Key identifies the client. Defaults to the remote IP.
	Key func(r *http.Request) (string, error)
}

// SkipPaths exempts requests whose path is one of paths.
func SkipPaths(paths ...string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.URL.Path]
		return ok
	}
}

// RateLimit allows Limit requests per client per Window and answers 429
// beyond that. Responses carry X-RateLimit-Limit and X-RateLimit-Remaining.
// The limiter fails open when the counter is unavailable.
func RateLimit(cfg RateLimitConfig) func(next http.Handler) http.Handler {
	if cfg.Limit <= 0 || cfg.Window <= 0 || cfg.Counter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = "ratelimit"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	keyFunc := cfg.Key
	if keyFunc == nil {
		keyFunc = ipKey
	}
	limit := strconv.Itoa(cfg.Limit)
	retryAfter := strconv.Itoa(int(cfg.Window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}
			key, err := keyFunc(r)
			if err != nil {
				log.Debug("rate limit key unavailable", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}
			count, err := cfg.Counter.IncrementWithTTL(r.Context(), prefix+":"+key, cfg.Window)
			if err != nil {
				log.Debug("rate limit counter failed", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(cfg.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if count > int64(cfg.Limit) {
				w.Header().Set("Retry-After", retryAfter)
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ipKey(r *http.Request) (string, error) {
	ip := clientIP(r)
	if ip == "" {
		return "", fmt.Errorf("client ip is empty")
	}
	return "ip:" + ip, nil
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
