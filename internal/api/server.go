package api

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"mongorelay/internal/proxy"
)

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// Server is the HTTP surface of the proxy. It owns the mux and applies the
// CORS policy and method gate before any route is consulted.
type Server struct {
	service        proxy.Service
	mux            *http.ServeMux
	production     bool
	requestTimeout time.Duration
	maxBodySize    int64
}

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	// Production suppresses downstream error details in responses.
	Production bool
	// RequestTimeout bounds the whole request, dial and operation included.
	RequestTimeout time.Duration
	// MaxBodySize caps the request body in bytes.
	MaxBodySize int64
}

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodySize    = 1 << 20 // 1MB
)

func NewServer(service proxy.Service, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}

	s := &Server{
		service:        service,
		mux:            http.NewServeMux(),
		production:     opts.Production,
		requestTimeout: opts.RequestTimeout,
		maxBodySize:    opts.MaxBodySize,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// CORS headers go on every response, error paths included.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /v1/proxy", withRequestID(withRecover(withTimeout(maxBodySize(s.logged(s.handleProxy), s.maxBodySize), s.requestTimeout))))
	s.mux.HandleFunc("GET /health", withRequestID(withRecover(withTimeout(s.handleHealth, 5*time.Second))))

	// The mux's default 405 has no body and no Allow header; the proxy
	// endpoint promises both.
	s.mux.HandleFunc("/v1/proxy", s.handleMethodNotAllowed)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "POST, OPTIONS")
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
}

// withRequestID adds a unique request ID to the context and response headers
func withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		next(w, r.WithContext(ctx))
	}
}

// getRequestID retrieves the request ID from the context
func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// withRecover wraps a handler with panic recovery
func withRecover(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"error", err,
					"stack", string(debug.Stack()),
					"request_id", getRequestID(r.Context()),
				)
				writeError(w, http.StatusInternalServerError, "Internal server error", "")
			}
		}()
		next(w, r)
	}
}

// withTimeout wraps a handler with a context timeout
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// maxBodySize wraps a handler with request body size limiting
func maxBodySize(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// logged logs one line per completed proxy request.
func (s *Server) logged(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", getRequestID(r.Context()),
		)
	}
}
