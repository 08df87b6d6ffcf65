// Package api exposes the question answering pipeline over HTTP.
//
// Routes:
//   - POST /api/chat  {"message": ...} -> {"reply": ..., "sources": [...]}
//   - GET  /health    liveness probe
//   - GET  /          plain banner
//
// The chat route sits behind a middleware stack (recovery, request logging,
// CORS, per-IP rate limiting); the probes bypass it so monitoring traffic
// neither consumes rate budget nor spams the request log.
package api

import (
	"errors"
	"log/slog"
	"net/http"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Pipeline    Answerer // Required
	CORSOrigins []string // Allowed origins for CORS
	TrustProxy  bool     // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RatePerSec  float64  // Rate limiter refill per IP (0 = default 1/sec)
	RateBurst   int      // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{
		pipeline: cfg.Pipeline,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", ch.send)

	// Rate limiter: per-IP token bucket
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newIPLimiter(rps, burst)

	// Build middleware stack (outermost first):
	//   Recovery → Logging → CORS → RateLimit → Routes
	// CORS must be before RateLimit so preflight OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Use a top-level mux to separate probes from the middleware stack
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.HandleFunc("GET /{$}", root)
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
