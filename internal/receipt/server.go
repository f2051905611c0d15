package receipt

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zombor/receipt-ocr/internal/logger"
)

// ServerConfig holds the HTTP surface settings
type ServerConfig struct {
	// AllowedOrigins lists origins allowed by CORS; "*" allows any
	AllowedOrigins []string
	// AllowCredentials sets Access-Control-Allow-Credentials
	AllowCredentials bool
}

// Server handles HTTP requests for receipt scans
type Server struct {
	service   *Service
	config    ServerConfig
	mux       *http.ServeMux
	templates *template.Template
	log       zerolog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, config ServerConfig) *Server {
	return NewServerWithMux(service, config, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, config ServerConfig, mux *http.ServeMux) *Server {
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		service:   service,
		config:    config,
		mux:       mux,
		templates: parseTemplates(),
		log:       logger.WithComponent("server"),
	}
	s.registerRoutes()
	return s
}

// allowOrigin returns the Access-Control-Allow-Origin value for a request
// origin, or "" when the origin is not allowed
func (s *Server) allowOrigin(origin string) string {
	if slices.Contains(s.config.AllowedOrigins, "*") {
		// A wildcard cannot be combined with credentials
		if s.config.AllowCredentials && origin != "" {
			return origin
		}
		return "*"
	}
	if origin != "" && slices.Contains(s.config.AllowedOrigins, origin) {
		return origin
	}
	return ""
}

// setCORSHeaders sets CORS headers on a response
func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	allowed := s.allowOrigin(r.Header.Get("Origin"))
	if allowed == "" {
		return
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", allowed)
	if allowed != "*" {
		h.Add("Vary", "Origin")
	}
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	h.Set("Access-Control-Max-Age", "3600")
	if s.config.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}

// corsMiddleware adds CORS headers to responses and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.setCORSHeaders(w, r)

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logMiddleware logs one line per request
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /static/app.css", s.handleStaticCSS)

	s.mux.HandleFunc("POST /api/scan", s.handleAPIScan)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /upload/", s.handleUpload)

	// Upload page (register last as it's the catch-all)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
}

// Start starts the HTTP server and blocks until it stops. A server stopped
// with Shutdown returns nil.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      3 * time.Minute, // OCR backends can take a while
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.log.Info().Str("address", addr).Msg("Starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a server started with Start
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.closed = true
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	s.log.Info().Msg("Shutting down server")
	return srv.Shutdown(ctx)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logMiddleware(s.corsMiddleware(s.mux)).ServeHTTP(w, r)
}

