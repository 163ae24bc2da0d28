package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"dockhand/internal/composition"
	"dockhand/internal/deploy"
)

const (
	// HTTP server timeouts. No write timeout is set on the trigger
	// server: a redeploy holds the response open for as long as the
	// external tool runs.
	HTTPReadTimeout = 10 * time.Second
	HTTPIdleTimeout = 60 * time.Second

	// Per-IP rate limit on the trigger route
	TriggerRateLimit = 10 // requests per second
	TriggerRateBurst = 20
)

// Server is the HTTP trigger surface: a single authenticated route
// that redeploys the named composition.
type Server struct {
	Config   *composition.Config
	Registry *composition.Registry
	Deployer *deploy.Deployer
	Logger   *slog.Logger
	TestMode bool

	mu         sync.Mutex // Guards httpServer and addr
	httpServer *http.Server
	addr       string
}

// NewServer creates a new trigger server instance
func NewServer(config *composition.Config, registry *composition.Registry, deployer *deploy.Deployer, logger *slog.Logger, testMode bool) *Server {
	return &Server{
		Config:   config,
		Registry: registry,
		Deployer: deployer,
		Logger:   logger,
		TestMode: testMode,
	}
}

// Router creates and configures the HTTP router
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Logging middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				s.Logger.Info("http_request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"remote_addr", r.RemoteAddr)
			}()

			next.ServeHTTP(ww, r)
		})
	})

	// Rate limiting middleware (only if not in test mode)
	if !s.TestMode {
		r.Use(NewRateLimitMiddleware(TriggerRateLimit, TriggerRateBurst, s.Logger))
	}

	// The trigger route: any method, exactly one path segment bound to
	// the composition name
	r.HandleFunc("/{name}", s.HandleRedeploy)

	return r
}

// Start binds the listener and serves in a background goroutine. Serve
// errors after a successful bind arrive on the returned channel, which
// closes once the server stops.
func (s *Server) Start(addr string) (<-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:     s.Router(),
		ReadTimeout: HTTPReadTimeout,
		IdleTimeout: HTTPIdleTimeout,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	s.Logger.Info("trigger server started", "addr", ln.Addr().String())
	return errCh, nil
}

// Addr returns the bound address once Start has succeeded. Useful when
// starting on port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Shutdown stops accepting new requests and drains in-flight ones,
// including any redeploy still running inside a handler.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
