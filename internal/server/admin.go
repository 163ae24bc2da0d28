package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dockhand/internal/composition"
)

// AdminRequestTimeout bounds admin requests. Health and metrics are
// quick; nothing on this listener runs an external tool.
const AdminRequestTimeout = 30 * time.Second

// AdminServer is the optional operational surface: health and
// Prometheus metrics. It binds its own listener so the trigger route
// keeps its exact status and body contract.
type AdminServer struct {
	Registry *composition.Registry
	Logger   *slog.Logger

	mu         sync.Mutex // Guards httpServer and addr
	httpServer *http.Server
	addr       string
	started    time.Time
}

// NewAdminServer creates a new admin server instance
func NewAdminServer(registry *composition.Registry, logger *slog.Logger) *AdminServer {
	return &AdminServer{
		Registry: registry,
		Logger:   logger,
	}
}

// Router creates and configures the admin HTTP router
func (a *AdminServer) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(AdminRequestTimeout))

	r.Get("/healthz", a.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// HandleHealth handles health check requests
func (a *AdminServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":            "ok",
		"compositions":      a.Registry.Names(),
		"composition_count": a.Registry.Count(),
		"uptime_seconds":    int64(time.Since(a.started).Seconds()),
	}

	a.respondJSON(w, http.StatusOK, response)
}

// respondJSON sends a JSON response
func (a *AdminServer) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.Logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Start binds the listener and serves in a background goroutine. Serve
// errors after a successful bind arrive on the returned channel, which
// closes once the server stops.
func (a *AdminServer) Start(addr string) (<-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:      a.Router(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: AdminRequestTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	a.mu.Lock()
	a.httpServer = srv
	a.addr = ln.Addr().String()
	a.started = time.Now()
	a.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	a.Logger.Info("admin server started", "addr", ln.Addr().String())
	return errCh, nil
}

// Addr returns the bound address once Start has succeeded.
func (a *AdminServer) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addr
}

// Shutdown stops the admin server.
func (a *AdminServer) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	srv := a.httpServer
	a.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
