package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/teemow/slotbot/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultMetricsReadTimeout is the default read timeout for the metrics server.
	DefaultMetricsReadTimeout = 10 * time.Second

	// DefaultMetricsWriteTimeout is the default write timeout for the metrics server.
	DefaultMetricsWriteTimeout = 10 * time.Second

	// DefaultMetricsIdleTimeout is the default idle timeout for the metrics server.
	DefaultMetricsIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful server shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the address to bind the metrics server to (e.g., ":9090").
	Addr string

	// InstrumentationProvider provides the Prometheus metrics handler.
	InstrumentationProvider *instrumentation.Provider

	// HealthChecker serves /healthz, /readyz and /healthz/detailed.
	// Without one only a plain /healthz is served.
	HealthChecker *HealthChecker
}

// MetricsServer serves Prometheus metrics and health probes on a dedicated
// port, away from any user facing listener.
type MetricsServer struct {
	addr    string
	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	boundAddr  string
}

// NewMetricsServer creates a new metrics server with the given configuration.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}

	if config.InstrumentationProvider == nil {
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	}

	if !config.InstrumentationProvider.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}

	metricsHandler := config.InstrumentationProvider.PrometheusHandler()
	if metricsHandler == nil {
		return nil, fmt.Errorf("prometheus exporter is not configured")
	}

	mux := http.NewServeMux()
	mux.Handle(config.InstrumentationProvider.PrometheusPath(), metricsHandler)
	if config.HealthChecker != nil {
		config.HealthChecker.RegisterHealthEndpoints(mux)
	} else {
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
	}

	return &MetricsServer{
		addr:    config.Addr,
		handler: mux,
	}, nil
}

// Handler returns the server's routes.
func (s *MetricsServer) Handler() http.Handler {
	return s.handler
}

// Start starts the metrics server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *MetricsServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.boundAddr = ln.Addr().String()
	s.mu.Unlock()

	slog.Info("starting metrics server", "addr", ln.Addr().String())
	return srv.Serve(ln)
}

// Shutdown gracefully shuts down the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		slog.Info("shutting down metrics server")
		return srv.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the metrics server.
func (s *MetricsServer) Addr() string {
	return s.addr
}

// BoundAddr returns the address the server is listening on once started,
// resolving ":0" to the chosen port. It is empty before Start.
func (s *MetricsServer) BoundAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundAddr
}
