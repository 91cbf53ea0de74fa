package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atakanatali/contextify-gateway/internal/dispatcher"
	"github.com/atakanatali/contextify-gateway/internal/metrics"
)

// Server is the HTTP transport exposing the JSON-RPC endpoint plus the
// well-known manifest/diagnostics/health surfaces. Built with functional
// options, mux-based routing, and graceful shutdown on context
// cancellation.
type Server struct {
	addr            string
	manifestName    string
	diagnosticsPath string
	adminTokenHash  string

	dispatcher  *dispatcher.Dispatcher
	toolCatalog ToolCatalogReader
	gateway     GatewaySnapshotReader
	metrics     *metrics.Metrics
	registry    *prometheus.Registry
	logger      *slog.Logger

	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for startup/shutdown messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithAdminTokenHash gates the diagnostics endpoint behind the given
// argon2id token hash. An empty hash leaves diagnostics open.
func WithAdminTokenHash(hash string) Option {
	return func(s *Server) { s.adminTokenHash = hash }
}

// WithGatewaySnapshotReader wires a gateway aggregation snapshot into the
// diagnostics endpoint's upstream health summary.
func WithGatewaySnapshotReader(reader GatewaySnapshotReader) Option {
	return func(s *Server) { s.gateway = reader }
}

// New builds a Server. addr is the HTTP listen address, manifestName is
// echoed in the well-known manifest, diagnosticsPath is the path the
// diagnostics endpoint is served at (e.g. "/diagnostics").
func New(addr, manifestName, diagnosticsPath string, d *dispatcher.Dispatcher, toolCatalog ToolCatalogReader, opts ...Option) *Server {
	s := &Server{
		addr:            addr,
		manifestName:    manifestName,
		diagnosticsPath: diagnosticsPath,
		dispatcher:      d,
		toolCatalog:     toolCatalog,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins accepting HTTP connections. It blocks until ctx is
// cancelled or the server fails to start.
func (s *Server) Start(ctx context.Context) error {
	s.registry = prometheus.NewRegistry()
	s.metrics = metrics.New(s.registry)

	mux := http.NewServeMux()

	rpc := rpcHandler(s.dispatcher)
	rpc = metricsMiddleware(s.metrics, "/mcp")(rpc)
	mux.Handle("/mcp", rpc)

	mux.Handle("/.well-known/contextify/manifest", manifestHandler(s.manifestName, "/mcp"))
	mux.Handle(s.diagnosticsPath, diagnosticsHandler(s.toolCatalog, s.gateway, s.adminTokenHash))
	mux.Handle("/health", healthHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.addr)
		err := s.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down HTTP server")
		return s.shutdown()
	case err := <-errCh:
		return err
	}
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return err
	}
	s.logger.Info("HTTP server shutdown complete")
	return nil
}

// Close gracefully shuts down the server, if started.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	return s.shutdown()
}
