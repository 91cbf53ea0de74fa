package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	httpadapter "github.com/atakanatali/contextify-gateway/internal/adapter/http"
	"github.com/atakanatali/contextify-gateway/internal/adminauth"
	"github.com/atakanatali/contextify-gateway/internal/celrule"
	"github.com/atakanatali/contextify-gateway/internal/compiler"
	"github.com/atakanatali/contextify-gateway/internal/config"
	"github.com/atakanatali/contextify-gateway/internal/dispatcher"
	"github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"
	"github.com/atakanatali/contextify-gateway/internal/domain/tool"
	"github.com/atakanatali/contextify-gateway/internal/executor"
	"github.com/atakanatali/contextify-gateway/internal/gateway"
	"github.com/atakanatali/contextify-gateway/internal/policydoc"
	"github.com/atakanatali/contextify-gateway/internal/redaction"
	"github.com/atakanatali/contextify-gateway/internal/registry"
	"github.com/atakanatali/contextify-gateway/internal/snapshot"
	"github.com/atakanatali/contextify-gateway/internal/telemetry"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gateway server",
	Long: `Start the contextify-gateway server.

The server always aggregates the remote upstreams configured under
"gateway.upstreams" (and any the registry has on file). If
"policy.endpoints_path" is set it also compiles a local policy-governed
tool catalog from that endpoint list; both are served behind the same
JSON-RPC surface.

Examples:
  # Start with config file settings
  contextify-gateway start

  # Start with a specific config file
  contextify-gateway --config /path/to/config.yaml start`,
	RunE: runStart,
}

var devMode bool

// upstreamHealthHistoryCapacity bounds the per-upstream health transition
// ring buffer surfaced in diagnostics.
const upstreamHealthHistoryCapacity = 20

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (verbose logging)")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if devMode {
		cfg.DevMode = true
	}

	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	logger.Debug("log level configured", "level", cfg.Server.LogLevel, "effective", logLevel.String())

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	pidPath := pidFilePath()
	if err := writePIDFile(pidPath); err != nil {
		logger.Warn("failed to write PID file", "path", pidPath, "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), gracefulSignals()...)
	go func() {
		<-ctx.Done()
		stop()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("contextify-gateway stopped")
	return nil
}

// run wires every collaborator together and blocks until ctx is cancelled.
// It implements the boot sequence BOOT-01 through BOOT-08.
func run(ctx context.Context, cfg *config.GatewayHostConfig, logger *slog.Logger) error {
	startTime := time.Now().UTC()

	// ===== BOOT-01: first-boot admin bearer token =====
	statePath := stateFilePath
	if statePath == "" {
		statePath = cfg.Admin.StatePath
	}
	tokenHash := cfg.Admin.TokenHash
	if tokenHash == "" {
		seeded, err := seedAdminToken(statePath, logger)
		if err != nil {
			return fmt.Errorf("admin token: %w", err)
		}
		tokenHash = seeded
	}

	// ===== BOOT-02: telemetry =====
	var tracer trace.Tracer
	var meter metric.Meter
	if cfg.Telemetry.Enabled {
		t, m, shutdownTelemetry, err := telemetry.Setup(os.Stderr)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTelemetry(shCtx)
		}()
		tracer = t
		meter = m
	}

	// ===== BOOT-03: upstream registry =====
	store, err := registry.Open(cfg.Registry.DBPath)
	if err != nil {
		return fmt.Errorf("registry: open %s: %w", cfg.Registry.DBPath, err)
	}
	defer store.Close()

	baseGatewayCfg := cfg.Gateway.ToDomain().WithDefaults()
	if err := registry.Seed(ctx, store, baseGatewayCfg.Upstreams); err != nil {
		return fmt.Errorf("registry: seed: %w", err)
	}

	// ===== BOOT-04: gateway aggregation pipeline =====
	httpClient := &http.Client{}
	upstreamClient := gateway.NewHTTPUpstreamClient()
	forwarder := gateway.NewForwarder(httpClient, baseGatewayCfg.Upstreams)
	// healthTracker outlives any single gatewayBuilder call so it can diff
	// each reload's statuses against the previous one.
	healthTracker := gatewaycfg.NewHealthTracker(upstreamHealthHistoryCapacity)

	gatewayBuilder := func(ctx context.Context) (*gatewaycfg.Snapshot, string, error) {
		liveCfg, err := registry.BuildGatewayConfig(ctx, store, baseGatewayCfg)
		if err != nil {
			return nil, "", err
		}
		forwarder.SetUpstreams(liveCfg.Upstreams)
		snap, err := gateway.NewAggregator(upstreamClient, *liveCfg).BuildSnapshot(ctx)
		if err != nil {
			return nil, "", err
		}
		healthTracker.Apply(snap)
		return snap, "unversioned", nil
	}
	gatewayProvider := snapshot.New(gatewaycfg.NewEmptySnapshot(), gatewayBuilder, (*gatewaycfg.Snapshot).Validate, time.Second, logger).WithMeter(meter, "gateway")
	if err := gatewayProvider.Reload(ctx); err != nil {
		logger.Warn("initial gateway aggregation failed, starting with an empty catalog", "error", err)
	}
	go gateway.RefreshLoop(ctx, gatewayProvider, baseGatewayCfg.CatalogRefreshInterval)

	// ===== BOOT-05: optional local endpoint catalog pipeline =====
	var catalogProvider *snapshot.Provider[*tool.CatalogSnapshot]
	if cfg.Policy.EndpointsPath != "" {
		celEval, err := celrule.NewEvaluator()
		if err != nil {
			return fmt.Errorf("celrule: %w", err)
		}

		catalogBuilder := func(ctx context.Context) (*tool.CatalogSnapshot, string, error) {
			policyCfg, err := policydoc.LoadPolicyConfig(cfg.Policy.Path)
			if err != nil {
				return nil, "", err
			}
			endpoints, err := policydoc.LoadEndpoints(cfg.Policy.EndpointsPath)
			if err != nil {
				return nil, "", err
			}
			snap, report, err := compiler.Compile(compiler.Input{
				Endpoints: endpoints,
				Policy:    policyCfg,
				CELEval:   celEval,
			})
			if err != nil {
				return nil, "", err
			}
			if len(report.Entries) > 0 {
				logger.Warn("catalog compiled with gaps", "entries", len(report.Entries))
			}
			return snap, policyCfg.SourceVersion, nil
		}
		catalogProvider = snapshot.New(tool.NewEmptyCatalogSnapshot(), catalogBuilder, (*tool.CatalogSnapshot).Validate, cfg.Policy.PollInterval, logger).WithMeter(meter, "catalog")
		if err := catalogProvider.Reload(ctx); err != nil {
			return fmt.Errorf("initial catalog compile failed: %w", err)
		}
		go catalogRefreshLoop(ctx, catalogProvider, cfg.Policy.Path, cfg.Policy.PollInterval, logger)
	}

	// ===== BOOT-06: executors + dispatcher =====
	redactor := redaction.New(redaction.Config{
		Enabled:       cfg.Redaction.Enabled,
		FieldKeywords: cfg.Redaction.FieldKeywords,
		PatternRules:  cfg.Redaction.PatternRules,
	})
	var toolExecutor dispatcher.ToolExecutor = executor.NewExecutor(httpClient, "").WithRedactor(redactor)

	var catalogReader dispatcher.SnapshotReader = emptyCatalogReader{}
	var toolCatalogReader httpadapter.ToolCatalogReader = emptyCatalogReader{}
	if catalogProvider != nil {
		catalogReader = catalogProvider
		toolCatalogReader = catalogProvider
	}

	d := dispatcher.New(catalogReader, toolExecutor, logger, cfg.Server.ManifestName, Version)
	d = d.WithGateway(gatewayProvider, forwarder)
	if tracer != nil {
		d = d.WithTracer(tracer)
	}

	// ===== BOOT-07: HTTP server =====
	server := httpadapter.New(
		cfg.Server.HTTPAddr,
		cfg.Server.ManifestName,
		cfg.Server.DiagnosticsPath,
		d,
		toolCatalogReader,
		httpadapter.WithLogger(logger),
		httpadapter.WithAdminTokenHash(tokenHash),
		httpadapter.WithGatewaySnapshotReader(gatewayProvider),
	)

	// ===== BOOT-08: serve =====
	printBanner(Version, cfg.Server.HTTPAddr, cfg.DevMode, len(baseGatewayCfg.Upstreams), startTime)
	return server.Start(ctx)
}

// emptyCatalogReader satisfies both dispatcher.SnapshotReader and
// httpadapter.ToolCatalogReader for a host that never sets
// policy.endpoints_path, i.e. runs gateway aggregation only.
type emptyCatalogReader struct{}

func (emptyCatalogReader) GetSnapshot() *tool.CatalogSnapshot {
	return tool.NewEmptyCatalogSnapshot()
}

// catalogRefreshLoop periodically calls EnsureFresh against the policy
// document's cheap source-version peek, matching the throttle/peek/reload
// discipline internal/snapshot.Provider documents.
func catalogRefreshLoop(ctx context.Context, provider *snapshot.Provider[*tool.CatalogSnapshot], policyPath string, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	peek := func(ctx context.Context) (string, error) {
		return policydoc.PeekSourceVersion(policyPath)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			provider.EnsureFresh(ctx, peek)
		}
	}
}

func seedAdminToken(statePath string, logger *slog.Logger) (string, error) {
	store := adminauth.NewTokenStore(statePath)
	state, err := store.Load()
	if err != nil {
		return "", err
	}
	if state.TokenHash != "" {
		return state.TokenHash, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	rawToken := hex.EncodeToString(raw)
	hash, err := adminauth.HashToken(rawToken)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	if err := store.Save(&adminauth.TokenState{TokenHash: hash, CreatedAt: time.Now().UTC()}); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Generated admin bearer token (save this, it will not be shown again):\n  %s\n", rawToken)
	logger.Info("generated first-boot admin token", "state_path", statePath)
	return hash, nil
}

// parseLogLevel converts a string log level to slog.Level. Returns
// slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printBanner(version, httpAddr string, devMode bool, upstreamCount int, startTime time.Time) {
	mode := "production"
	if devMode {
		mode = "dev"
	}
	fmt.Fprintf(os.Stderr, "contextify-gateway %s (%s mode)\n", version, mode)
	fmt.Fprintf(os.Stderr, "  listening:        %s\n", httpAddr)
	fmt.Fprintf(os.Stderr, "  upstreams:        %d\n", upstreamCount)
	fmt.Fprintf(os.Stderr, "  started:          %s\n", startTime.Format(time.RFC3339))
}
