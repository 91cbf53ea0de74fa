// Package metrics holds the Prometheus registry for the gateway's own
// concerns: resolutions, snapshot reloads, tool executions, and upstream
// health. Metrics are built with promauto.With(reg) and a
// Namespace/Name/Help triple per metric.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every metric the gateway exposes on its diagnostics
// surface.
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	PolicyResolutions   *prometheus.CounterVec
	CatalogReloadsTotal *prometheus.CounterVec
	CatalogToolCount    prometheus.Gauge
	GatewayUpstreamHealthy *prometheus.GaugeVec
	ToolExecutionsTotal *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec
}

// New creates and registers every metric against reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contextify_gateway",
				Name:      "requests_total",
				Help:      "Total number of JSON-RPC requests processed",
			},
			[]string{"method", "status"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "contextify_gateway",
				Name:      "request_duration_seconds",
				Help:      "JSON-RPC request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		PolicyResolutions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contextify_gateway",
				Name:      "policy_resolutions_total",
				Help:      "Total endpoint-to-tool policy resolutions by source",
			},
			[]string{"source", "enabled"}, // source=Blacklist|Whitelist|Default
		),
		CatalogReloadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contextify_gateway",
				Name:      "catalog_reloads_total",
				Help:      "Total catalog/gateway snapshot reload attempts",
			},
			[]string{"snapshot", "result"}, // snapshot=catalog|gateway, result=ok|error
		),
		CatalogToolCount: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "contextify_gateway",
				Name:      "catalog_tool_count",
				Help:      "Number of tools in the currently published catalog snapshot",
			},
		),
		GatewayUpstreamHealthy: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "contextify_gateway",
				Name:      "gateway_upstream_healthy",
				Help:      "1 if the upstream's last health check succeeded, else 0",
			},
			[]string{"upstream"},
		),
		ToolExecutionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "contextify_gateway",
				Name:      "tool_executions_total",
				Help:      "Total tool executions by outcome category",
			},
			[]string{"tool", "category"}, // category=success|TIMEOUT|CANCELLED|...
		),
		ToolExecutionDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "contextify_gateway",
				Name:      "tool_execution_duration_seconds",
				Help:      "Tool execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
	}
}
