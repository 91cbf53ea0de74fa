package http

import (
	"encoding/json"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atakanatali/contextify-gateway/internal/adminauth"
	"github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"
	"github.com/atakanatali/contextify-gateway/internal/domain/tool"
)

// ToolCatalogReader exposes the currently-published policy-compiled tool
// catalog.
type ToolCatalogReader interface {
	GetSnapshot() *tool.CatalogSnapshot
}

// GatewaySnapshotReader exposes the currently-published gateway
// aggregation snapshot.
type GatewaySnapshotReader interface {
	GetSnapshot() *gatewaycfg.Snapshot
}

type diagnosticsCatalog struct {
	TotalTools       int                            `json:"totalTools" yaml:"totalTools"`
	TotalUpstreams   int                            `json:"totalUpstreams" yaml:"totalUpstreams"`
	HealthyUpstreams int                            `json:"healthyUpstreams" yaml:"healthyUpstreams"`
	Upstreams        map[string]diagnosticsUpstream `json:"upstreams,omitempty" yaml:"upstreams,omitempty"`
}

type diagnosticsUpstream struct {
	Healthy   bool   `json:"healthy" yaml:"healthy"`
	ToolCount int    `json:"toolCount" yaml:"toolCount"`
	LastError string `json:"lastError,omitempty" yaml:"lastError,omitempty"`
	// History is the bounded recent history of Healthy transitions,
	// oldest first.
	History []diagnosticsHealthTransition `json:"history,omitempty" yaml:"history,omitempty"`
}

type diagnosticsHealthTransition struct {
	Healthy   bool      `json:"healthy" yaml:"healthy"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	LastError string    `json:"lastError,omitempty" yaml:"lastError,omitempty"`
}

type diagnosticsResponse struct {
	Timestamp time.Time          `json:"timestamp" yaml:"timestamp"`
	Catalog   diagnosticsCatalog `json:"catalog" yaml:"catalog"`
}

// diagnosticsHandler serves GET /<diagnostics-path>, optionally gated by
// an admin bearer token; fuller admin surfaces are left to the host
// wrapper.
func diagnosticsHandler(toolCatalog ToolCatalogReader, gateway GatewaySnapshotReader, adminTokenHash string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := adminauth.Authorize(r, adminTokenHash); err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		resp := diagnosticsResponse{Timestamp: time.Now().UTC()}

		if toolCatalog != nil {
			resp.Catalog.TotalTools = len(toolCatalog.GetSnapshot().ToolsByName)
		}

		if gateway != nil {
			snap := gateway.GetSnapshot()
			resp.Catalog.TotalUpstreams = len(snap.StatusByUpstream)
			resp.Catalog.HealthyUpstreams = snap.HealthyUpstreamCount()
			resp.Catalog.Upstreams = make(map[string]diagnosticsUpstream, len(snap.StatusByUpstream))
			for name, status := range snap.StatusByUpstream {
				history := make([]diagnosticsHealthTransition, len(status.History))
				for i, h := range status.History {
					history[i] = diagnosticsHealthTransition{
						Healthy:   h.Healthy,
						Timestamp: h.Timestamp,
						LastError: h.LastError,
					}
				}
				resp.Catalog.Upstreams[name] = diagnosticsUpstream{
					Healthy:   status.Healthy,
					ToolCount: status.ToolCount,
					LastError: status.LastError,
					History:   history,
				}
			}
		}

		if r.URL.Query().Get("format") == "yaml" {
			w.Header().Set("Content-Type", "application/yaml")
			w.WriteHeader(http.StatusOK)
			_ = yaml.NewEncoder(w).Encode(resp)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	})
}
