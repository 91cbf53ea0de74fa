// Package gateway implements the gateway aggregator: parallel tools/list
// fan-out to upstream MCP servers, namespacing, per-upstream health
// tracking, and partial-failure tolerance.
package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"
)

// Aggregator builds a gatewaycfg.Snapshot by fanning out to every enabled
// upstream concurrently.
type Aggregator struct {
	client UpstreamClient
	cfg    gatewaycfg.Config
}

// NewAggregator constructs an Aggregator against the given client and a
// gateway config (already defaulted via Config.WithDefaults).
func NewAggregator(client UpstreamClient, cfg gatewaycfg.Config) *Aggregator {
	return &Aggregator{client: client, cfg: cfg}
}

type fanOutResult struct {
	upstream gatewaycfg.Upstream
	tools    []RemoteTool
	status   gatewaycfg.UpstreamStatus
}

// BuildSnapshot fans out tools/list to every enabled upstream and returns
// the aggregated snapshot. It never returns an error for individual
// upstream failures —
// those become unhealthy status entries — only for structural problems
// like an invalid config.
func (a *Aggregator) BuildSnapshot(ctx context.Context) (*gatewaycfg.Snapshot, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([]fanOutResult, len(a.cfg.Upstreams))
	var wg sync.WaitGroup
	for i := range a.cfg.Upstreams {
		u := a.cfg.Upstreams[i]
		wg.Add(1)
		go func(i int, u gatewaycfg.Upstream) {
			defer wg.Done()
			results[i] = a.fetchOne(ctx, u)
		}(i, u)
	}
	wg.Wait()

	separator := a.cfg.ToolNameSeparator
	if separator == "" {
		separator = "."
	}
	policy := admissionPolicy{
		Allowed:       a.cfg.AllowedToolPatterns,
		Denied:        a.cfg.DeniedToolPatterns,
		DenyByDefault: a.cfg.DenyByDefault,
	}

	snap := gatewaycfg.NewEmptySnapshot()
	for _, r := range results {
		snap.StatusByUpstream[r.upstream.UpstreamName] = r.status
		if !r.status.Healthy || !r.upstream.Enabled {
			continue
		}
		for _, rt := range r.tools {
			namespaced := r.upstream.NamespacePrefix + separator + rt.Name
			if !admitted(policy, namespaced) {
				continue
			}
			snap.ToolsByName[namespaced] = gatewaycfg.AggregatedTool{
				Name:            namespaced,
				UpstreamName:    r.upstream.UpstreamName,
				UpstreamToolRaw: rt.Name,
				Description:     rt.Description,
				InputSchema:     rt.InputSchema,
			}
		}
	}

	snap.CreatedUtc = time.Now().UTC()
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (a *Aggregator) fetchOne(ctx context.Context, u gatewaycfg.Upstream) fanOutResult {
	if !u.Enabled {
		return fanOutResult{
			upstream: u,
			status:   gatewaycfg.UpstreamStatus{Healthy: false, LastCheckUtc: time.Now().UTC(), LastError: "disabled"},
		}
	}

	start := nowMono()
	tools, err := a.client.ListTools(ctx, u)
	latency := time.Since(start)

	if err != nil {
		return fanOutResult{
			upstream: u,
			status: gatewaycfg.UpstreamStatus{
				Healthy:      false,
				LastCheckUtc: time.Now().UTC(),
				LastError:    err.Error(),
				LatencyMs:    latency.Milliseconds(),
			},
		}
	}

	return fanOutResult{
		upstream: u,
		tools:    tools,
		status: gatewaycfg.UpstreamStatus{
			Healthy:      true,
			LastCheckUtc: time.Now().UTC(),
			LatencyMs:    latency.Milliseconds(),
			ToolCount:    len(tools),
		},
	}
}
