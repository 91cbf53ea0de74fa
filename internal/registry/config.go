package registry

import (
	"context"
	"fmt"

	"github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"
)

// BuildGatewayConfig assembles a gatewaycfg.Config from the registry's
// current upstream rows plus the static policy fields (separator, deny
// mode, glob patterns, refresh interval) that come from the host config
// file rather than the registry. The host's gateway snapshot builder calls
// it on every catalog refresh so admin-added upstreams take effect without
// a process restart.
func BuildGatewayConfig(ctx context.Context, store Store, base gatewaycfg.Config) (*gatewaycfg.Config, error) {
	upstreams, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: build gateway config: %w", err)
	}
	cfg := base
	cfg.Upstreams = upstreams
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Seed inserts the upstreams from a static GatewayConfig into the registry,
// skipping any upstream name that already has a row (the registry, once
// seeded, is the source of truth; later starts never clobber admin edits).
func Seed(ctx context.Context, store Store, upstreams []gatewaycfg.Upstream) error {
	for i := range upstreams {
		u := upstreams[i]
		if _, err := store.Get(ctx, u.UpstreamName); err == nil {
			continue
		}
		if err := store.Put(ctx, &u); err != nil {
			return fmt.Errorf("registry: seed upstream %q: %w", u.UpstreamName, err)
		}
	}
	return nil
}
