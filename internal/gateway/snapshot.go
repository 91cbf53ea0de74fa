package gateway

import (
	"context"
	"time"

	"github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"
	"github.com/atakanatali/contextify-gateway/internal/snapshot"
)

// Builder adapts Aggregator.BuildSnapshot to the snapshot.Builder[T] shape.
// Aggregation carries no opaque source-version the way policy config does —
// every upstream is re-polled on every build — so the returned version is a
// constant placeholder and refresh is driven purely by elapsed time rather
// than the version-equality skip in snapshot.Provider.EnsureFresh.
func (a *Aggregator) Builder() snapshot.Builder[*gatewaycfg.Snapshot] {
	return func(ctx context.Context) (*gatewaycfg.Snapshot, string, error) {
		snap, err := a.BuildSnapshot(ctx)
		if err != nil {
			return nil, "", err
		}
		return snap, "unversioned", nil
	}
}

// RefreshLoop reloads the given provider every interval until ctx is
// cancelled. It bypasses Provider.EnsureFresh's version-skip check (there is
// no meaningful version to compare) and calls Reload directly, matching the
// "re-fetch every interval regardless of version" semantics gateway
// aggregation wants specifically.
func RefreshLoop(ctx context.Context, provider *snapshot.Provider[*gatewaycfg.Snapshot], interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = provider.Reload(ctx)
		}
	}
}
