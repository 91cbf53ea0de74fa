// Package snapshot provides a generic, lock-free atomic-swap holder used
// by both the catalog compiler (internal/compiler) and the gateway
// aggregator (internal/gateway) to publish an immutable value that readers
// consult without any locking on the hot path.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Builder produces a fresh snapshot and reports the opaque source version
// it was built from. A stable, unchanged source version lets EnsureFresh
// skip a rebuild entirely.
type Builder[T any] func(ctx context.Context) (snap T, sourceVersion string, err error)

// Provider holds the current value of T behind an atomic pointer. Reads
// are wait-free; writes happen only inside Reload/EnsureFresh.
type Provider[T any] struct {
	current atomic.Pointer[T]

	build             Builder[T]
	validate          func(T) error
	minReloadInterval time.Duration
	logger            *slog.Logger

	mu                sync.Mutex // serializes reload/ensureFresh calls only
	lastReloadUtc     time.Time
	lastSourceVersion string

	reloadTotal  metric.Int64Counter
	providerAttr attribute.KeyValue
}

// New constructs a Provider seeded with initial — the initial snapshot is
// typically empty, with callers passing a zero-tool/zero-upstream value.
// validate is called on every freshly built value before it is published;
// a failing validate keeps the previous snapshot in place.
func New[T any](initial T, build Builder[T], validate func(T) error, minReloadInterval time.Duration, logger *slog.Logger) *Provider[T] {
	p := &Provider[T]{
		build:             build,
		validate:          validate,
		minReloadInterval: minReloadInterval,
		logger:            logger,
	}
	p.current.Store(&initial)
	return p
}

// WithMeter attaches an OTel counter mirroring every Reload/EnsureFresh
// reload attempt, labelled by name and outcome ("ok" or "error"). A
// Provider built without WithMeter records nothing — the counter is
// entirely optional instrumentation, not load-bearing for correctness.
func (p *Provider[T]) WithMeter(meter metric.Meter, name string) *Provider[T] {
	if meter == nil {
		return p
	}
	counter, err := meter.Int64Counter(
		"gateway.snapshot.reload_total",
		metric.WithDescription("count of snapshot provider reload attempts, by outcome"),
	)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("snapshot: failed to create reload counter instrument", "error", err)
		}
		return p
	}
	p.reloadTotal = counter
	p.providerAttr = attribute.String("provider", name)
	return p
}

func (p *Provider[T]) recordReload(ctx context.Context, outcome string) {
	if p.reloadTotal == nil {
		return
	}
	p.reloadTotal.Add(ctx, 1, metric.WithAttributes(p.providerAttr, attribute.String("outcome", outcome)))
}

// GetSnapshot is the wait-free hot-path read.
func (p *Provider[T]) GetSnapshot() T {
	return *p.current.Load()
}

// LastReloadUtc returns the time of the last reload or unchanged-version
// check, read under the same mutex that serializes reloads.
func (p *Provider[T]) LastReloadUtc() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastReloadUtc
}

// Reload unconditionally fetches a fresh value and publishes it atomically
// if valid. Builder errors propagate to the caller; the previous snapshot
// remains published.
func (p *Provider[T]) Reload(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reloadLocked(ctx)
}

func (p *Provider[T]) reloadLocked(ctx context.Context) error {
	snap, sourceVersion, err := p.build(ctx)
	if err != nil {
		p.recordReload(ctx, "error")
		return err
	}
	if p.validate != nil {
		if err := p.validate(snap); err != nil {
			p.recordReload(ctx, "error")
			return fmt.Errorf("snapshot: builder produced an invalid snapshot: %w", err)
		}
	}

	p.current.Store(&snap)
	p.lastReloadUtc = time.Now()
	p.lastSourceVersion = sourceVersion
	p.recordReload(ctx, "ok")
	return nil
}

// EnsureFresh implements a combined throttle:
//  1. if time since last reload < minReloadInterval, return the current
//     snapshot unchanged;
//  2. otherwise fetch the latest known source version via peekVersion; if
//     it equals the last seen version, bump lastReloadUtc and return
//     current;
//  3. otherwise reload.
//
// On a reload error, the error is logged and the previous snapshot is
// returned so the service remains available.
func (p *Provider[T]) EnsureFresh(ctx context.Context, peekVersion func(ctx context.Context) (string, error)) T {
	p.mu.Lock()
	defer p.mu.Unlock()

	if time.Since(p.lastReloadUtc) < p.minReloadInterval {
		return p.GetSnapshot()
	}

	sourceVersion, err := peekVersion(ctx)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("snapshot: failed to peek source version, serving stale snapshot", "error", err)
		}
		return p.GetSnapshot()
	}

	if sourceVersion == p.lastSourceVersion && !p.lastReloadUtc.IsZero() {
		p.lastReloadUtc = time.Now()
		return p.GetSnapshot()
	}

	if err := p.reloadLocked(ctx); err != nil {
		if p.logger != nil {
			p.logger.Error("snapshot: reload failed, serving stale snapshot", "error", err)
		}
	}
	return p.GetSnapshot()
}
