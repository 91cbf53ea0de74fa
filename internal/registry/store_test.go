package registry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"
)

func openTestStore(t *testing.T) *SQLiteUpstreamStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleUpstream(name string) *gatewaycfg.Upstream {
	return &gatewaycfg.Upstream{
		UpstreamName:    name,
		McpHTTPEndpoint: "http://" + name + ".local/mcp",
		NamespacePrefix: name,
		Enabled:         true,
		RequestTimeout:  5 * time.Second,
		DefaultHeaders:  map[string]string{"X-Source": "registry"},
	}
}

func TestSQLiteUpstreamStorePutAndGet(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, sampleUpstream("weather")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "weather")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.McpHTTPEndpoint != "http://weather.local/mcp" {
		t.Errorf("McpHTTPEndpoint = %q, want %q", got.McpHTTPEndpoint, "http://weather.local/mcp")
	}
	if got.DefaultHeaders["X-Source"] != "registry" {
		t.Errorf("DefaultHeaders[X-Source] = %q, want %q", got.DefaultHeaders["X-Source"], "registry")
	}
}

func TestSQLiteUpstreamStoreGetMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if _, err := store.Get(context.Background(), "missing"); err != ErrUpstreamNotFound {
		t.Errorf("Get() error = %v, want ErrUpstreamNotFound", err)
	}
}

func TestSQLiteUpstreamStorePutUpsertsOnConflict(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, sampleUpstream("weather")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	updated := sampleUpstream("weather")
	updated.Enabled = false
	if err := store.Put(ctx, updated); err != nil {
		t.Fatalf("Put() update error = %v", err)
	}

	got, err := store.Get(ctx, "weather")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Enabled {
		t.Error("Enabled = true, want false after update")
	}
}

func TestSQLiteUpstreamStoreDelete(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, sampleUpstream("weather")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Delete(ctx, "weather"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "weather"); err != ErrUpstreamNotFound {
		t.Errorf("Get() after delete error = %v, want ErrUpstreamNotFound", err)
	}
}

func TestSQLiteUpstreamStoreDeleteMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if err := store.Delete(context.Background(), "missing"); err != ErrUpstreamNotFound {
		t.Errorf("Delete() error = %v, want ErrUpstreamNotFound", err)
	}
}

func TestSQLiteUpstreamStoreList(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, sampleUpstream("weather")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, sampleUpstream("analytics")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("List() returned %d upstreams, want 2", len(all))
	}
}
