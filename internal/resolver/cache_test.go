package resolver

import (
	"testing"

	"github.com/atakanatali/contextify-gateway/internal/domain/endpoint"
	"github.com/atakanatali/contextify-gateway/internal/domain/policy"
)

func TestCacheResolveReturnsSameResultAsUncached(t *testing.T) {
	e := &endpoint.Descriptor{RouteTemplate: "/api/tools/{id}", HTTPMethod: "DELETE"}
	cfg := &policy.Config{
		Whitelist: []policy.EndpointPolicy{
			{RouteTemplate: "/api/tools/{id}", HTTPMethod: "DELETE", Enabled: true, TimeoutMs: 5000},
		},
	}

	want, err := Resolve(e, cfg, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	c := NewCache()
	got, err := c.Resolve(e, cfg, nil)
	if err != nil {
		t.Fatalf("Cache.Resolve() error = %v", err)
	}
	if got.Enabled != want.Enabled || got.Source != want.Source {
		t.Errorf("Cache.Resolve() = %+v, want %+v", got, want)
	}
	if got.TimeoutMs == nil || want.TimeoutMs == nil || *got.TimeoutMs != *want.TimeoutMs {
		t.Errorf("Cache.Resolve() TimeoutMs = %v, want %v", got.TimeoutMs, want.TimeoutMs)
	}
}

func TestCacheResolveMemoizesRepeatedEndpoint(t *testing.T) {
	cfg := &policy.Config{
		Whitelist: []policy.EndpointPolicy{
			{RouteTemplate: "/api/foo", HTTPMethod: "GET", Enabled: true},
		},
	}

	c := NewCache()
	first := &endpoint.Descriptor{RouteTemplate: "/api/foo", HTTPMethod: "GET"}
	second := &endpoint.Descriptor{RouteTemplate: "/api/foo", HTTPMethod: "GET"}

	r1, err := c.Resolve(first, cfg, nil)
	if err != nil {
		t.Fatalf("Cache.Resolve() error = %v", err)
	}
	r2, err := c.Resolve(second, cfg, nil)
	if err != nil {
		t.Fatalf("Cache.Resolve() error = %v", err)
	}
	if r1 != r2 {
		t.Errorf("expected memoized resolution for identical endpoints, got %+v and %+v", r1, r2)
	}
}

func TestCacheResolveDistinguishesDifferentEndpoints(t *testing.T) {
	cfg := &policy.Config{
		Whitelist: []policy.EndpointPolicy{
			{RouteTemplate: "/api/foo", HTTPMethod: "GET", Enabled: true},
			{RouteTemplate: "/api/bar", HTTPMethod: "GET", Enabled: false},
		},
	}

	c := NewCache()
	foo, err := c.Resolve(&endpoint.Descriptor{RouteTemplate: "/api/foo", HTTPMethod: "GET"}, cfg, nil)
	if err != nil {
		t.Fatalf("Cache.Resolve() error = %v", err)
	}
	bar, err := c.Resolve(&endpoint.Descriptor{RouteTemplate: "/api/bar", HTTPMethod: "GET"}, cfg, nil)
	if err != nil {
		t.Fatalf("Cache.Resolve() error = %v", err)
	}
	if foo.Enabled == bar.Enabled {
		t.Errorf("expected different resolutions, got foo=%+v bar=%+v", foo, bar)
	}
}
