package compiler

import (
	"testing"

	"github.com/atakanatali/contextify-gateway/internal/domain/endpoint"
	"github.com/atakanatali/contextify-gateway/internal/domain/policy"
	"github.com/atakanatali/contextify-gateway/internal/domain/tool"
)

func TestCompileNamesCollisionGetsSuffixed(t *testing.T) {
	in := Input{
		Endpoints: []endpoint.Descriptor{
			{RouteTemplate: "/api/foo", HTTPMethod: "GET"},
			{RouteTemplate: "/api//foo/", HTTPMethod: "GET"},
		},
		Policy: &policy.Config{DenyByDefault: false},
	}

	snap, report, err := Compile(in)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(snap.ToolsByName) != 2 {
		t.Fatalf("expected 2 tools, got %d: %#v", len(snap.ToolsByName), snap.ToolsByName)
	}

	plain := 0
	suffixed := 0
	for name := range snap.ToolsByName {
		if name == "GET_api_foo" {
			plain++
		} else {
			suffixed++
		}
	}
	if plain != 1 || suffixed != 1 {
		t.Errorf("expected one plain and one suffixed name, got plain=%d suffixed=%d names=%v", plain, suffixed, keys(snap.ToolsByName))
	}

	found := false
	for _, e := range report.Entries {
		if e.Reason == "name-collision" {
			found = true
		}
	}
	if !found {
		t.Error("expected a name-collision gap report entry")
	}
}

func TestCompileSkipsDisabledEndpoints(t *testing.T) {
	in := Input{
		Endpoints: []endpoint.Descriptor{
			{RouteTemplate: "/api/secret", HTTPMethod: "DELETE"},
		},
		Policy: &policy.Config{DenyByDefault: true},
	}

	snap, report, err := Compile(in)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if len(snap.ToolsByName) != 0 {
		t.Errorf("expected 0 tools, got %d", len(snap.ToolsByName))
	}

	found := false
	for _, e := range report.Entries {
		if e.Reason == "disabled-by-policy" {
			found = true
		}
	}
	if !found {
		t.Error("expected a disabled-by-policy gap report entry")
	}
}

func TestCompileAppliesToolNameOverride(t *testing.T) {
	in := Input{
		Endpoints: []endpoint.Descriptor{
			{RouteTemplate: "/api/foo", HTTPMethod: "GET"},
		},
		Policy: &policy.Config{
			Whitelist: []policy.EndpointPolicy{
				{RouteTemplate: "/api/foo", HTTPMethod: "GET", Enabled: true, ToolName: "fetch_foo"},
			},
		},
	}

	snap, _, err := Compile(in)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, ok := snap.ToolsByName["fetch_foo"]; !ok {
		t.Errorf("expected overridden tool name fetch_foo in snapshot, got %v", keys(snap.ToolsByName))
	}
}

func TestCompileDescriptionPrefersPolicyOverOpenAPIOverFallback(t *testing.T) {
	in := Input{
		Endpoints: []endpoint.Descriptor{
			{OperationID: "getFoo", RouteTemplate: "/api/foo", HTTPMethod: "GET"},
			{OperationID: "getBar", RouteTemplate: "/api/bar", HTTPMethod: "GET"},
			{OperationID: "getBaz", RouteTemplate: "/api/baz", HTTPMethod: "GET"},
		},
		Enrichment: map[string]endpoint.OpenApiEnrichment{
			"getFoo": {Description: "OpenAPI description for foo"},
			"getBar": {Description: "OpenAPI description for bar"},
		},
		Policy: &policy.Config{
			Whitelist: []policy.EndpointPolicy{
				{OperationID: "getFoo", Enabled: true, Description: "Policy override for foo"},
				{RouteTemplate: "/api/bar", HTTPMethod: "GET", Enabled: true},
				{RouteTemplate: "/api/baz", HTTPMethod: "GET", Enabled: true},
			},
		},
	}

	snap, _, err := Compile(in)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	foo, ok := snap.ToolsByName["GET_api_foo"]
	if !ok {
		t.Fatalf("expected GET_api_foo tool, got %v", keys(snap.ToolsByName))
	}
	if foo.Description != "Policy override for foo" {
		t.Errorf("foo.Description = %q, want policy override", foo.Description)
	}

	bar, ok := snap.ToolsByName["GET_api_bar"]
	if !ok {
		t.Fatalf("expected GET_api_bar tool, got %v", keys(snap.ToolsByName))
	}
	if bar.Description != "OpenAPI description for bar" {
		t.Errorf("bar.Description = %q, want OpenAPI description", bar.Description)
	}

	baz, ok := snap.ToolsByName["GET_api_baz"]
	if !ok {
		t.Fatalf("expected GET_api_baz tool, got %v", keys(snap.ToolsByName))
	}
	if baz.Description != "Execute GET request on /api/baz" {
		t.Errorf("baz.Description = %q, want generated fallback", baz.Description)
	}
}

func TestCompileReportsAuthInferenceWhenModeNotExplicit(t *testing.T) {
	in := Input{
		Endpoints: []endpoint.Descriptor{
			{RouteTemplate: "/api/secure", HTTPMethod: "GET", RequiresAuth: true},
		},
		Policy: &policy.Config{DenyByDefault: false},
	}

	_, report, err := Compile(in)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	found := false
	for _, e := range report.Entries {
		if e.Reason == "auth-inferred" {
			found = true
		}
	}
	if !found {
		t.Error("expected an auth-inferred gap report entry")
	}
}

func TestCompileSkipsAuthInferenceWhenModeExplicit(t *testing.T) {
	in := Input{
		Endpoints: []endpoint.Descriptor{
			{RouteTemplate: "/api/secure", HTTPMethod: "GET", RequiresAuth: true},
		},
		Policy: &policy.Config{
			Whitelist: []policy.EndpointPolicy{
				{
					RouteTemplate:       "/api/secure",
					HTTPMethod:          "GET",
					Enabled:             true,
					AuthPropagationMode: policy.AuthPropagationBearerToken,
				},
			},
		},
	}

	_, report, err := Compile(in)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	for _, e := range report.Entries {
		if e.Reason == "auth-inferred" {
			t.Error("expected no auth-inferred gap report entry when policy sets an explicit mode")
		}
	}
}

func keys(m map[string]tool.Descriptor) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
