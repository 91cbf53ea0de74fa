package config

import "testing"

func validConfig() GatewayHostConfig {
	return GatewayHostConfig{
		Server: ServerConfig{
			HTTPAddr:        "127.0.0.1:8080",
			ManifestName:    "contextify-gateway",
			DiagnosticsPath: "/diagnostics",
		},
		Policy: PolicySource{Path: "/etc/contextify-gateway/policy.json"},
		Admin:  AdminConfig{StatePath: "/var/lib/contextify-gateway/admin.json"},
		Registry: RegistryConfig{DBPath: "/var/lib/contextify-gateway/registry.db"},
	}
}

func TestGatewayHostConfigValidateAccepts(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestGatewayHostConfigValidateRejectsMissingRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Server.HTTPAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing http_addr")
	}
}

func TestGatewayHostConfigValidateRejectsDuplicateUpstreamName(t *testing.T) {
	cfg := validConfig()
	cfg.Gateway.Upstreams = []GatewayUpstreamConfig{
		{UpstreamName: "weather", McpHTTPEndpoint: "http://weather.local/mcp", NamespacePrefix: "weather"},
		{UpstreamName: "weather", McpHTTPEndpoint: "http://weather2.local/mcp", NamespacePrefix: "weather2"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate upstream_name")
	}
}

func TestGatewayHostConfigValidateRejectsDuplicateNamespacePrefix(t *testing.T) {
	cfg := validConfig()
	cfg.Gateway.Upstreams = []GatewayUpstreamConfig{
		{UpstreamName: "weather", McpHTTPEndpoint: "http://weather.local/mcp", NamespacePrefix: "shared"},
		{UpstreamName: "analytics", McpHTTPEndpoint: "http://analytics.local/mcp", NamespacePrefix: "shared"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate namespace_prefix")
	}
}
