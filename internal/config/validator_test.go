package config

import (
	"strings"
	"testing"
)

func TestFormatValidationErrorsRequiredField(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Server.ManifestName = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "ManifestName") {
		t.Errorf("error = %q, want to contain 'ManifestName'", err.Error())
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("error = %q, want to contain 'required'", err.Error())
	}
}

func TestFormatValidationErrorsInvalidURL(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Gateway.Upstreams = []GatewayUpstreamConfig{
		{UpstreamName: "weather", McpHTTPEndpoint: "not-a-url", NamespacePrefix: "weather"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "valid URL") {
		t.Errorf("error = %q, want to contain 'valid URL'", err.Error())
	}
}

func TestFormatValidationErrorsOneOfLogLevel(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Server.LogLevel = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "one of") {
		t.Errorf("error = %q, want to contain 'one of'", err.Error())
	}
}

func TestValidateUpstreamUniquenessAllowsDistinctUpstreams(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Gateway.Upstreams = []GatewayUpstreamConfig{
		{UpstreamName: "weather", McpHTTPEndpoint: "http://weather.local/mcp", NamespacePrefix: "weather"},
		{UpstreamName: "analytics", McpHTTPEndpoint: "http://analytics.local/mcp", NamespacePrefix: "analytics"},
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidateUpstreamUniquenessReportsIndex(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Gateway.Upstreams = []GatewayUpstreamConfig{
		{UpstreamName: "weather", McpHTTPEndpoint: "http://weather.local/mcp", NamespacePrefix: "weather"},
		{UpstreamName: "weather", McpHTTPEndpoint: "http://weather2.local/mcp", NamespacePrefix: "weather2"},
	}

	err := cfg.validateUpstreamUniqueness()
	if err == nil {
		t.Fatal("validateUpstreamUniqueness() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "upstreams[1]") {
		t.Errorf("error = %q, want to contain 'upstreams[1]'", err.Error())
	}
}
