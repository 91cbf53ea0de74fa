// Package config provides the host configuration schema for the contextify
// gateway: the HTTP listener, policy document source, gateway upstream
// list, admin auth, registry, and telemetry toggles. Uses yaml and
// mapstructure tags, with Validate() built on go-playground/validator
// struct tags.
package config

import "time"

// GatewayHostConfig is the top-level configuration for a host process
// built on the gateway core.
type GatewayHostConfig struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Policy    PolicySource    `yaml:"policy" mapstructure:"policy"`
	Gateway   GatewayConfig   `yaml:"gateway" mapstructure:"gateway"`
	Admin     AdminConfig     `yaml:"admin" mapstructure:"admin"`
	Registry  RegistryConfig  `yaml:"registry" mapstructure:"registry"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	Redaction RedactionConfig `yaml:"redaction" mapstructure:"redaction"`
	DevMode   bool            `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP listener exposing the JSON-RPC and
// well-known surfaces.
type ServerConfig struct {
	HTTPAddr        string `yaml:"http_addr" mapstructure:"http_addr" validate:"required"`
	ManifestName    string `yaml:"manifest_name" mapstructure:"manifest_name" validate:"required"`
	DiagnosticsPath string `yaml:"diagnostics_path" mapstructure:"diagnostics_path" validate:"required"`
	LogLevel        string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// PolicySource identifies where the policy config document is fetched
// from and how often it is polled for changes. EndpointsPath is
// optional: a host with no local endpoint catalog to compile (gateway
// aggregation only) leaves it empty, and internal/compiler is simply never
// invoked.
type PolicySource struct {
	Path         string        `yaml:"path" mapstructure:"path" validate:"required"`
	EndpointsPath string       `yaml:"endpoints_path" mapstructure:"endpoints_path"`
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// GatewayUpstreamConfig is the YAML-facing shape of a single aggregated
// upstream, converted to gatewaycfg.Upstream at load time.
type GatewayUpstreamConfig struct {
	UpstreamName    string            `yaml:"upstream_name" mapstructure:"upstream_name" validate:"required"`
	McpHTTPEndpoint string            `yaml:"mcp_http_endpoint" mapstructure:"mcp_http_endpoint" validate:"required,url"`
	NamespacePrefix string            `yaml:"namespace_prefix" mapstructure:"namespace_prefix" validate:"required"`
	Enabled         bool              `yaml:"enabled" mapstructure:"enabled"`
	RequestTimeout  time.Duration     `yaml:"request_timeout" mapstructure:"request_timeout"`
	DefaultHeaders  map[string]string `yaml:"default_headers" mapstructure:"default_headers"`
}

// GatewayConfig is the YAML-facing shape of gatewaycfg.Config.
type GatewayConfig struct {
	ToolNameSeparator      string                  `yaml:"tool_name_separator" mapstructure:"tool_name_separator"`
	DenyByDefault          bool                    `yaml:"deny_by_default" mapstructure:"deny_by_default"`
	AllowedToolPatterns    []string                `yaml:"allowed_tool_patterns" mapstructure:"allowed_tool_patterns"`
	DeniedToolPatterns     []string                `yaml:"denied_tool_patterns" mapstructure:"denied_tool_patterns"`
	CatalogRefreshInterval time.Duration           `yaml:"catalog_refresh_interval" mapstructure:"catalog_refresh_interval"`
	Upstreams              []GatewayUpstreamConfig `yaml:"upstreams" mapstructure:"upstreams" validate:"omitempty,dive"`
}

// AdminConfig configures the admin bearer token that gates the
// diagnostics endpoint.
type AdminConfig struct {
	TokenHash string `yaml:"token_hash" mapstructure:"token_hash"`
	StatePath string `yaml:"state_path" mapstructure:"state_path" validate:"required"`
}

// RegistryConfig configures the upstream registry's SQLite-backed store.
type RegistryConfig struct {
	DBPath string `yaml:"db_path" mapstructure:"db_path" validate:"required"`
}

// TelemetryConfig toggles OpenTelemetry tracing/metrics export.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// RedactionConfig configures the optional outbound redaction filter.
type RedactionConfig struct {
	Enabled       bool     `yaml:"enabled" mapstructure:"enabled"`
	FieldKeywords []string `yaml:"field_keywords" mapstructure:"field_keywords"`
	PatternRules  []string `yaml:"pattern_rules" mapstructure:"pattern_rules"`
}
