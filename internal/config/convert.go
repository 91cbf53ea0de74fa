package config

import "github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"

// ToDomain converts the YAML-facing GatewayConfig into gatewaycfg.Config.
// The result still needs WithDefaults/Validate applied by the caller once
// the registry's own upstream rows (if any) are merged in.
func (c GatewayConfig) ToDomain() gatewaycfg.Config {
	upstreams := make([]gatewaycfg.Upstream, len(c.Upstreams))
	for i, u := range c.Upstreams {
		upstreams[i] = gatewaycfg.Upstream{
			UpstreamName:    u.UpstreamName,
			McpHTTPEndpoint: u.McpHTTPEndpoint,
			NamespacePrefix: u.NamespacePrefix,
			Enabled:         u.Enabled,
			RequestTimeout:  u.RequestTimeout,
			DefaultHeaders:  u.DefaultHeaders,
		}
	}
	return gatewaycfg.Config{
		ToolNameSeparator:      c.ToolNameSeparator,
		DenyByDefault:          c.DenyByDefault,
		AllowedToolPatterns:    c.AllowedToolPatterns,
		DeniedToolPatterns:     c.DeniedToolPatterns,
		CatalogRefreshInterval: c.CatalogRefreshInterval,
		Upstreams:              upstreams,
	}
}
