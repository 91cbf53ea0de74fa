// Package gatewaycfg contains the immutable gateway-side data model: the
// configured upstreams, the aggregated gateway snapshot, and per-upstream
// health status.
package gatewaycfg

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// namespacePattern restricts namespace prefixes to the permitted
// charset: letters, digits, dot, underscore, hyphen.
var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Upstream is a single remote MCP server aggregated behind the gateway.
type Upstream struct {
	UpstreamName    string
	McpHTTPEndpoint string
	NamespacePrefix string
	Enabled         bool
	RequestTimeout  time.Duration
	DefaultHeaders  map[string]string
}

// Validate checks a single upstream's structural invariants: unique name
// and prefix are enforced by the caller (the registry), not here; this validates a
// single upstream's own fields.
func (u *Upstream) Validate() error {
	if u.UpstreamName == "" {
		return fmt.Errorf("upstream: upstreamName is required")
	}
	if !namespacePattern.MatchString(u.NamespacePrefix) {
		return fmt.Errorf("upstream %q: namespacePrefix must match %s", u.UpstreamName, namespacePattern.String())
	}
	parsed, err := url.Parse(u.McpHTTPEndpoint)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("upstream %q: mcpHttpEndpoint must be an absolute http(s) URL", u.UpstreamName)
	}
	if u.RequestTimeout <= 0 {
		return fmt.Errorf("upstream %q: requestTimeout must be > 0", u.UpstreamName)
	}
	return nil
}

// UpstreamStatus is the per-upstream health record carried in a
// GatewaySnapshot.
type UpstreamStatus struct {
	Healthy      bool
	LastCheckUtc time.Time
	LastError    string
	LatencyMs    int64
	ToolCount    int
	// History is the bounded recent history of Healthy transitions,
	// oldest first; populated by HealthTracker.Apply, empty on a Snapshot
	// that never passed through a tracker.
	History []HealthTransition
}

// AggregatedTool is a namespaced tool surfaced by the gateway aggregator,
// distinct from tool.Descriptor because it originates from a remote
// tools/list response rather than a locally compiled endpoint.
type AggregatedTool struct {
	Name            string // namespaced: {prefix}{separator}{upstreamToolName}
	UpstreamName    string
	UpstreamToolRaw string // the tool name as reported by the upstream, unprefixed
	Description     string
	InputSchema     []byte
}

// Snapshot is the immutable, atomically-published aggregation of every
// enabled upstream's tools plus a health status entry for every known
// upstream (healthy or not).
type Snapshot struct {
	CreatedUtc time.Time
	ToolsByName map[string]AggregatedTool
	StatusByUpstream map[string]UpstreamStatus
}

// NewEmptySnapshot returns the zero-tool snapshot published before the
// first successful aggregation.
func NewEmptySnapshot() *Snapshot {
	return &Snapshot{
		ToolsByName:      map[string]AggregatedTool{},
		StatusByUpstream: map[string]UpstreamStatus{},
	}
}

// Validate enforces that every aggregated tool name is globally unique
// (guaranteed by construction in internal/gateway, checked here so a
// snapshot provider can validate before publishing) and that every
// aggregated tool references a known upstream.
func (s *Snapshot) Validate() error {
	for name, t := range s.ToolsByName {
		if t.Name != name {
			return fmt.Errorf("gatewaySnapshot: key %q does not match tool name %q", name, t.Name)
		}
		if _, ok := s.StatusByUpstream[t.UpstreamName]; !ok {
			return fmt.Errorf("gatewaySnapshot: tool %q references unknown upstream %q", name, t.UpstreamName)
		}
	}
	return nil
}

// HealthyUpstreamCount returns the number of upstreams currently reporting
// healthy.
func (s *Snapshot) HealthyUpstreamCount() int {
	count := 0
	for _, st := range s.StatusByUpstream {
		if st.Healthy {
			count++
		}
	}
	return count
}

// Config is the gateway-level configuration: the tool-name
// separator, default deny mode, glob patterns, refresh interval, and the
// configured upstream list.
type Config struct {
	ToolNameSeparator      string
	DenyByDefault          bool
	AllowedToolPatterns    []string
	DeniedToolPatterns     []string
	CatalogRefreshInterval time.Duration
	Upstreams              []Upstream
}

// recommendedMinInterval and recommendedMaxInterval bound the
// recommended refresh-interval band; values outside it are not rejected,
// only reported by OutsideRecommendedBand.
const (
	recommendedMinInterval = 30 * time.Second
	recommendedMaxInterval = time.Hour
)

// WithDefaults returns a copy of c with the documented defaults applied:
// separator "." and a 5 minute refresh interval.
func (c Config) WithDefaults() Config {
	if c.ToolNameSeparator == "" {
		c.ToolNameSeparator = "."
	}
	if c.CatalogRefreshInterval == 0 {
		c.CatalogRefreshInterval = 5 * time.Minute
	}
	return c
}

// OutsideRecommendedBand reports whether the configured refresh interval
// falls outside the recommended 30s–1h band (a warning, not an error).
func (c Config) OutsideRecommendedBand() bool {
	return c.CatalogRefreshInterval < recommendedMinInterval || c.CatalogRefreshInterval > recommendedMaxInterval
}

// Validate checks structural invariants: glob patterns use only a single
// `*` wildcard syntax (no `**`, `?`, `[`, `]`), and upstream names/prefixes
// are unique.
func (c Config) Validate() error {
	for _, pat := range append(append([]string{}, c.AllowedToolPatterns...), c.DeniedToolPatterns...) {
		if err := validateGlob(pat); err != nil {
			return err
		}
	}

	names := make(map[string]struct{}, len(c.Upstreams))
	prefixes := make(map[string]struct{}, len(c.Upstreams))
	for i := range c.Upstreams {
		u := &c.Upstreams[i]
		if err := u.Validate(); err != nil {
			return err
		}
		if _, dup := names[u.UpstreamName]; dup {
			return fmt.Errorf("gatewayConfig: duplicate upstream name %q", u.UpstreamName)
		}
		names[u.UpstreamName] = struct{}{}
		if _, dup := prefixes[u.NamespacePrefix]; dup {
			return fmt.Errorf("gatewayConfig: duplicate namespace prefix %q", u.NamespacePrefix)
		}
		prefixes[u.NamespacePrefix] = struct{}{}
	}
	return nil
}

func validateGlob(pat string) error {
	for _, r := range pat {
		switch r {
		case '?', '[', ']':
			return fmt.Errorf("gatewayConfig: invalid glob pattern %q: %q is not supported", pat, r)
		}
	}
	for i := 0; i < len(pat)-1; i++ {
		if pat[i] == '*' && pat[i+1] == '*' {
			return fmt.Errorf("gatewayConfig: invalid glob pattern %q: %q is not supported", pat, "**")
		}
	}
	return nil
}
