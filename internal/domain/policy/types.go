// Package policy contains the immutable policy data model: per-endpoint
// policies, rate-limit policy, and the policy configuration root ingested
// by the catalog compiler.
package policy

import "fmt"

// AuthPropagationMode controls how (or whether) the executor forwards
// caller authentication material to the backing endpoint.
type AuthPropagationMode string

const (
	// AuthPropagationInfer lets the executor decide based on the endpoint
	// descriptor's RequiresAuth flag.
	AuthPropagationInfer AuthPropagationMode = "Infer"
	// AuthPropagationNone never forwards auth material.
	AuthPropagationNone AuthPropagationMode = "None"
	// AuthPropagationBearerToken forwards a bearer token in Authorization.
	AuthPropagationBearerToken AuthPropagationMode = "BearerToken"
	// AuthPropagationCookies forwards the caller's cookie jar.
	AuthPropagationCookies AuthPropagationMode = "Cookies"
)

// RateLimitStrategy identifies the limiting algorithm applied by a
// RateLimitPolicy.
type RateLimitStrategy string

const (
	RateLimitFixedWindow   RateLimitStrategy = "FixedWindow"
	RateLimitSlidingWindow RateLimitStrategy = "SlidingWindow"
	RateLimitTokenBucket   RateLimitStrategy = "TokenBucket"
	RateLimitConcurrency   RateLimitStrategy = "Concurrency"
)

// RateLimitPolicy is an immutable composite rate-limit specification
// attached to an EndpointPolicy.
type RateLimitPolicy struct {
	Strategy        RateLimitStrategy
	PermitLimit     int
	WindowMs        int
	QueueLimit      int
	TokensPerPeriod int
	RefillPeriodMs  int
	PenaltyMs       int
	Scope           string
	SegmentationKey string
}

// Validate enforces the invariant that a set strategy requires a positive
// permit limit and window.
func (r *RateLimitPolicy) Validate() error {
	if r == nil || r.Strategy == "" {
		return nil
	}
	if r.PermitLimit <= 0 {
		return fmt.Errorf("rateLimitPolicy: permitLimit must be > 0 when strategy is set")
	}
	if r.WindowMs <= 0 {
		return fmt.Errorf("rateLimitPolicy: windowMs must be > 0 when strategy is set")
	}
	if r.PenaltyMs < 0 {
		return fmt.Errorf("rateLimitPolicy: penaltyMs must be >= 0")
	}
	if r.QueueLimit < 0 {
		return fmt.Errorf("rateLimitPolicy: queueLimit must be >= 0")
	}
	return nil
}

// EndpointPolicy is an immutable value describing how a single endpoint (or
// a class of endpoints matched structurally) should be exposed as a tool.
//
// Match keys are all optional; at least one should be set for the policy to
// ever match anything, but an all-empty policy is not itself invalid — it
// simply never matches (see the resolver's rule set).
type EndpointPolicy struct {
	// Match keys.
	OperationID   string
	RouteTemplate string
	HTTPMethod    string
	DisplayName   string

	// Tool metadata overrides.
	ToolName    string
	Description string

	// Operational limits.
	Enabled             bool
	TimeoutMs           int
	ConcurrencyLimit    int
	RateLimitPolicy     *RateLimitPolicy
	AuthPropagationMode AuthPropagationMode

	// CELCondition is an optional extension: a CEL boolean expression
	// evaluated against the endpoint descriptor's attributes. When set
	// and it evaluates false, the policy does not match even if its
	// structural match keys otherwise would. See internal/celrule.
	CELCondition string
}

// Validate enforces the numeric-limit invariants: all set limits are
// strictly positive except penalty/queue which are non-negative.
func (p *EndpointPolicy) Validate() error {
	if p.TimeoutMs < 0 {
		return fmt.Errorf("endpointPolicy: timeoutMs must be >= 0")
	}
	if p.ConcurrencyLimit < 0 {
		return fmt.Errorf("endpointPolicy: concurrencyLimit must be >= 0")
	}
	if p.RateLimitPolicy != nil {
		if err := p.RateLimitPolicy.Validate(); err != nil {
			return err
		}
	}
	switch p.AuthPropagationMode {
	case "", AuthPropagationInfer, AuthPropagationNone, AuthPropagationBearerToken, AuthPropagationCookies:
	default:
		return fmt.Errorf("endpointPolicy: unknown authPropagationMode %q", p.AuthPropagationMode)
	}
	return nil
}

// Config is the policy configuration root: the whitelist and blacklist
// scanned by the resolver, the deny-by-default mode, and an opaque source
// version the snapshot provider uses to decide whether a reload is a no-op.
type Config struct {
	SchemaVersion int
	SourceVersion string
	DenyByDefault bool
	Whitelist     []EndpointPolicy
	Blacklist     []EndpointPolicy
}

// Validate checks structural validity of the config root. An invalid entry
// makes the whole config invalid (ConfigurationError) — a reload that fails
// validation must keep the previous snapshot in place.
func (c *Config) Validate() error {
	for i := range c.Whitelist {
		if err := c.Whitelist[i].Validate(); err != nil {
			return fmt.Errorf("whitelist[%d]: %w", i, err)
		}
	}
	for i := range c.Blacklist {
		if err := c.Blacklist[i].Validate(); err != nil {
			return fmt.Errorf("blacklist[%d]: %w", i, err)
		}
	}
	return nil
}
