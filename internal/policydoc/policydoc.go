// Package policydoc loads the two JSON documents a host built on the
// gateway core feeds into the catalog compiler: the policy config document
// (whitelist/blacklist) and the host's own endpoint descriptor
// list. Neither format is part of the core's public contract — callers may
// swap in a file watcher, a Consul KV poller, or any other
// PolicyConfigProvider-shaped source without touching internal/compiler.
package policydoc

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/atakanatali/contextify-gateway/internal/domain/policy"
)

type rateLimitDocument struct {
	Strategy        string `json:"strategy"`
	PermitLimit     int    `json:"permitLimit"`
	WindowMs        int    `json:"windowMs"`
	QueueLimit      int    `json:"queueLimit"`
	TokensPerPeriod int    `json:"tokensPerPeriod"`
	RefillPeriodMs  int    `json:"refillPeriodMs"`
	PenaltyMs       int    `json:"penaltyMs"`
	Scope           string `json:"scope"`
	SegmentationKey string `json:"segmentationKey"`
}

type endpointPolicyDocument struct {
	OperationID         string             `json:"operationId"`
	RouteTemplate       string             `json:"routeTemplate"`
	HTTPMethod          string             `json:"httpMethod"`
	DisplayName         string             `json:"displayName"`
	ToolName            string             `json:"toolName"`
	Description         string             `json:"description"`
	Enabled             bool               `json:"enabled"`
	TimeoutMs           int                `json:"timeoutMs"`
	ConcurrencyLimit    int                `json:"concurrencyLimit"`
	RateLimitPolicy     *rateLimitDocument `json:"rateLimitPolicy"`
	AuthPropagationMode string             `json:"authPropagationMode"`
	CELCondition        string             `json:"celCondition"`
}

func (d endpointPolicyDocument) toDomain() policy.EndpointPolicy {
	p := policy.EndpointPolicy{
		OperationID:         d.OperationID,
		RouteTemplate:       d.RouteTemplate,
		HTTPMethod:          d.HTTPMethod,
		DisplayName:         d.DisplayName,
		ToolName:            d.ToolName,
		Description:         d.Description,
		Enabled:             d.Enabled,
		TimeoutMs:           d.TimeoutMs,
		ConcurrencyLimit:    d.ConcurrencyLimit,
		AuthPropagationMode: policy.AuthPropagationMode(d.AuthPropagationMode),
		CELCondition:        d.CELCondition,
	}
	if d.RateLimitPolicy != nil {
		p.RateLimitPolicy = &policy.RateLimitPolicy{
			Strategy:        policy.RateLimitStrategy(d.RateLimitPolicy.Strategy),
			PermitLimit:     d.RateLimitPolicy.PermitLimit,
			WindowMs:        d.RateLimitPolicy.WindowMs,
			QueueLimit:      d.RateLimitPolicy.QueueLimit,
			TokensPerPeriod: d.RateLimitPolicy.TokensPerPeriod,
			RefillPeriodMs:  d.RateLimitPolicy.RefillPeriodMs,
			PenaltyMs:       d.RateLimitPolicy.PenaltyMs,
			Scope:           d.RateLimitPolicy.Scope,
			SegmentationKey: d.RateLimitPolicy.SegmentationKey,
		}
	}
	return p
}

type policyConfigDocument struct {
	SchemaVersion int                      `json:"schemaVersion"`
	SourceVersion string                   `json:"sourceVersion"`
	DenyByDefault bool                     `json:"denyByDefault"`
	Whitelist     []endpointPolicyDocument `json:"whitelist"`
	Blacklist     []endpointPolicyDocument `json:"blacklist"`
}

// LoadPolicyConfig reads and parses the policy config document at path into
// a *policy.Config, validating it before returning.
func LoadPolicyConfig(path string) (*policy.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policydoc: read %s: %w", path, err)
	}

	var doc policyConfigDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("policydoc: parse %s: %w", path, err)
	}

	cfg := &policy.Config{
		SchemaVersion: doc.SchemaVersion,
		SourceVersion: doc.SourceVersion,
		DenyByDefault: doc.DenyByDefault,
		Whitelist:     make([]policy.EndpointPolicy, len(doc.Whitelist)),
		Blacklist:     make([]policy.EndpointPolicy, len(doc.Blacklist)),
	}
	for i, e := range doc.Whitelist {
		cfg.Whitelist[i] = e.toDomain()
	}
	for i, e := range doc.Blacklist {
		cfg.Blacklist[i] = e.toDomain()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("policydoc: %w", err)
	}
	return cfg, nil
}

type sourceVersionDocument struct {
	SourceVersion string `json:"sourceVersion"`
}

// PeekSourceVersion reads just the sourceVersion field at path, for
// snapshot.Provider.EnsureFresh's cheap no-op check without a full parse +
// policy resolution pass.
func PeekSourceVersion(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("policydoc: read %s: %w", path, err)
	}
	var doc sourceVersionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("policydoc: parse %s: %w", path, err)
	}
	return doc.SourceVersion, nil
}
