// Package resolver implements the deterministic policy resolution
// algorithm: blacklist precedes whitelist precedes the deny-by-default
// fallback.
package resolver

import (
	"errors"
	"fmt"

	"github.com/atakanatali/contextify-gateway/internal/celrule"
	"github.com/atakanatali/contextify-gateway/internal/domain/endpoint"
	"github.com/atakanatali/contextify-gateway/internal/domain/policy"
	"github.com/atakanatali/contextify-gateway/internal/ruleengine"
)

// CELEvaluator evaluates the optional CELCondition extension on a policy.
// Satisfied by *celrule.Evaluator; an interface here so callers that never
// use CEL conditions don't need to construct one.
type CELEvaluator interface {
	Evaluate(expr string, vars celrule.Vars) (bool, error)
}

// ErrInvalidArgument is returned when the resolver is given a nil config or
// an endpoint descriptor that fails its own Validate.
var ErrInvalidArgument = errors.New("resolver: invalid argument")

// Source identifies which part of the policy config produced a resolution.
type Source string

const (
	SourceBlacklist Source = "Blacklist"
	SourceWhitelist Source = "Whitelist"
	SourceDefault   Source = "Default"
)

// RateLimit is the effective rate-limit surface carried by a Result.
type RateLimit struct {
	Permit *int
	Window *int
	Queue  *int
}

// Result is the outcome of resolving one endpoint against a policy config.
type Result struct {
	Enabled             bool
	Source              Source
	Description         string
	TimeoutMs           *int
	ConcurrencyLimit    *int
	AuthPropagationMode policy.AuthPropagationMode
	RateLimit           RateLimit
}

// matchContext adapts a single candidate scan to the generic rule engine:
// the three structural rules run in priority order and record a structural
// match; the CELCondition or PlainStructuralMatch rule after them then
// decides Flags().Matched.
type matchContext struct {
	flags               ruleengine.Flags
	policy              *policy.EndpointPolicy
	endpoint            policy.MatchInput
	celVars             celrule.Vars
	celEval             CELEvaluator
	structurallyMatched bool
}

func (c *matchContext) Flags() *ruleengine.Flags { return &c.flags }

var matchRules = []ruleengine.Rule[*matchContext]{
	{
		Name:     "ByOperationId",
		Priority: 0,
		ShouldApply: func(c *matchContext) bool {
			return c.policy.MatchesByOperationID(c.endpoint)
		},
		Execute: func(c *matchContext) error {
			c.structurallyMatched = true
			return nil
		},
	},
	{
		Name:     "ByRouteTemplate",
		Priority: 10,
		ShouldApply: func(c *matchContext) bool {
			return c.policy.MatchesByRouteTemplate(c.endpoint)
		},
		Execute: func(c *matchContext) error {
			c.structurallyMatched = true
			return nil
		},
	},
	{
		Name:     "ByDisplayName",
		Priority: 20,
		ShouldApply: func(c *matchContext) bool {
			return c.policy.MatchesByDisplayName(c.endpoint)
		},
		Execute: func(c *matchContext) error {
			c.structurallyMatched = true
			return nil
		},
	},
	{
		// CELCondition is an extension rule (not one of the three
		// required structural rules): when a structural match was found
		// and the policy carries a CEL condition, the condition is the
		// deciding factor — a false evaluation stops this policy's
		// pipeline without a match, and Resolve goes on to the next policy.
		Name:     "CELCondition",
		Priority: 30,
		ShouldApply: func(c *matchContext) bool {
			return c.structurallyMatched && c.policy.CELCondition != ""
		},
		Execute: func(c *matchContext) error {
			if c.celEval == nil {
				return fmt.Errorf("resolver: policy has a celCondition but no CEL evaluator was configured")
			}
			ok, err := c.celEval.Evaluate(c.policy.CELCondition, c.celVars)
			if err != nil {
				return fmt.Errorf("resolver: celCondition evaluation failed: %w", err)
			}
			if ok {
				c.Flags().Matched = true
			} else {
				c.Flags().ShouldSkip = true
			}
			return nil
		},
	},
	{
		Name:     "PlainStructuralMatch",
		Priority: 40,
		ShouldApply: func(c *matchContext) bool {
			return c.structurallyMatched && c.policy.CELCondition == ""
		},
		Execute: func(c *matchContext) error {
			c.Flags().Matched = true
			return nil
		},
	},
}

// matches runs the three structural match rules through the shared rule
// engine rather than calling EndpointPolicy.Matches directly, so the
// catalog compiler and the resolver go through the exact same shared
// rule-matching infrastructure.
func matches(p *policy.EndpointPolicy, e policy.MatchInput, vars celrule.Vars, celEval CELEvaluator) (bool, error) {
	ctx := &matchContext{policy: p, endpoint: e, celVars: vars, celEval: celEval}
	if err := ruleengine.Run(ctx, matchRules); err != nil {
		return false, err
	}
	return ctx.flags.Matched, nil
}

// Resolve implements the resolution algorithm: scan blacklist, then whitelist,
// then fall back to denyByDefault. celEval may be nil if no policy in cfg
// uses the CELCondition extension; passing nil while a policy does use it
// is an InvalidArgument-class error surfaced from the rule pipeline.
func Resolve(e *endpoint.Descriptor, cfg *policy.Config, celEval CELEvaluator) (Result, error) {
	if e == nil || cfg == nil {
		return Result{}, fmt.Errorf("%w: descriptor and config must be non-nil", ErrInvalidArgument)
	}
	if err := e.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	input := policy.MatchInput{
		OperationID:   e.OperationID,
		RouteTemplate: e.RouteTemplate,
		HTTPMethod:    e.HTTPMethod,
		DisplayName:   e.DisplayName,
	}
	vars := celrule.Vars{
		OperationID:   e.OperationID,
		RouteTemplate: e.RouteTemplate,
		HTTPMethod:    e.HTTPMethod,
		DisplayName:   e.DisplayName,
		RequiresAuth:  e.RequiresAuth,
		Produces:      e.Produces,
		Consumes:      e.Consumes,
	}

	for i := range cfg.Blacklist {
		ok, err := matches(&cfg.Blacklist[i], input, vars, celEval)
		if err != nil {
			return Result{}, err
		}
		if ok {
			return Result{Enabled: false, Source: SourceBlacklist}, nil
		}
	}

	for i := range cfg.Whitelist {
		p := &cfg.Whitelist[i]
		ok, err := matches(p, input, vars, celEval)
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}
		if !p.Enabled {
			return Result{Enabled: false, Source: SourceWhitelist}, nil
		}
		return Result{
			Enabled:             true,
			Source:              SourceWhitelist,
			Description:         p.Description,
			TimeoutMs:           intPtrIfSet(p.TimeoutMs),
			ConcurrencyLimit:    intPtrIfSet(p.ConcurrencyLimit),
			AuthPropagationMode: p.AuthPropagationMode,
			RateLimit:           rateLimitFrom(p.RateLimitPolicy),
		}, nil
	}

	if cfg.DenyByDefault {
		return Result{Enabled: false, Source: SourceDefault}, nil
	}
	return Result{Enabled: true, Source: SourceDefault}, nil
}

func intPtrIfSet(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func rateLimitFrom(rl *policy.RateLimitPolicy) RateLimit {
	if rl == nil || rl.Strategy == "" {
		return RateLimit{}
	}
	permit, window, queue := rl.PermitLimit, rl.WindowMs, rl.QueueLimit
	return RateLimit{Permit: &permit, Window: &window, Queue: &queue}
}
