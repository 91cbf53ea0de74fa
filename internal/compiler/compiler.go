// Package compiler implements the catalog compiler: endpoint descriptors
// + OpenAPI enrichment + policy config -> an immutable tool catalog
// snapshot plus a gap report.
package compiler

import (
	"fmt"
	"sync"
	"time"

	"github.com/atakanatali/contextify-gateway/internal/domain/endpoint"
	"github.com/atakanatali/contextify-gateway/internal/domain/policy"
	"github.com/atakanatali/contextify-gateway/internal/domain/tool"
	"github.com/atakanatali/contextify-gateway/internal/resolver"
	"github.com/atakanatali/contextify-gateway/internal/ruleengine"
)

// Input bundles everything one compile run needs.
type Input struct {
	Endpoints []endpoint.Descriptor
	// Enrichment maps OperationID to its OpenAPI-derived data. Endpoints
	// without an OperationID, or without a matching entry, get no
	// enrichment.
	Enrichment map[string]endpoint.OpenApiEnrichment
	Policy     *policy.Config
	CELEval    resolver.CELEvaluator
}

// admissionContext carries one endpoint candidate through the admission
// rule pipeline (the rule engine's second use, alongside the resolver).
type admissionContext struct {
	flags ruleengine.Flags

	ep       *endpoint.Descriptor
	result   resolver.Result
	toolName string

	skipReason string
}

func (c *admissionContext) Flags() *ruleengine.Flags { return &c.flags }

var admissionRules = []ruleengine.Rule[*admissionContext]{
	{
		Name:     "EnabledPolicyValidation",
		Priority: 0,
		ShouldApply: func(c *admissionContext) bool {
			return !c.result.Enabled
		},
		Execute: func(c *admissionContext) error {
			c.skipReason = "disabled-by-policy"
			c.Flags().ShouldSkip = true
			return nil
		},
	},
	{
		Name:     "ToolNameValidation",
		Priority: 10,
		ShouldApply: func(c *admissionContext) bool {
			return c.toolName == ""
		},
		Execute: func(c *admissionContext) error {
			c.skipReason = "no-tool-name"
			c.Flags().ShouldSkip = true
			return nil
		},
	},
}

// Compile runs the compilation pipeline over in.Endpoints and returns the
// resulting snapshot and gap report. Endpoints are processed concurrently;
// writes to the in-progress tools map use "first writer wins" semantics via
// shardedToolMap, with deterministic collision resolution from the stable
// hash suffix rather than scan order (Testable property 5/6).
func Compile(in Input) (*tool.CatalogSnapshot, *GapReport, error) {
	if in.Policy == nil {
		return nil, nil, fmt.Errorf("compiler: policy config must be non-nil")
	}
	if err := in.Policy.Validate(); err != nil {
		return nil, nil, fmt.Errorf("compiler: invalid policy config: %w", err)
	}

	tools := newShardedToolMap()
	report := &GapReport{}
	var reportMu sync.Mutex
	addGap := func(fn func(r *GapReport)) {
		reportMu.Lock()
		fn(report)
		reportMu.Unlock()
	}

	// resolutionCache is scoped to this run: endpoint lists routinely carry
	// duplicate or aliased entries (Compile() already has collision
	// handling downstream for that), and memoizing the resolution itself
	// avoids re-running the match/CEL pipeline for each repeat.
	resolutionCache := resolver.NewCache()

	var wg sync.WaitGroup
	for i := range in.Endpoints {
		ep := &in.Endpoints[i]
		wg.Add(1)
		go func(ep *endpoint.Descriptor) {
			defer wg.Done()
			compileOne(ep, in, tools, addGap, resolutionCache)
		}(ep)
	}
	wg.Wait()

	snap := &tool.CatalogSnapshot{
		CreatedUtc:          timeNow(),
		PolicySourceVersion: in.Policy.SourceVersion,
		ToolsByName:         tools.Snapshot(),
	}
	if err := snap.Validate(); err != nil {
		return nil, nil, fmt.Errorf("compiler: produced an invalid snapshot: %w", err)
	}
	return snap, report, nil
}

// timeNow is a thin indirection so tests could swap it in principle; kept
// as a plain call for now since the compiler records wall-clock creation
// time, not a value under test.
func timeNow() time.Time {
	return time.Now().UTC()
}

func compileOne(ep *endpoint.Descriptor, in Input, tools *shardedToolMap, addGap func(func(*GapReport)), resolutionCache *resolver.Cache) {
	if err := ep.Validate(); err != nil {
		addGap(func(r *GapReport) {
			r.Skipped(ep.OperationID, ep.RouteTemplate, ep.HTTPMethod, "invalid-descriptor")
		})
		return
	}

	result, err := resolutionCache.Resolve(ep, in.Policy, in.CELEval)
	if err != nil {
		addGap(func(r *GapReport) {
			r.Skipped(ep.OperationID, ep.RouteTemplate, ep.HTTPMethod, "resolution-error")
		})
		return
	}
	if result.Source == resolver.SourceDefault {
		addGap(func(r *GapReport) {
			r.add(SeverityInfo, "unmatched", ep.OperationID, ep.RouteTemplate, ep.HTTPMethod, "no blacklist or whitelist policy matched; resolved by denyByDefault")
		})
	}

	enrichment, hasEnrichment := in.Enrichment[ep.OperationID]

	policyOverrideName := ""
	// The matched policy's own ToolName override isn't carried on
	// resolver.Result (which only exposes the resolution's operational
	// fields), so admission re-derives the override by re-scanning only
	// when resolution landed on a non-default source — a default
	// resolution never carries overrides by definition.
	if result.Source != resolver.SourceDefault {
		policyOverrideName = findOverrideName(ep, in.Policy)
	}

	derivedName := policyOverrideName
	isDerived := derivedName == ""
	if isDerived {
		derivedName = GenerateStable(ep.HTTPMethod, ep.RouteTemplate)
	}

	actx := &admissionContext{ep: ep, result: result, toolName: derivedName}
	_ = ruleengine.Run(actx, admissionRules)
	if actx.flags.ShouldSkip {
		addGap(func(r *GapReport) {
			r.Skipped(ep.OperationID, ep.RouteTemplate, ep.HTTPMethod, actx.skipReason)
		})
		return
	}

	descriptor := buildDescriptor(derivedName, ep, result, enrichment, hasEnrichment)
	maybeReportAuthInference(ep, result, addGap)

	if tools.InsertIfAbsent(derivedName, descriptor) {
		maybeReportMissingSchema(ep, hasEnrichment, enrichment, addGap)
		return
	}

	if !isDerived {
		// An explicit toolName override collided with an existing entry;
		// only derived names get disambiguated, so this is a true
		// duplicate and the first occurrence wins.
		addGap(func(r *GapReport) {
			r.Skipped(ep.OperationID, ep.RouteTemplate, ep.HTTPMethod, "duplicate")
		})
		return
	}

	suffixed := derivedName + "_" + CollisionSuffix(ep.HTTPMethod, ep.RouteTemplate)
	descriptor.ToolName = suffixed
	if tools.InsertIfAbsent(suffixed, descriptor) {
		addGap(func(r *GapReport) {
			r.Collision(ep.OperationID, ep.RouteTemplate, ep.HTTPMethod, suffixed)
		})
		maybeReportMissingSchema(ep, hasEnrichment, enrichment, addGap)
		return
	}

	addGap(func(r *GapReport) {
		r.Skipped(ep.OperationID, ep.RouteTemplate, ep.HTTPMethod, "duplicate")
	})
}

func findOverrideName(ep *endpoint.Descriptor, cfg *policy.Config) string {
	input := policy.MatchInput{
		OperationID:   ep.OperationID,
		RouteTemplate: ep.RouteTemplate,
		HTTPMethod:    ep.HTTPMethod,
		DisplayName:   ep.DisplayName,
	}
	for i := range cfg.Whitelist {
		p := &cfg.Whitelist[i]
		if p.Matches(input) && p.ToolName != "" {
			return p.ToolName
		}
	}
	return ""
}

func buildDescriptor(name string, ep *endpoint.Descriptor, result resolver.Result, enrichment endpoint.OpenApiEnrichment, hasEnrichment bool) tool.Descriptor {
	description := resolveDescription(ep, result, enrichment, hasEnrichment)

	var schema []byte
	if hasEnrichment {
		schema = enrichment.InputSchema
	}

	return tool.Descriptor{
		ToolName:           name,
		Description:        description,
		InputSchema:        schema,
		EndpointDescriptor: *ep,
		EffectivePolicy:    effectivePolicyFrom(result),
	}
}

// resolveDescription follows the description resolution order: policy
// override first, then the OpenAPI-enriched description, then a generated
// fallback.
func resolveDescription(ep *endpoint.Descriptor, result resolver.Result, enrichment endpoint.OpenApiEnrichment, hasEnrichment bool) string {
	if result.Description != "" {
		return result.Description
	}
	if hasEnrichment && enrichment.Description != "" {
		return enrichment.Description
	}
	method := ep.HTTPMethod
	if method == "" {
		method = "GET"
	}
	return fmt.Sprintf("Execute %s request on %s", method, ep.RouteTemplate)
}

func effectivePolicyFrom(r resolver.Result) policy.EndpointPolicy {
	p := policy.EndpointPolicy{
		Enabled:             r.Enabled,
		Description:         r.Description,
		AuthPropagationMode: r.AuthPropagationMode,
	}
	if r.TimeoutMs != nil {
		p.TimeoutMs = *r.TimeoutMs
	}
	if r.ConcurrencyLimit != nil {
		p.ConcurrencyLimit = *r.ConcurrencyLimit
	}
	if r.RateLimit.Permit != nil {
		p.RateLimitPolicy = &policy.RateLimitPolicy{
			PermitLimit: *r.RateLimit.Permit,
		}
		if r.RateLimit.Window != nil {
			p.RateLimitPolicy.WindowMs = *r.RateLimit.Window
		}
		if r.RateLimit.Queue != nil {
			p.RateLimitPolicy.QueueLimit = *r.RateLimit.Queue
		}
	}
	return p
}

// maybeReportAuthInference records a gap entry when an endpoint requires
// auth but no policy match supplied an explicit AuthPropagationMode,
// meaning the executor will decide propagation at call time by inferring
// it from RequiresAuth rather than from a resolved policy value.
func maybeReportAuthInference(ep *endpoint.Descriptor, result resolver.Result, addGap func(func(*GapReport))) {
	if !ep.RequiresAuth || result.AuthPropagationMode != "" {
		return
	}
	addGap(func(r *GapReport) {
		r.AuthInference(ep.OperationID, ep.RouteTemplate, ep.HTTPMethod, "requiresAuth is set but no policy match supplied an explicit authPropagationMode; the executor will infer propagation at call time")
	})
}

func maybeReportMissingSchema(ep *endpoint.Descriptor, hasEnrichment bool, enrichment endpoint.OpenApiEnrichment, addGap func(func(*GapReport))) {
	if !consumesOrProducesJSON(ep) {
		return
	}
	if hasEnrichment && len(enrichment.InputSchema) > 0 {
		return
	}
	addGap(func(r *GapReport) {
		r.MissingSchema(ep.OperationID, ep.RouteTemplate, ep.HTTPMethod)
	})
}

func consumesOrProducesJSON(ep *endpoint.Descriptor) bool {
	for _, mt := range ep.Produces {
		if containsJSON(mt) {
			return true
		}
	}
	for _, mt := range ep.Consumes {
		if containsJSON(mt) {
			return true
		}
	}
	return false
}

func containsJSON(mediaType string) bool {
	for i := 0; i+4 <= len(mediaType); i++ {
		if mediaType[i:i+4] == "json" || mediaType[i:i+4] == "JSON" {
			return true
		}
	}
	return false
}
