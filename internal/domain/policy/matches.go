package policy

import "strings"

// MatchInput is the minimal endpoint shape the resolver's rule set matches
// against. internal/domain/endpoint.Descriptor satisfies this by field
// correspondence; kept separate here so the policy package has no import
// dependency on the endpoint package.
type MatchInput struct {
	OperationID   string
	RouteTemplate string
	HTTPMethod    string
	DisplayName   string
}

// methodsMatch reports whether two HTTP methods match. An empty method on
// either side means "no method filter" and is treated as a match.
func methodsMatch(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return strings.EqualFold(a, b)
}

// MatchesByOperationID reports whether p and e both set OperationID and it
// is equal (case-sensitive), with an optional method filter.
func (p *EndpointPolicy) MatchesByOperationID(e MatchInput) bool {
	if p.OperationID == "" || e.OperationID == "" {
		return false
	}
	return p.OperationID == e.OperationID && methodsMatch(p.HTTPMethod, e.HTTPMethod)
}

// MatchesByRouteTemplate reports whether p and e both set RouteTemplate and
// it is equal, with an optional method filter.
func (p *EndpointPolicy) MatchesByRouteTemplate(e MatchInput) bool {
	if p.RouteTemplate == "" || e.RouteTemplate == "" {
		return false
	}
	return p.RouteTemplate == e.RouteTemplate && methodsMatch(p.HTTPMethod, e.HTTPMethod)
}

// MatchesByDisplayName reports whether p and e both set DisplayName and it
// is equal, with an optional method filter.
func (p *EndpointPolicy) MatchesByDisplayName(e MatchInput) bool {
	if p.DisplayName == "" || e.DisplayName == "" {
		return false
	}
	return p.DisplayName == e.DisplayName && methodsMatch(p.HTTPMethod, e.HTTPMethod)
}

// Matches applies the strict precedence order: operationId+method >
// route+method > displayName+method. Pure and deterministic.
func (p *EndpointPolicy) Matches(e MatchInput) bool {
	if p.MatchesByOperationID(e) {
		return true
	}
	if p.MatchesByRouteTemplate(e) {
		return true
	}
	return p.MatchesByDisplayName(e)
}
