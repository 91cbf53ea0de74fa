package resolver

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/atakanatali/contextify-gateway/internal/domain/endpoint"
	"github.com/atakanatali/contextify-gateway/internal/domain/policy"
)

// Cache memoizes Resolve results keyed by an xxhash of the endpoint fields
// Resolve's matching and CEL-variable construction read. It's scoped to one
// *policy.Config: a Cache is built fresh per compile run (see
// compiler.Compile), so the key doesn't need to fold the config in too.
// Catalogs with repeated or duplicate endpoint entries — the same route
// listed twice in an OpenAPI document, or a registry emitting both a
// canonical and deprecated alias for one operation — resolve once instead
// of re-running the match/CEL pipeline per occurrence.
type Cache struct {
	entries sync.Map // uint64 -> Result
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{}
}

// Resolve is Resolve, memoized against c.
func (c *Cache) Resolve(e *endpoint.Descriptor, cfg *policy.Config, celEval CELEvaluator) (Result, error) {
	if e == nil {
		return Resolve(e, cfg, celEval)
	}
	key := cacheKey(e)
	if v, ok := c.entries.Load(key); ok {
		return v.(Result), nil
	}

	r, err := Resolve(e, cfg, celEval)
	if err != nil {
		return r, err
	}
	c.entries.Store(key, r)
	return r, nil
}

// cacheKey hashes every endpoint field that feeds matchContext or
// celrule.Vars, so two endpoints that would resolve identically share a
// cache entry and two that could resolve differently never collide.
func cacheKey(e *endpoint.Descriptor) uint64 {
	var b strings.Builder
	b.WriteString(e.OperationID)
	b.WriteByte(0)
	b.WriteString(e.RouteTemplate)
	b.WriteByte(0)
	b.WriteString(e.HTTPMethod)
	b.WriteByte(0)
	b.WriteString(e.DisplayName)
	b.WriteByte(0)
	if e.RequiresAuth {
		b.WriteByte(1)
	} else {
		b.WriteByte(2)
	}
	b.WriteByte(0)
	b.WriteString(strings.Join(e.Produces, ","))
	b.WriteByte(0)
	b.WriteString(strings.Join(e.Consumes, ","))
	return xxhash.Sum64String(b.String())
}
