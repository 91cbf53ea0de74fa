// Package tool contains the immutable ToolDescriptor and ToolCatalogSnapshot
// types produced by the catalog compiler and consumed by the dispatcher and
// executor.
package tool

import (
	"fmt"
	"time"

	"github.com/atakanatali/contextify-gateway/internal/domain/endpoint"
	"github.com/atakanatali/contextify-gateway/internal/domain/policy"
)

// Descriptor is a single compiled tool: a name-unique entry backed by an
// endpoint and the policy that was resolved for it.
type Descriptor struct {
	ToolName           string
	Description        string
	InputSchema        []byte // raw JSON schema document, nil if absent
	EndpointDescriptor endpoint.Descriptor
	EffectivePolicy    policy.EndpointPolicy
}

// Validate enforces that the tool name is non-empty. Uniqueness within a
// snapshot is enforced by CatalogSnapshot.Validate, not here.
func (d *Descriptor) Validate() error {
	if d.ToolName == "" {
		return fmt.Errorf("toolDescriptor: toolName must not be empty")
	}
	return nil
}

// CatalogSnapshot is the immutable, atomically-published mapping from tool
// name to tool descriptor produced by one compilation run.
type CatalogSnapshot struct {
	CreatedUtc          time.Time
	PolicySourceVersion string
	ToolsByName         map[string]Descriptor
}

// NewEmptyCatalogSnapshot returns the zero-tool snapshot a provider
// publishes before its first successful reload.
func NewEmptyCatalogSnapshot() *CatalogSnapshot {
	return &CatalogSnapshot{
		ToolsByName: map[string]Descriptor{},
	}
}

// Validate enforces that every map key equals the descriptor's own
// ToolName — the snapshot-wide uniqueness invariant.
func (s *CatalogSnapshot) Validate() error {
	for name, d := range s.ToolsByName {
		if d.ToolName != name {
			return fmt.Errorf("catalogSnapshot: key %q does not match descriptor toolName %q", name, d.ToolName)
		}
	}
	return nil
}
