// Package endpoint contains the immutable EndpointDescriptor entity ingested
// by the catalog compiler and carried through to the compiled ToolDescriptor.
package endpoint

import "fmt"

// Descriptor describes a single candidate endpoint the compiler may turn
// into a tool. At least one match key (OperationID, RouteTemplate, or
// DisplayName) must be non-empty.
type Descriptor struct {
	RouteTemplate string
	HTTPMethod    string
	OperationID   string
	DisplayName   string

	// Produces and Consumes are optional lists of media types, used only
	// for gap-report "missing schema" diagnostics (see DESIGN.md for the
	// rationale behind this choice).
	Produces []string
	Consumes []string

	RequiresAuth bool
}

// Validate enforces the invariant that at least one match key is set.
func (d *Descriptor) Validate() error {
	if d.OperationID == "" && d.RouteTemplate == "" && d.DisplayName == "" {
		return fmt.Errorf("endpointDescriptor: at least one of operationId, routeTemplate, displayName must be set")
	}
	return nil
}

// OpenApiEnrichment carries schema and description data extracted from an
// OpenAPI document, keyed by OperationID by the compiler's caller. Loading
// and parsing the document itself is out of scope for the core.
type OpenApiEnrichment struct {
	Description     string
	InputSchema     []byte // raw JSON schema document, nil if absent
	ResponseSchema  []byte
	Deprecated      bool
	Tags            []string
}
