package policydoc

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/atakanatali/contextify-gateway/internal/domain/endpoint"
)

type endpointDescriptorDocument struct {
	RouteTemplate string   `json:"routeTemplate"`
	HTTPMethod    string   `json:"httpMethod"`
	OperationID   string   `json:"operationId"`
	DisplayName   string   `json:"displayName"`
	Produces      []string `json:"produces"`
	Consumes      []string `json:"consumes"`
	RequiresAuth  bool     `json:"requiresAuth"`
}

// LoadEndpoints reads a plain JSON array of endpoint descriptors at path.
// This is the host's own endpoint source (OpenAPI document loading and
// parsing is explicitly out of scope for the core); it carries no schema
// enrichment, only the descriptor fields the compiler itself needs.
func LoadEndpoints(path string) ([]endpoint.Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policydoc: read %s: %w", path, err)
	}

	var docs []endpointDescriptorDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("policydoc: parse %s: %w", path, err)
	}

	descriptors := make([]endpoint.Descriptor, len(docs))
	for i, d := range docs {
		descriptors[i] = endpoint.Descriptor{
			RouteTemplate: d.RouteTemplate,
			HTTPMethod:    d.HTTPMethod,
			OperationID:   d.OperationID,
			DisplayName:   d.DisplayName,
			Produces:      d.Produces,
			Consumes:      d.Consumes,
			RequiresAuth:  d.RequiresAuth,
		}
		if err := descriptors[i].Validate(); err != nil {
			return nil, fmt.Errorf("policydoc: endpoint[%d]: %w", i, err)
		}
	}
	return descriptors, nil
}
