package celrule

import (
	"github.com/google/cel-go/cel"
)

// Vars is the activation bag exposed to a policy's CELCondition expression.
// It mirrors the structural match fields of an endpoint descriptor plus
// a handful of request-shape hints, kept intentionally small: this is an
// extension point, not a general scripting surface.
type Vars struct {
	OperationID   string
	RouteTemplate string
	HTTPMethod    string
	DisplayName   string
	RequiresAuth  bool
	Produces      []string
	Consumes      []string
}

// newEnvironment builds the CEL type environment for endpoint conditions.
func newEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("operationId", cel.StringType),
		cel.Variable("routeTemplate", cel.StringType),
		cel.Variable("httpMethod", cel.StringType),
		cel.Variable("displayName", cel.StringType),
		cel.Variable("requiresAuth", cel.BoolType),
		cel.Variable("produces", cel.ListType(cel.StringType)),
		cel.Variable("consumes", cel.ListType(cel.StringType)),
	)
}

// activation converts Vars into the map cel-go expects for evaluation.
func (v Vars) activation() map[string]interface{} {
	produces := v.Produces
	if produces == nil {
		produces = []string{}
	}
	consumes := v.Consumes
	if consumes == nil {
		consumes = []string{}
	}
	return map[string]interface{}{
		"operationId":   v.OperationID,
		"routeTemplate": v.RouteTemplate,
		"httpMethod":    v.HTTPMethod,
		"displayName":   v.DisplayName,
		"requiresAuth":  v.RequiresAuth,
		"produces":      produces,
		"consumes":      consumes,
	}
}
