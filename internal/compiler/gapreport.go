package compiler

// Severity classifies a gap-report entry.
type Severity string

const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
)

// GapEntry is a single diagnostic emitted alongside a compiled snapshot.
type GapEntry struct {
	Severity      Severity
	Reason        string
	OperationID   string
	RouteTemplate string
	HTTPMethod    string
	Detail        string
}

// GapReport accumulates diagnostics produced during one compile run:
// unmatched endpoints, missing schemas, auth-inference warnings, and
// duplicate-name collisions.
type GapReport struct {
	Entries []GapEntry
}

func (r *GapReport) add(sev Severity, reason, opID, route, method, detail string) {
	r.Entries = append(r.Entries, GapEntry{
		Severity:      sev,
		Reason:        reason,
		OperationID:   opID,
		RouteTemplate: route,
		HTTPMethod:    method,
		Detail:        detail,
	})
}

// Skipped records why an endpoint was not admitted into the snapshot.
func (r *GapReport) Skipped(opID, route, method, reason string) {
	r.add(SeverityInfo, reason, opID, route, method, "")
}

// MissingSchema records an endpoint that consumes/produces JSON but has no
// extracted schema.
func (r *GapReport) MissingSchema(opID, route, method string) {
	r.add(SeverityWarn, "missing-schema", opID, route, method, "endpoint declares a JSON media type but no schema was extracted")
}

// Collision records a tool-name collision resolved by the hash suffix.
func (r *GapReport) Collision(opID, route, method, resolvedName string) {
	r.add(SeverityWarn, "name-collision", opID, route, method, "resolved to "+resolvedName)
}

// AuthInference records an endpoint whose auth requirement had to be
// inferred rather than taken from an explicit policy override.
func (r *GapReport) AuthInference(opID, route, method, detail string) {
	r.add(SeverityInfo, "auth-inferred", opID, route, method, detail)
}
