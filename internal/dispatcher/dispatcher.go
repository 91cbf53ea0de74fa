package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"
	"github.com/atakanatali/contextify-gateway/internal/domain/tool"
	"github.com/atakanatali/contextify-gateway/internal/executor"
)

// protocolVersion is the MCP protocol version this dispatcher advertises.
const protocolVersion = "2025-06-18"

// SnapshotReader gives the dispatcher read access to the current tool
// catalog without depending on a specific provider implementation.
type SnapshotReader interface {
	GetSnapshot() *tool.CatalogSnapshot
}

// ToolExecutor runs a resolved tool descriptor; satisfied by
// *executor.Executor.
type ToolExecutor interface {
	Execute(ctx context.Context, descriptor *tool.Descriptor, arguments map[string]interface{}, auth *executor.AuthContext) executor.Result
}

// GatewaySnapshotReader gives the dispatcher read access to the gateway
// aggregator's namespaced catalog, the second of the two tool sources
// described above. Optional: a Dispatcher built without one serves only
// the locally compiled catalog.
type GatewaySnapshotReader interface {
	GetSnapshot() *gatewaycfg.Snapshot
}

// GatewayExecutor forwards a tools/call to the upstream owning a namespaced
// aggregated tool; satisfied by *gateway.Forwarder.
type GatewayExecutor interface {
	CallTool(ctx context.Context, snap *gatewaycfg.Snapshot, name string, arguments map[string]interface{}) executor.Result
}

// Dispatcher routes JSON-RPC 2.0 requests to the three supported methods
// and maps every failure mode to the JSON-RPC error code table. It presents
// the locally compiled catalog and the gateway-aggregated catalog as one
// merged tools/list, routing tools/call to whichever source owns the
// requested tool name.
type Dispatcher struct {
	catalog       SnapshotReader
	executor      ToolExecutor
	gateway       GatewaySnapshotReader
	gatewayExec   GatewayExecutor
	logger        *slog.Logger
	serverName    string
	serverVersion string
	tracer        trace.Tracer
}

// WithGateway attaches the gateway aggregator's snapshot and forwarder so
// tools/list and tools/call also cover remote-upstream tools. Both
// arguments must be non-nil together; passing either nil disables gateway
// routing entirely.
func (d *Dispatcher) WithGateway(reader GatewaySnapshotReader, exec GatewayExecutor) *Dispatcher {
	if reader == nil || exec == nil {
		d.gateway = nil
		d.gatewayExec = nil
		return d
	}
	d.gateway = reader
	d.gatewayExec = exec
	return d
}

// WithTracer attaches a tracer that wraps every Dispatch call in a span
// named after the JSON-RPC method. Optional — a nil tracer (the default)
// disables tracing entirely.
func (d *Dispatcher) WithTracer(tracer trace.Tracer) *Dispatcher {
	d.tracer = tracer
	return d
}

// New builds a Dispatcher. serverName/serverVersion are echoed in the
// initialize response.
func New(catalog SnapshotReader, exec ToolExecutor, logger *slog.Logger, serverName, serverVersion string) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		catalog:       catalog,
		executor:      exec,
		logger:        logger,
		serverName:    serverName,
		serverVersion: serverVersion,
	}
}

// Outcome is the result of dispatching one HTTP POST body: the JSON-RPC
// response bytes to write (nil for notifications) and the HTTP status the
// transport adapter should use.
type Outcome struct {
	Body       []byte
	HTTPStatus int
}

// ValidateContentType implements the "unsupported media type → 415"
// rule. Callers invoke this before reading the body so a bad content type
// fails fast.
func ValidateContentType(contentType string) bool {
	return contentType == "" || contentType == "application/json"
}

// Dispatch parses and routes a single JSON-RPC request body. It never
// panics or returns a Go error for malformed client input — every failure
// mode becomes a JSON-RPC error response per the error code table.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte) Outcome {
	if !json.Valid(body) {
		return d.errorOutcome(nil, http.StatusBadRequest, CodeParseError, "Parse error: invalid JSON", "")
	}

	var req inboundRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return d.errorOutcome(nil, http.StatusBadRequest, CodeParseError, "Parse error: request must be a JSON object", "")
	}

	if req.JSONRPC != "2.0" {
		return d.errorOutcome(req.ID, http.StatusOK, CodeInvalidRequest, `Invalid Request: jsonrpc must be "2.0"`, "")
	}
	if req.Method == "" {
		return d.errorOutcome(req.ID, http.StatusOK, CodeInvalidRequest, "Invalid Request: missing method", "")
	}

	isNotification := len(req.ID) == 0

	if d.tracer != nil {
		var span trace.Span
		ctx, span = d.tracer.Start(ctx, "dispatch."+req.Method)
		defer span.End()
	}

	switch req.Method {
	case "initialize":
		out := d.handleInitialize(req.ID)
		if isNotification {
			return Outcome{HTTPStatus: http.StatusAccepted}
		}
		return out
	case "tools/list":
		out := d.handleToolsList(req.ID)
		if isNotification {
			return Outcome{HTTPStatus: http.StatusAccepted}
		}
		return out
	case "tools/call":
		out := d.handleToolsCall(ctx, req.ID, req.Params)
		if isNotification {
			return Outcome{HTTPStatus: http.StatusAccepted}
		}
		return out
	default:
		if isNotification {
			return Outcome{HTTPStatus: http.StatusAccepted}
		}
		return d.errorOutcome(req.ID, http.StatusOK, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}
}

func (d *Dispatcher) handleInitialize(id json.RawMessage) Outcome {
	result := initializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo:      serverInfo{Name: d.serverName, Version: d.serverVersion},
		Capabilities:    initializeCapabilities{Tools: toolsCapability{List: true, Call: true}},
	}
	return d.resultOutcome(id, result)
}

func (d *Dispatcher) handleToolsList(id json.RawMessage) Outcome {
	snap := d.catalog.GetSnapshot()
	entries := make([]toolEntry, 0, len(snap.ToolsByName))
	for _, desc := range snap.ToolsByName {
		entries = append(entries, toolEntry{
			Name:        desc.ToolName,
			Description: desc.Description,
			InputSchema: json.RawMessage(desc.InputSchema),
		})
	}

	if d.gateway != nil {
		gwSnap := d.gateway.GetSnapshot()
		for _, agg := range gwSnap.ToolsByName {
			entries = append(entries, toolEntry{
				Name:        agg.Name,
				Description: agg.Description,
				InputSchema: json.RawMessage(agg.InputSchema),
			})
		}
	}

	return d.resultOutcome(id, toolsListResult{Tools: entries})
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, id json.RawMessage, rawParams json.RawMessage) Outcome {
	if len(rawParams) == 0 {
		return d.errorOutcome(id, http.StatusOK, CodeInvalidParams, "Invalid params: missing params", "")
	}
	var params toolsCallParams
	if err := json.Unmarshal(rawParams, &params); err != nil || params.Name == "" {
		return d.errorOutcome(id, http.StatusOK, CodeInvalidParams, "Invalid params: name is required", "")
	}

	snap := d.catalog.GetSnapshot()
	descriptor, ok := snap.ToolsByName[params.Name]
	if !ok {
		if d.gateway != nil {
			gwSnap := d.gateway.GetSnapshot()
			if _, gwOK := gwSnap.ToolsByName[params.Name]; gwOK {
				return d.toolsCallOutcome(id, d.gatewayExec.CallTool(ctx, gwSnap, params.Name, params.Arguments))
			}
		}
		return d.errorOutcome(id, http.StatusOK, CodeInvalidParams, fmt.Sprintf("Invalid params: unknown tool %q", params.Name), "")
	}

	result := d.executor.Execute(ctx, &descriptor, params.Arguments, nil)
	return d.toolsCallOutcome(id, result)
}

// toolsCallOutcome renders an executor.Result into a tools/call response,
// shared by both the local-executor path and the gateway-forwarder path.
func (d *Dispatcher) toolsCallOutcome(id json.RawMessage, result executor.Result) Outcome {
	if !result.Success {
		return d.resultOutcome(id, toolsCallResult{
			Content: []toolsCallContent{{Type: "text", Text: failureText(result)}},
			IsError: true,
		})
	}
	return d.resultOutcome(id, toolsCallResult{
		Content: []toolsCallContent{{Type: "text", Text: result.Text}},
		IsError: false,
	})
}

func failureText(r executor.Result) string {
	if r.ErrorMessage != "" {
		return fmt.Sprintf("%s: %s", r.ErrorCategory, r.ErrorMessage)
	}
	return string(r.ErrorCategory)
}

func (d *Dispatcher) resultOutcome(id json.RawMessage, result interface{}) Outcome {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return d.internalErrorOutcome(id, err)
	}
	resp := rpcResult{JSONRPC: "2.0", ID: id, Result: resultJSON}
	raw, err := json.Marshal(resp)
	if err != nil {
		return d.internalErrorOutcome(id, err)
	}
	return Outcome{Body: raw, HTTPStatus: http.StatusOK}
}

// internalErrorOutcome implements correlation-id discipline: the
// full cause is logged server-side against a correlation id; the client
// only ever sees that id, never the underlying error.
func (d *Dispatcher) internalErrorOutcome(id json.RawMessage, cause error) Outcome {
	correlationID := uuid.NewString()
	d.logger.Error("internal error dispatching request", "correlationId", correlationID, "cause", cause)
	return d.errorOutcome(id, http.StatusOK, CodeInternalError, "Internal error", correlationID)
}

func (d *Dispatcher) errorOutcome(id json.RawMessage, httpStatus, code int, message, data string) Outcome {
	resp := rpcError{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcErrorDetail{Code: code, Message: message, Data: data},
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		// Marshaling a fixed struct of strings/ints cannot realistically
		// fail; fall back to a minimal hand-built envelope.
		raw = []byte(fmt.Sprintf(`{"jsonrpc":"2.0","error":{"code":%d,"message":"internal error"}}`, CodeInternalError))
	}
	return Outcome{Body: raw, HTTPStatus: httpStatus}
}
