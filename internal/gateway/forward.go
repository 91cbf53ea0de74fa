package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"

	"github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"
	"github.com/atakanatali/contextify-gateway/internal/executor"
	"github.com/atakanatali/contextify-gateway/pkg/rpc"
)

// Forwarder executes tools/call against the upstream owning a namespaced
// aggregated tool, by relaying a fresh JSON-RPC 2.0 request to that
// upstream's mcpHttpEndpoint. It is the gateway-mode counterpart to
// internal/executor.Executor: gateway-aggregated tools have no local route
// template to expand, only a remote MCP server to forward the call to.
//
// The upstream set is held behind an atomic pointer rather than fixed at
// construction: a host's RefreshLoop calls SetUpstreams every time it
// re-reads the upstream registry, so an admin-added upstream is routable
// without a process restart, the same freshness guarantee the snapshot it
// is paired with already gets.
type Forwarder struct {
	httpClient *http.Client
	upstreams  atomic.Pointer[map[string]gatewaycfg.Upstream]
}

// NewForwarder builds a Forwarder over the given upstream set, keyed by
// UpstreamName for O(1) lookup at call time.
func NewForwarder(httpClient *http.Client, upstreams []gatewaycfg.Upstream) *Forwarder {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	f := &Forwarder{httpClient: httpClient}
	f.SetUpstreams(upstreams)
	return f
}

// SetUpstreams atomically replaces the upstream set consulted by CallTool.
func (f *Forwarder) SetUpstreams(upstreams []gatewaycfg.Upstream) {
	byName := make(map[string]gatewaycfg.Upstream, len(upstreams))
	for _, u := range upstreams {
		byName[u.UpstreamName] = u
	}
	f.upstreams.Store(&byName)
}

type forwardCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
}

type forwardContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type forwardCallResult struct {
	Content []forwardContent `json:"content"`
	IsError bool              `json:"isError"`
}

// CallTool resolves name against snap, forwards a tools/call to the owning
// upstream using the tool's unprefixed upstream name, and maps the
// response into an executor.Result so callers can share rendering logic
// with locally-executed tools.
func (f *Forwarder) CallTool(ctx context.Context, snap *gatewaycfg.Snapshot, name string, arguments map[string]interface{}) executor.Result {
	start := time.Now()

	agg, ok := snap.ToolsByName[name]
	if !ok {
		return executor.Result{ErrorCategory: executor.ErrorNoEndpoint, ErrorMessage: fmt.Sprintf("unknown gateway tool %q", name)}
	}
	upstream, ok := (*f.upstreams.Load())[agg.UpstreamName]
	if !ok {
		return executor.Result{ErrorCategory: executor.ErrorNoEndpoint, ErrorMessage: fmt.Sprintf("unknown upstream %q", agg.UpstreamName)}
	}

	paramsJSON, err := json.Marshal(forwardCallParams{Name: agg.UpstreamToolRaw, Arguments: arguments})
	if err != nil {
		return withForwardDuration(executor.Result{ErrorCategory: executor.ErrorUnexpected, ErrorMessage: err.Error()}, start)
	}
	id, err := jsonrpc.MakeID(float64(1))
	if err != nil {
		return withForwardDuration(executor.Result{ErrorCategory: executor.ErrorUnexpected, ErrorMessage: err.Error()}, start)
	}
	reqBody, err := rpc.EncodeMessage(&jsonrpc.Request{ID: id, Method: "tools/call", Params: paramsJSON})
	if err != nil {
		return withForwardDuration(executor.Result{ErrorCategory: executor.ErrorUnexpected, ErrorMessage: err.Error()}, start)
	}

	timeout := upstream.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, upstream.McpHTTPEndpoint, bytes.NewReader(reqBody))
	if err != nil {
		return withForwardDuration(executor.Result{ErrorCategory: executor.ErrorUnexpected, ErrorMessage: err.Error()}, start)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range upstream.DefaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return withForwardDuration(classifyForwardError(ctx, callCtx, err), start)
	}
	defer func() { _ = resp.Body.Close() }()

	const maxBody = 10 << 20
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return withForwardDuration(classifyForwardError(ctx, callCtx, err), start)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return withForwardDuration(executor.Result{
			ErrorCategory: executor.ErrorHTTP,
			IsTransient:   resp.StatusCode >= 500 || resp.StatusCode == 408 || resp.StatusCode == 429,
			ErrorMessage:  fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode),
			HTTPStatus:    resp.StatusCode,
		}, start)
	}

	msg, err := rpc.WrapMessage(respBody, rpc.Outbound)
	if err != nil {
		return withForwardDuration(executor.Result{ErrorCategory: executor.ErrorJSONParse, ErrorMessage: err.Error()}, start)
	}
	respMsg := msg.Response()
	if respMsg == nil {
		return withForwardDuration(executor.Result{ErrorCategory: executor.ErrorJSONParse, ErrorMessage: "expected a JSON-RPC response, got a request"}, start)
	}
	if respMsg.Error != nil {
		return withForwardDuration(executor.Result{ErrorCategory: executor.ErrorHTTP, ErrorMessage: respMsg.Error.Message}, start)
	}

	var result forwardCallResult
	if err := json.Unmarshal(respMsg.Result, &result); err != nil {
		return withForwardDuration(executor.Result{ErrorCategory: executor.ErrorJSONParse, ErrorMessage: err.Error()}, start)
	}

	var text strings.Builder
	for i, c := range result.Content {
		if i > 0 {
			text.WriteString("\n")
		}
		text.WriteString(c.Text)
	}

	return withForwardDuration(executor.Result{
		Success:     !result.IsError,
		Text:        text.String(),
		ContentType: "application/json",
		HTTPStatus:  resp.StatusCode,
	}, start)
}

func withForwardDuration(r executor.Result, start time.Time) executor.Result {
	r.DurationMs = time.Since(start).Milliseconds()
	return r
}

// classifyForwardError mirrors internal/executor's caller-vs-timeout
// disambiguation: the caller's own cancellation takes priority over the
// linked per-call timeout.
func classifyForwardError(callerCtx, linkedCtx context.Context, err error) executor.Result {
	if callerCtx.Err() != nil {
		return executor.Result{ErrorCategory: executor.ErrorCancelled, IsTransient: true, ErrorMessage: err.Error()}
	}
	if linkedCtx.Err() != nil {
		return executor.Result{ErrorCategory: executor.ErrorTimeout, IsTransient: true, ErrorMessage: err.Error()}
	}
	return executor.Result{ErrorCategory: executor.ErrorHTTP, IsTransient: true, ErrorMessage: err.Error()}
}
