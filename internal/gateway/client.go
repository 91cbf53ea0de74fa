package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"

	"github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"
	"github.com/atakanatali/contextify-gateway/pkg/rpc"
)

// RemoteTool is a single entry from an upstream's tools/list response.
type RemoteTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type toolsListResult struct {
	Tools []RemoteTool `json:"tools"`
}

// UpstreamClient issues the tools/list call against a single upstream.
// Satisfied by *HTTPUpstreamClient; an interface so the aggregator is
// testable without a real HTTP server.
type UpstreamClient interface {
	ListTools(ctx context.Context, u gatewaycfg.Upstream) ([]RemoteTool, error)
}

// HTTPUpstreamClient issues tools/list over HTTP/JSON-RPC using a
// long-lived shared HTTP client with per-call timeouts rather than
// per-call client construction: the client is shared via a factory
// abstraction, and per-call timeouts are applied by the caller rather
// than by recycling clients.
type HTTPUpstreamClient struct {
	httpClient *http.Client
}

// NewHTTPUpstreamClient builds a client shared across all upstream calls.
func NewHTTPUpstreamClient() *HTTPUpstreamClient {
	return &HTTPUpstreamClient{
		httpClient: &http.Client{},
	}
}

// ListTools posts a tools/list JSON-RPC request to u.McpHTTPEndpoint,
// bounded by u.RequestTimeout.
func (c *HTTPUpstreamClient) ListTools(ctx context.Context, u gatewaycfg.Upstream) ([]RemoteTool, error) {
	ctx, cancel := context.WithTimeout(ctx, u.RequestTimeout)
	defer cancel()

	id, err := jsonrpc.MakeID(float64(1))
	if err != nil {
		return nil, fmt.Errorf("gateway: build request id: %w", err)
	}
	body, err := rpc.EncodeMessage(&jsonrpc.Request{ID: id, Method: "tools/list"})
	if err != nil {
		return nil, fmt.Errorf("gateway: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.McpHTTPEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range u.DefaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: request failed: %w", err)
	}
	defer resp.Body.Close()

	const maxBody = 10 << 20 // 10MB, matching the executor's response limit
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("gateway: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway: upstream returned HTTP %d", resp.StatusCode)
	}

	msg, err := rpc.WrapMessage(respBody, rpc.Outbound)
	if err != nil {
		return nil, fmt.Errorf("gateway: malformed JSON-RPC response: %w", err)
	}
	respMsg := msg.Response()
	if respMsg == nil {
		return nil, fmt.Errorf("gateway: expected a JSON-RPC response, got a request")
	}
	if respMsg.Error != nil {
		return nil, fmt.Errorf("gateway: upstream error %d: %s", respMsg.Error.Code, respMsg.Error.Message)
	}

	var result toolsListResult
	if err := json.Unmarshal(respMsg.Result, &result); err != nil {
		return nil, fmt.Errorf("gateway: malformed tools/list result: %w", err)
	}
	return result.Tools, nil
}

// nowMono is swappable in tests that need deterministic latency
// measurements; production code always uses time.Now.
var nowMono = time.Now
