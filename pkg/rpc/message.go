// Package rpc provides JSON-RPC message types and codec utilities for the
// contextify gateway's host-to-upstream and client-to-host wire traffic.
package rpc

import (
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// Direction indicates the flow direction of a message through the gateway.
type Direction int

const (
	// Inbound indicates a message flowing from an MCP client into the host.
	Inbound Direction = iota
	// Outbound indicates a message flowing from the host to an upstream
	// MCP server.
	Outbound
)

// String returns the string representation of the Direction.
func (d Direction) String() string {
	switch d {
	case Inbound:
		return "client->host"
	case Outbound:
		return "host->upstream"
	default:
		return "unknown"
	}
}

// Message wraps a decoded JSON-RPC message with gateway metadata. It stores
// both the raw bytes (for efficient passthrough) and the decoded message
// (for dispatch and catalog inspection).
type Message struct {
	// Raw contains the original bytes of the message.
	Raw []byte

	// Direction indicates which way this message is flowing.
	Direction Direction

	// Decoded contains the parsed JSON-RPC message. May be nil if parsing
	// failed but passthrough is still desired. The concrete type is either
	// *jsonrpc.Request or *jsonrpc.Response.
	Decoded jsonrpc.Message

	// Timestamp records when the message was received by the gateway.
	Timestamp time.Time

	// ParsedParams contains the parsed params from a JSON-RPC request.
	// Set by ParseParams() for reuse across the dispatcher and executor.
	ParsedParams map[string]interface{}
}

// IsRequest returns true if the message is a JSON-RPC request.
func (m *Message) IsRequest() bool {
	if m.Decoded == nil {
		return false
	}
	_, ok := m.Decoded.(*jsonrpc.Request)
	return ok
}

// IsResponse returns true if the message is a JSON-RPC response.
func (m *Message) IsResponse() bool {
	if m.Decoded == nil {
		return false
	}
	_, ok := m.Decoded.(*jsonrpc.Response)
	return ok
}

// Method returns the method name if this is a request, empty string otherwise.
func (m *Message) Method() string {
	req := m.Request()
	if req == nil {
		return ""
	}
	return req.Method
}

// IsToolCall returns true if this is a tools/call request, the primary
// method subject to policy resolution.
func (m *Message) IsToolCall() bool {
	return m.Method() == "tools/call"
}

// IsNotification returns true if the message is a request with no ID,
// per the JSON-RPC 2.0 notification convention.
func (m *Message) IsNotification() bool {
	return m.Raw != nil && len(m.RawID()) == 0 && m.IsRequest()
}

// Request returns the underlying Request if this is a request message.
func (m *Message) Request() *jsonrpc.Request {
	if m.Decoded == nil {
		return nil
	}
	req, _ := m.Decoded.(*jsonrpc.Request)
	return req
}

// Response returns the underlying Response if this is a response message.
func (m *Message) Response() *jsonrpc.Response {
	if m.Decoded == nil {
		return nil
	}
	resp, _ := m.Decoded.(*jsonrpc.Response)
	return resp
}

// ParseParams parses the request params and caches them in ParsedParams.
// Safe to call multiple times. Returns nil if not a request or parsing fails.
func (m *Message) ParseParams() map[string]interface{} {
	if m.ParsedParams != nil {
		return m.ParsedParams
	}

	req := m.Request()
	if req == nil || req.Params == nil {
		return nil
	}

	var params map[string]interface{}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil
	}

	m.ParsedParams = params
	return params
}

// RawID extracts the request ID from the raw message bytes as a
// json.RawMessage. This is needed because the SDK's jsonrpc.ID type doesn't
// marshal correctly through interface{}, so the ID is pulled directly from
// the raw JSON. Returns nil if no ID is present.
func (m *Message) RawID() json.RawMessage {
	if m.Raw == nil {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(m.Raw, &raw); err != nil {
		return nil
	}

	return raw["id"]
}
