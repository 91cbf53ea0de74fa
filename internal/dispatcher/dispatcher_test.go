package dispatcher

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/atakanatali/contextify-gateway/internal/domain/gatewaycfg"
	"github.com/atakanatali/contextify-gateway/internal/domain/tool"
	"github.com/atakanatali/contextify-gateway/internal/executor"
)

type fakeCatalog struct {
	snap *tool.CatalogSnapshot
}

func (f *fakeCatalog) GetSnapshot() *tool.CatalogSnapshot { return f.snap }

type fakeExecutor struct {
	result executor.Result
}

func (f *fakeExecutor) Execute(ctx context.Context, descriptor *tool.Descriptor, arguments map[string]interface{}, auth *executor.AuthContext) executor.Result {
	return f.result
}

func snapshotWithOneTool() *tool.CatalogSnapshot {
	return &tool.CatalogSnapshot{
		ToolsByName: map[string]tool.Descriptor{
			"get_weather": {ToolName: "get_weather", Description: "fetch weather"},
		},
	}
}

func decodeResponse(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("response is not valid JSON: %v (body=%s)", err, body)
	}
	return out
}

func TestDispatchInitialize(t *testing.T) {
	d := New(&fakeCatalog{snap: snapshotWithOneTool()}, &fakeExecutor{}, nil, "contextify-gateway", "1.0.0")
	out := d.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`))

	if out.HTTPStatus != http.StatusOK {
		t.Fatalf("HTTPStatus = %d, want 200", out.HTTPStatus)
	}
	resp := decodeResponse(t, out.Body)
	if _, hasError := resp["error"]; hasError {
		t.Fatalf("unexpected error in response: %v", resp)
	}
}

func TestDispatchToolsList(t *testing.T) {
	d := New(&fakeCatalog{snap: snapshotWithOneTool()}, &fakeExecutor{}, nil, "gw", "1.0.0")
	out := d.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))

	resp := decodeResponse(t, out.Body)
	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected result object, got %v", resp)
	}
	tools, ok := result["tools"].([]interface{})
	if !ok || len(tools) != 1 {
		t.Fatalf("expected one tool, got %v", result["tools"])
	}
}

func TestDispatchToolsCallUnknownTool(t *testing.T) {
	d := New(&fakeCatalog{snap: snapshotWithOneTool()}, &fakeExecutor{}, nil, "gw", "1.0.0")
	out := d.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nonexistent"}}`))

	resp := decodeResponse(t, out.Body)
	errObj, ok := resp["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %v", resp)
	}
	if int(errObj["code"].(float64)) != CodeInvalidParams {
		t.Errorf("code = %v, want %d", errObj["code"], CodeInvalidParams)
	}
}

func TestDispatchToolsCallSuccess(t *testing.T) {
	d := New(&fakeCatalog{snap: snapshotWithOneTool()}, &fakeExecutor{result: executor.Result{Success: true, Text: "sunny"}}, nil, "gw", "1.0.0")
	out := d.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"get_weather","arguments":{}}}`))

	resp := decodeResponse(t, out.Body)
	result := resp["result"].(map[string]interface{})
	if result["isError"] != false {
		t.Errorf("isError = %v, want false", result["isError"])
	}
}

func TestDispatchUnknownMethod(t *testing.T) {
	d := New(&fakeCatalog{snap: snapshotWithOneTool()}, &fakeExecutor{}, nil, "gw", "1.0.0")
	out := d.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":5,"method":"bogus"}`))

	resp := decodeResponse(t, out.Body)
	errObj := resp["error"].(map[string]interface{})
	if int(errObj["code"].(float64)) != CodeMethodNotFound {
		t.Errorf("code = %v, want %d", errObj["code"], CodeMethodNotFound)
	}
}

func TestDispatchWrongJSONRPCVersion(t *testing.T) {
	d := New(&fakeCatalog{snap: snapshotWithOneTool()}, &fakeExecutor{}, nil, "gw", "1.0.0")
	out := d.Dispatch(context.Background(), []byte(`{"jsonrpc":"1.0","id":6,"method":"initialize"}`))

	resp := decodeResponse(t, out.Body)
	errObj := resp["error"].(map[string]interface{})
	if int(errObj["code"].(float64)) != CodeInvalidRequest {
		t.Errorf("code = %v, want %d", errObj["code"], CodeInvalidRequest)
	}
}

func TestDispatchMalformedJSON(t *testing.T) {
	d := New(&fakeCatalog{snap: snapshotWithOneTool()}, &fakeExecutor{}, nil, "gw", "1.0.0")
	out := d.Dispatch(context.Background(), []byte(`not json`))

	if out.HTTPStatus != http.StatusBadRequest {
		t.Errorf("HTTPStatus = %d, want 400", out.HTTPStatus)
	}
	resp := decodeResponse(t, out.Body)
	errObj := resp["error"].(map[string]interface{})
	if int(errObj["code"].(float64)) != CodeParseError {
		t.Errorf("code = %v, want %d", errObj["code"], CodeParseError)
	}
}

func TestDispatchNotificationYieldsNoBody(t *testing.T) {
	d := New(&fakeCatalog{snap: snapshotWithOneTool()}, &fakeExecutor{}, nil, "gw", "1.0.0")
	out := d.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list"}`))

	if out.HTTPStatus != http.StatusAccepted {
		t.Errorf("HTTPStatus = %d, want 202", out.HTTPStatus)
	}
	if out.Body != nil {
		t.Errorf("expected nil body for a notification, got %s", out.Body)
	}
}

type fakeGateway struct {
	snap *gatewaycfg.Snapshot
}

func (f *fakeGateway) GetSnapshot() *gatewaycfg.Snapshot { return f.snap }

type fakeGatewayExecutor struct {
	result executor.Result
	called bool
}

func (f *fakeGatewayExecutor) CallTool(ctx context.Context, snap *gatewaycfg.Snapshot, name string, arguments map[string]interface{}) executor.Result {
	f.called = true
	return f.result
}

func gatewaySnapshotWithOneTool() *gatewaycfg.Snapshot {
	return &gatewaycfg.Snapshot{
		ToolsByName: map[string]gatewaycfg.AggregatedTool{
			"weather.get_forecast": {Name: "weather.get_forecast", UpstreamName: "weather", UpstreamToolRaw: "get_forecast"},
		},
		StatusByUpstream: map[string]gatewaycfg.UpstreamStatus{"weather": {Healthy: true}},
	}
}

func TestDispatchToolsListMergesGatewayTools(t *testing.T) {
	d := New(&fakeCatalog{snap: snapshotWithOneTool()}, &fakeExecutor{}, nil, "gw", "1.0.0")
	d.WithGateway(&fakeGateway{snap: gatewaySnapshotWithOneTool()}, &fakeGatewayExecutor{})

	out := d.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))

	resp := decodeResponse(t, out.Body)
	result := resp["result"].(map[string]interface{})
	tools, ok := result["tools"].([]interface{})
	if !ok || len(tools) != 2 {
		t.Fatalf("expected 2 tools (1 local + 1 gateway), got %v", result["tools"])
	}
}

func TestDispatchToolsCallRoutesToGatewayForwarder(t *testing.T) {
	gwExec := &fakeGatewayExecutor{result: executor.Result{Success: true, Text: "sunny"}}
	d := New(&fakeCatalog{snap: snapshotWithOneTool()}, &fakeExecutor{}, nil, "gw", "1.0.0")
	d.WithGateway(&fakeGateway{snap: gatewaySnapshotWithOneTool()}, gwExec)

	out := d.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"weather.get_forecast","arguments":{}}}`))

	if !gwExec.called {
		t.Fatal("expected the gateway executor to be invoked for a gateway-owned tool name")
	}
	resp := decodeResponse(t, out.Body)
	result, ok := resp["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected result object, got %v", resp)
	}
	if result["isError"] != false {
		t.Errorf("isError = %v, want false", result["isError"])
	}
}

func TestDispatchToolsCallWithoutGatewayStillReportsUnknownTool(t *testing.T) {
	d := New(&fakeCatalog{snap: snapshotWithOneTool()}, &fakeExecutor{}, nil, "gw", "1.0.0")
	out := d.Dispatch(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"weather.get_forecast"}}`))

	resp := decodeResponse(t, out.Body)
	errObj, ok := resp["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object when no gateway is wired, got %v", resp)
	}
	if int(errObj["code"].(float64)) != CodeInvalidParams {
		t.Errorf("code = %v, want %d", errObj["code"], CodeInvalidParams)
	}
}

func TestValidateContentType(t *testing.T) {
	if !ValidateContentType("") || !ValidateContentType("application/json") {
		t.Error("expected empty and application/json content types to validate")
	}
	if ValidateContentType("text/plain") {
		t.Error("expected text/plain to be rejected")
	}
}
