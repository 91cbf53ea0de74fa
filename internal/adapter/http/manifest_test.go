package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestManifestHandlerReturnsExpectedShape(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/.well-known/contextify/manifest", nil)
	rec := httptest.NewRecorder()
	manifestHandler("contextify-gateway", "/mcp").ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp manifestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Name != "contextify-gateway" {
		t.Errorf("Name = %q, want contextify-gateway", resp.Name)
	}
	if resp.MCPEndpoint != "/mcp" {
		t.Errorf("MCPEndpoint = %q, want /mcp", resp.MCPEndpoint)
	}
	if !resp.Capabilities.Tools.List || !resp.Capabilities.Tools.Call {
		t.Error("capabilities.tools.{list,call} want both true")
	}
}

func TestManifestHandlerRejectsNonGet(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/.well-known/contextify/manifest", nil)
	rec := httptest.NewRecorder()
	manifestHandler("contextify-gateway", "/mcp").ServeHTTP(rec, req)

	if rec.Code != 405 {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
