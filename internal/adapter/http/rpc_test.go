package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/atakanatali/contextify-gateway/internal/dispatcher"
	"github.com/atakanatali/contextify-gateway/internal/domain/tool"
	"github.com/atakanatali/contextify-gateway/internal/executor"
)

type fakeCatalog struct{ snapshot *tool.CatalogSnapshot }

func (f *fakeCatalog) GetSnapshot() *tool.CatalogSnapshot { return f.snapshot }

type noopExecutor struct{}

func (noopExecutor) Execute(ctx context.Context, descriptor *tool.Descriptor, arguments map[string]interface{}, auth *executor.AuthContext) executor.Result {
	return executor.Result{Success: true, Text: "ok"}
}

func newTestDispatcher() *dispatcher.Dispatcher {
	catalog := &fakeCatalog{snapshot: tool.NewEmptyCatalogSnapshot()}
	return dispatcher.New(catalog, noopExecutor{}, slog.Default(), "contextify-gateway", "test")
}

func TestRPCHandlerRejectsNonPost(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher()
	req := httptest.NewRequest("GET", "/mcp", nil)
	rec := httptest.NewRecorder()
	rpcHandler(d).ServeHTTP(rec, req)

	if rec.Code != 405 {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestRPCHandlerRejectsBadContentType(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher()
	req := httptest.NewRequest("POST", "/mcp", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "text/xml")
	rec := httptest.NewRecorder()
	rpcHandler(d).ServeHTTP(rec, req)

	if rec.Code != 415 {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestRPCHandlerRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher()
	req := httptest.NewRequest("POST", "/mcp", bytes.NewBufferString(""))
	rec := httptest.NewRecorder()
	rpcHandler(d).ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRPCHandlerDispatchesValidRequest(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher()
	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`
	req := httptest.NewRequest("POST", "/mcp", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	rpcHandler(d).ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", rec.Header().Get("Content-Type"))
	}
}

func TestRPCHandlerNotificationYieldsNoBody(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher()
	body := `{"jsonrpc":"2.0","method":"initialize","params":{}}`
	req := httptest.NewRequest("POST", "/mcp", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	rpcHandler(d).ServeHTTP(rec, req)

	if rec.Code != 202 {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body length = %d, want 0", rec.Body.Len())
	}
}
