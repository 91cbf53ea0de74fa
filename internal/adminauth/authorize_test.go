package adminauth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthorizeNoHashDisablesGate(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	if err := Authorize(req, ""); err != nil {
		t.Errorf("Authorize() with empty hash = %v, want nil", err)
	}
}

func TestAuthorizeRejectsMissingHeader(t *testing.T) {
	t.Parallel()

	hash, _ := HashToken("token-123")
	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	if err := Authorize(req, hash); err != ErrInvalidToken {
		t.Errorf("Authorize() = %v, want ErrInvalidToken", err)
	}
}

func TestAuthorizeAcceptsValidBearerToken(t *testing.T) {
	t.Parallel()

	hash, _ := HashToken("token-123")
	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	req.Header.Set("Authorization", "Bearer token-123")
	if err := Authorize(req, hash); err != nil {
		t.Errorf("Authorize() error = %v, want nil", err)
	}
}

func TestAuthorizeRejectsWrongToken(t *testing.T) {
	t.Parallel()

	hash, _ := HashToken("token-123")
	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	if err := Authorize(req, hash); err != ErrInvalidToken {
		t.Errorf("Authorize() = %v, want ErrInvalidToken", err)
	}
}

func TestExtractBearerTokenMalformedPrefix(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/diagnostics", nil)
	req.Header.Set("Authorization", "Basic abc123")
	if _, ok := ExtractBearerToken(req); ok {
		t.Error("ExtractBearerToken() ok = true, want false for Basic auth header")
	}
}
