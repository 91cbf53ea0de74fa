package http

import (
	"encoding/json"
	"net/http"
)

// manifestCapabilities mirrors the well-known manifest shape.
type manifestCapabilities struct {
	Tools manifestToolsCapability `json:"tools"`
}

type manifestToolsCapability struct {
	List bool `json:"list"`
	Call bool `json:"call"`
}

type manifestResponse struct {
	Name         string               `json:"name"`
	MCPEndpoint  string               `json:"mcpEndpoint"`
	Capabilities manifestCapabilities `json:"capabilities"`
}

// manifestHandler serves GET /.well-known/contextify/manifest.
func manifestHandler(name, mcpEndpoint string) http.Handler {
	resp := manifestResponse{
		Name:        name,
		MCPEndpoint: mcpEndpoint,
		Capabilities: manifestCapabilities{
			Tools: manifestToolsCapability{List: true, Call: true},
		},
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	})
}
