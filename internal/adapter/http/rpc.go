// Package http provides the HTTP transport adapter exposing the JSON-RPC
// endpoint and the well-known surfaces (manifest, diagnostics, health).
// The JSON-RPC handler checks method, content type, body size and JSON
// syntax before calling into internal/dispatcher.Dispatcher.
package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/atakanatali/contextify-gateway/internal/dispatcher"
)

// maxRequestBodySize caps the JSON-RPC request body at 1 MB.
const maxRequestBodySize = 1 << 20

// rpcHandler serves POST /mcp: parse, dispatch, write the JSON-RPC
// response (or 202 Accepted with no body for notifications).
func rpcHandler(d *dispatcher.Dispatcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		contentType := r.Header.Get("Content-Type")
		if !dispatcher.ValidateContentType(contentType) {
			http.Error(w, "Unsupported Media Type: content type must be application/json", http.StatusUnsupportedMediaType)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer func() { _ = r.Body.Close() }()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				http.Error(w, "Payload Too Large: request body exceeds 1MB", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Bad Request: failed to read request body", http.StatusBadRequest)
			return
		}
		if len(body) == 0 {
			http.Error(w, "Bad Request: empty request body", http.StatusBadRequest)
			return
		}

		outcome := d.Dispatch(r.Context(), body)

		if outcome.Body == nil {
			w.WriteHeader(outcome.HTTPStatus)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(outcome.HTTPStatus)
		_, _ = w.Write(outcome.Body)
	})
}
