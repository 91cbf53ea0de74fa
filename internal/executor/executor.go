package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atakanatali/contextify-gateway/internal/domain/tool"
	"github.com/atakanatali/contextify-gateway/internal/redaction"
)

// maxResponseBodySize bounds the response read to protect against an
// unbounded upstream body.
const maxResponseBodySize = 10 << 20 // 10MB

// maxRequestContentLengthBytes is the fixed warn threshold for oversized
// request bodies.
const maxRequestContentLengthBytes = 1 << 20 // 1MB

// Executor runs a compiled tool against its backing HTTP endpoint. The
// underlying *http.Client is long-lived and shared across calls rather
// than constructed per request.
type Executor struct {
	httpClient *http.Client
	baseURL    string
	redactor   *redaction.Redactor
}

// NewExecutor builds an Executor sharing a single *http.Client across every
// call; baseURL is prefixed to every expanded route template.
func NewExecutor(httpClient *http.Client, baseURL string) *Executor {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Executor{httpClient: httpClient, baseURL: baseURL}
}

// WithRedactor attaches a redaction filter applied to every successful
// result's JSON payload and text summary before it reaches the dispatcher.
// A nil Redactor (the default) disables redaction, matching
// redaction.Config's own zero-value-disables-it convention.
func (e *Executor) WithRedactor(r *redaction.Redactor) *Executor {
	e.redactor = r
	return e
}

// Execute runs descriptor's backing HTTP call using arguments, an
// optional caller auth context, and the caller's cancellation signal. It
// returns no Go error: every failure, including a nil descriptor or one
// without a route template (NO_ENDPOINT), is reported in the Result, so
// callers always have a Result to forward.
func (e *Executor) Execute(ctx context.Context, descriptor *tool.Descriptor, arguments map[string]interface{}, auth *AuthContext) Result {
	start := time.Now()

	if descriptor == nil || descriptor.EndpointDescriptor.RouteTemplate == "" {
		return Result{ErrorCategory: ErrorNoEndpoint, ErrorMessage: "tool descriptor has no endpoint"}
	}

	method := descriptor.EndpointDescriptor.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	uri, err := expandURI(e.baseURL, descriptor.EndpointDescriptor.RouteTemplate, arguments)
	if err != nil {
		return withDuration(Result{ErrorCategory: ErrorUnexpected, ErrorMessage: err.Error()}, start)
	}

	bodyBytes, hasBody, err := extractBody(method, arguments)
	if err != nil {
		return withDuration(Result{ErrorCategory: ErrorJSONParse, ErrorMessage: err.Error()}, start)
	}
	var warnings []string
	if hasBody && len(bodyBytes) > maxRequestContentLengthBytes {
		// Oversized body is only a warning, not a hard failure; the
		// request still proceeds.
		warnings = append(warnings, fmt.Sprintf("request body (%d bytes) exceeds the recommended limit of %d bytes", len(bodyBytes), maxRequestContentLengthBytes))
	}

	timeout := defaultTimeout
	if ms := descriptor.EffectivePolicy.TimeoutMs; ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if hasBody {
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(callCtx, method, uri, reqBody)
	if err != nil {
		return withDuration(Result{ErrorCategory: ErrorUnexpected, ErrorMessage: err.Error()}, start)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	applyAuth(req, descriptor, auth)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return withDuration(classifyTransportError(ctx, callCtx, err), start)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return withDuration(classifyTransportError(ctx, callCtx, err), start)
	}

	result := classifyResponse(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
	result.Warnings = append(result.Warnings, warnings...)
	return withDuration(e.redact(result), start)
}

// redact applies the attached Redactor (if any) to a successful result's
// JSON payload and text summary. Error results pass through unchanged —
// their text is already bounded to a short HTTP-status snippet, not
// arbitrary upstream payload.
func (e *Executor) redact(r Result) Result {
	if e.redactor == nil || !r.Success {
		return r
	}
	if r.JSON != nil {
		r.JSON = e.redactor.RedactValue(r.JSON)
		r.Text = summarizeJSON(r.JSON)
		return r
	}
	r.Text = e.redactor.RedactText(r.Text)
	return r
}

func withDuration(r Result, start time.Time) Result {
	r.DurationMs = time.Since(start).Milliseconds()
	return r
}

// applyAuth forwards caller auth per descriptor.EffectivePolicy.AuthPropagationMode.
func applyAuth(req *http.Request, descriptor *tool.Descriptor, auth *AuthContext) {
	if auth == nil {
		return
	}
	mode := descriptor.EffectivePolicy.AuthPropagationMode
	if mode == "" || mode == "Infer" {
		if descriptor.EndpointDescriptor.RequiresAuth && auth.BearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+auth.BearerToken)
		}
		return
	}
	switch mode {
	case "BearerToken":
		if auth.BearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+auth.BearerToken)
		}
	case "Cookies":
		for _, c := range auth.Cookies {
			req.Header.Add("Cookie", c)
		}
	case "None":
		// no-op
	}
}

// classifyTransportError disambiguates a transport-level failure: if the
// caller's own context carries the cancellation, report CANCELLED;
// otherwise the linked context's own deadline fired, so report TIMEOUT.
func classifyTransportError(callerCtx, linkedCtx context.Context, err error) Result {
	if callerCtx.Err() != nil {
		return Result{ErrorCategory: ErrorCancelled, IsTransient: true, ErrorMessage: err.Error()}
	}
	if linkedCtx.Err() != nil {
		return Result{ErrorCategory: ErrorTimeout, IsTransient: true, ErrorMessage: err.Error()}
	}
	return Result{ErrorCategory: ErrorHTTP, IsTransient: true, ErrorMessage: err.Error()}
}

// classifyResponse maps an HTTP status/content-type/body into a Result,
// classifying non-2xx responses by transience and parsing JSON bodies.
func classifyResponse(status int, contentType string, body []byte) Result {
	if status < 200 || status >= 300 {
		isTransient := status >= 500 || status == 408 || status == 429
		snippet := string(body)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return Result{
			Success:       false,
			IsTransient:   isTransient,
			ErrorCategory: ErrorCategory(fmt.Sprintf("HTTP_%d", status)),
			ErrorMessage:  snippet,
			HTTPStatus:    status,
			ContentType:   contentType,
		}
	}

	if strings.Contains(strings.ToLower(contentType), "json") {
		var parsed interface{}
		if err := json.Unmarshal(body, &parsed); err == nil {
			return Result{
				Success:     true,
				HTTPStatus:  status,
				ContentType: contentType,
				JSON:        parsed,
				Text:        summarizeJSON(parsed),
			}
		}
		return Result{
			Success:     true,
			HTTPStatus:  status,
			ContentType: contentType,
			Text:        string(body),
		}
	}

	return Result{
		Success:     true,
		HTTPStatus:  status,
		ContentType: contentType,
		Text:        string(body),
	}
}
