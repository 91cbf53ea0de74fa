package adminauth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// ExtractBearerToken pulls the raw token out of an Authorization header,
// returning false if the header is absent or malformed.
func ExtractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimPrefix(header, bearerPrefix)
	if token == "" {
		return "", false
	}
	return token, true
}

// Authorize checks an inbound request's bearer token against tokenHash. An
// empty tokenHash disables the gate entirely — the diagnostics endpoint is
// open by default since a full admin console is out of scope here.
func Authorize(r *http.Request, tokenHash string) error {
	if tokenHash == "" {
		return nil
	}
	token, ok := ExtractBearerToken(r)
	if !ok {
		return ErrInvalidToken
	}
	match, err := Verify(token, tokenHash)
	if err != nil {
		return err
	}
	if !match {
		return ErrInvalidToken
	}
	return nil
}
