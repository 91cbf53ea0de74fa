// Package adminauth protects the diagnostics surface
// with a single static bearer token, hashed at rest with argon2id. This
// is a scaled-down, single-token stand-in for multi-identity RBAC, since
// this gateway has no concept of separate admin identities.
package adminauth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
)

// ErrInvalidToken is returned when a presented bearer token does not match
// the configured hash.
var ErrInvalidToken = errors.New("invalid admin token")

// params are the OWASP-minimum argon2id parameters.
var params = &argon2id.Params{
	Memory:      47 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// HashToken returns an argon2id PHC-format hash of rawToken suitable for
// storage in GatewayHostConfig.Admin.TokenHash.
func HashToken(rawToken string) (string, error) {
	return argon2id.CreateHash(rawToken, params)
}

// Verify checks rawToken against storedHash, recovering from panics the
// underlying argon2 library raises on malformed PHC strings (e.g. a hash
// hand-edited into the config file with t=0).
func Verify(rawToken, storedHash string) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("adminauth: invalid token hash parameters: %v", r)
		}
	}()
	match, compareErr := argon2id.ComparePasswordAndHash(rawToken, storedHash)
	if compareErr != nil {
		return false, compareErr
	}
	return match, nil
}

// ConstantTimeEqual compares two strings without leaking timing
// information, used where a raw shared-secret comparison (rather than an
// argon2id hash comparison) is appropriate, e.g. comparing the correlation
// id echoed back by an operator against a previously logged value.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
