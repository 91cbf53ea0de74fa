package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// braceConstraint matches a `{name:constraint}` route segment so its
// constraint part can be collapsed to `{name}` before normalisation.
var braceConstraint = regexp.MustCompile(`\{([^:{}]+):[^{}]*\}`)

// nonToken matches any character outside [A-Za-z0-9_-] for the final
// sanitization pass.
var nonToken = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// runsOfUnderscore collapses repeated underscores left behind by
// substitution.
var runsOfUnderscore = regexp.MustCompile(`_+`)

// GenerateStable derives a deterministic tool name from an HTTP method and
// route template. Pure function: identical inputs always
// produce identical output.
func GenerateStable(method, routeTemplate string) string {
	m := strings.ToUpper(strings.TrimSpace(method))
	if m == "" {
		m = "GET"
	}

	route := strings.Trim(routeTemplate, "/")
	route = braceConstraint.ReplaceAllString(route, "{$1}")
	route = strings.ReplaceAll(route, "{", "_")
	route = strings.ReplaceAll(route, "}", "_")
	route = nonToken.ReplaceAllString(route, "_")
	route = runsOfUnderscore.ReplaceAllString(route, "_")
	route = strings.TrimSuffix(route, "_")
	if route == "" {
		route = "unknown"
	}

	return fmt.Sprintf("%s_%s", m, route)
}

// CollisionSuffix derives the stable 8-hex-character suffix appended to a
// colliding tool name: the first 4 bytes of SHA-256("{METHOD}:{routeTemplate}")
// hex-encoded.
func CollisionSuffix(method, routeTemplate string) string {
	m := strings.ToUpper(strings.TrimSpace(method))
	if m == "" {
		m = "GET"
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", m, routeTemplate)))
	return hex.EncodeToString(sum[:4])
}
