package gateway

import "strings"

// globMatch implements a single-`*`-wildcard glob — no `**`, `?`, `[`, `]`
// support (those are rejected at config validation time by
// gatewaycfg.Config.Validate).
func globMatch(pattern, name string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == name
	}

	if !strings.HasPrefix(name, parts[0]) {
		return false
	}
	name = name[len(parts[0]):]

	for i := 1; i < len(parts)-1; i++ {
		idx := strings.Index(name, parts[i])
		if idx < 0 {
			return false
		}
		name = name[idx+len(parts[i]):]
	}

	return strings.HasSuffix(name, parts[len(parts)-1])
}

// anyMatch reports whether name matches any of patterns.
func anyMatch(patterns []string, name string) bool {
	for _, p := range patterns {
		if globMatch(p, name) {
			return true
		}
	}
	return false
}

// admitted applies the gateway-level allow/deny pattern policy:
// denied takes precedence over allowed; an empty allow list combined with
// denyByDefault denies everything.
func admitted(cfg admissionPolicy, name string) bool {
	if anyMatch(cfg.Denied, name) {
		return false
	}
	if len(cfg.Allowed) > 0 {
		return anyMatch(cfg.Allowed, name)
	}
	return !cfg.DenyByDefault
}

type admissionPolicy struct {
	Allowed       []string
	Denied        []string
	DenyByDefault bool
}
