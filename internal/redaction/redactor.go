// Package redaction implements an optional outbound redaction filter:
// case-insensitive recursive field-name redaction plus a lazily-compiled
// ordered list of pattern rules, combining sensitive-keyword field
// matching with a recursive map/slice walk. Stdlib regexp/strings are
// the right tool here; this logic has no meaningful third-party library
// to lean on.
package redaction

import (
	"regexp"
	"strings"
	"sync"
)

// redactedValue is the literal replacement for a redacted field.
const redactedValue = "[REDACTED]"

// defaultSensitiveKeywords covers the common sensitive-field vocabulary,
// extended with the gateway's own auth-material terms.
var defaultSensitiveKeywords = []string{
	"password", "secret", "token", "api_key", "apikey",
	"credential", "auth", "private_key", "privatekey",
	"authorization", "cookie", "ssn", "bearer",
}

// Config configures a Redactor. An empty Config (zero value) disables
// redaction entirely — the fast no-op path.
type Config struct {
	Enabled          bool
	FieldKeywords    []string // additional keywords, merged with the defaults
	PatternRules     []string // ordered regular expressions, compiled lazily
}

// Redactor applies field-name and pattern redaction to JSON-shaped values
// and to plain text.
type Redactor struct {
	enabled  bool
	keywords []string

	mu       sync.Mutex
	patterns []string
	compiled []*regexp.Regexp
	ready    bool
}

// New builds a Redactor from cfg. Pattern compilation is deferred to
// first use.
func New(cfg Config) *Redactor {
	keywords := append([]string{}, defaultSensitiveKeywords...)
	keywords = append(keywords, cfg.FieldKeywords...)
	return &Redactor{
		enabled:  cfg.Enabled,
		keywords: keywords,
		patterns: cfg.PatternRules,
	}
}

// RedactValue recursively redacts a decoded JSON value (the result of
// json.Unmarshal into interface{}): objects have sensitive keys masked,
// arrays are walked element-wise, scalars pass through pattern redaction.
func (r *Redactor) RedactValue(v interface{}) interface{} {
	if !r.enabled {
		return v
	}
	return r.redact(v)
}

func (r *Redactor) redact(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			if r.isSensitiveKey(k) {
				out[k] = redactedValue
				continue
			}
			out[k] = r.redact(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = r.redact(child)
		}
		return out
	case string:
		return r.redactText(val)
	default:
		return val
	}
}

// RedactText applies only the pattern rules to a plain string, for
// redacting free-text tool output that carries no field structure.
func (r *Redactor) RedactText(s string) string {
	if !r.enabled {
		return s
	}
	return r.redactText(s)
}

func (r *Redactor) redactText(s string) string {
	for _, re := range r.compiledPatterns() {
		s = re.ReplaceAllString(s, redactedValue)
	}
	return s
}

func (r *Redactor) isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (r *Redactor) compiledPatterns() []*regexp.Regexp {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return r.compiled
	}
	r.compiled = make([]*regexp.Regexp, 0, len(r.patterns))
	for _, p := range r.patterns {
		if re, err := regexp.Compile(p); err == nil {
			r.compiled = append(r.compiled, re)
		}
	}
	r.ready = true
	return r.compiled
}
