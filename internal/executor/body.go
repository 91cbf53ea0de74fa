package executor

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// bodyMethods is the set of HTTP methods that typically carry a request
// body.
var bodyMethods = map[string]bool{"POST": true, "PUT": true, "PATCH": true}

// extractBody pulls the "body" argument (case-insensitive) out of args,
// recursively recases its object keys to camelCase, and marshals the result
// as JSON. Tool arguments arrive as map[string]interface{} from JSON-RPC
// params, so there's no struct to drive reflection-based marshalling off of —
// the recasing walks the decoded value by hand instead.
func extractBody(method string, args map[string]interface{}) ([]byte, bool, error) {
	if !bodyMethods[strings.ToUpper(method)] {
		return nil, false, nil
	}
	_, raw, ok := lookupCaseInsensitive(args, "body")
	if !ok {
		return nil, false, nil
	}
	encoded, err := json.Marshal(camelCaseKeys(raw))
	if err != nil {
		return nil, false, fmt.Errorf("executor: encode body: %w", err)
	}
	return encoded, true, nil
}

// camelCaseKeys walks v and recases every map key to camelCase, recursing
// into nested maps and slices. Non-map, non-slice values pass through
// unchanged.
func camelCaseKeys(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, child := range val {
			out[toCamelCase(k)] = camelCaseKeys(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, child := range val {
			out[i] = camelCaseKeys(child)
		}
		return out
	default:
		return v
	}
}

// toCamelCase lowercases key's first character, drops every "_", "-" or
// space separator and uppercases the character that follows it; all other
// characters are kept as they are, so an already camelCase key or a single
// lowercase word comes back unchanged.
func toCamelCase(key string) string {
	if key == "" {
		return key
	}
	var b strings.Builder
	upperNext := false
	first := true
	for _, r := range key {
		if r == '_' || r == '-' || r == ' ' {
			upperNext = true
			continue
		}
		if first {
			b.WriteRune(toLowerRune(r))
			first = false
			continue
		}
		if upperNext {
			b.WriteRune(toUpperRune(r))
			upperNext = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func toUpperRune(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

// summarizeJSON renders a human-readable summary: objects as "k: v, …",
// arrays as "[v1, v2, …]" truncated at 10 items.
func summarizeJSON(v interface{}) string {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, val[k]))
		}
		return strings.Join(parts, ", ")
	case []interface{}:
		n := len(val)
		truncated := n > 10
		if truncated {
			val = val[:10]
		}
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		out := "[" + strings.Join(parts, ", ")
		if truncated {
			out += ", …"
		}
		return out + "]"
	default:
		return fmt.Sprint(val)
	}
}
