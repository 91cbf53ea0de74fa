package executor

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// convertValue converts an argument value for URI building:
// primitives by invariant culture, booleans lowercased, time.Time as
// ISO-8601, uuid.UUID in canonical form, everything else via fmt.Sprint.
func convertValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case uuid.UUID:
		return val.String()
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprint(val)
	case float32, float64:
		return strconv.FormatFloat(toFloat64(val), 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

func toFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

// expandURI builds the request URI: substitute `{name}` placeholders
// case-insensitively against arguments (percent-encoded, unmatched
// placeholders kept literal), then append every remaining unconsumed
// argument (other than "body") as a percent-encoded query parameter.
func expandURI(base string, routeTemplate string, args map[string]interface{}) (string, error) {
	consumed := make(map[string]bool, len(args))

	expanded := placeholderPattern.ReplaceAllStringFunc(routeTemplate, func(match string) string {
		name := match[1 : len(match)-1]
		key, raw, ok := lookupCaseInsensitive(args, name)
		if !ok {
			return match
		}
		consumed[key] = true
		return strings.ReplaceAll(url.QueryEscape(convertValue(raw)), "+", "%20")
	})

	path := strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(expanded, "/")
	if base == "" {
		path = expanded
	}

	var queryKeys []string
	for k := range args {
		if consumed[k] || strings.EqualFold(k, "body") {
			continue
		}
		queryKeys = append(queryKeys, k)
	}
	sort.Strings(queryKeys)

	if len(queryKeys) == 0 {
		return path, nil
	}

	pairs := make([]string, 0, len(queryKeys))
	for _, k := range queryKeys {
		pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(convertValue(args[k])))
	}
	return path + "?" + strings.Join(pairs, "&"), nil
}

// lookupCaseInsensitive finds an argument key matching name case-
// insensitively, returning the key actually present in args so the caller
// can mark it consumed.
func lookupCaseInsensitive(args map[string]interface{}, name string) (string, interface{}, bool) {
	if v, ok := args[name]; ok {
		return name, v, true
	}
	for k, v := range args {
		if strings.EqualFold(k, name) {
			return k, v, true
		}
	}
	return "", nil, false
}
