package normalize

import (
	"fmt"
	"strings"
)

// AsString renders a resolved value as trimmed text. Scalars are formatted
// with their natural representation; nil yields "".
func AsString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	case float64:
		// JSON numbers decode as float64. Render whole numbers without
		// a trailing ".0" so scores like 8 round-trip cleanly.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

// AsList coerces a resolved value into a sequence of trimmed strings.
// Comma-separated text is split, sequences are stringified per element,
// anything else yields an empty sequence.
func AsList(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case string:
		return splitTrimmed(v)
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if trimmed := AsString(item); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		return []string{}
	}
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Union appends the members of extra to base, dropping duplicates while
// preserving first-seen order.
func Union(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, item := range list {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
