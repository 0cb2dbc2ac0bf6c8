package scoring

import (
	"strconv"
	"strings"
)

// Pointer resolves an RFC6901-style JSON pointer ("/tags/role") against a
// decoded JSON value (map[string]any / []any / scalars). It returns
// (nil, false) if any segment of the path is absent, matching spec §4.3's
// "profile_val is absent" case rather than erroring.
func Pointer(doc any, path string) (any, bool) {
	if path == "" || path == "/" {
		return doc, true
	}
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	cur := doc
	for _, seg := range segments {
		seg = unescapeToken(seg)
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func unescapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	tok = strings.ReplaceAll(tok, "~0", "~")
	return tok
}

// AsFloat64 best-effort coerces a decoded JSON value to float64.
func AsFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsString best-effort coerces a decoded JSON value to string.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
