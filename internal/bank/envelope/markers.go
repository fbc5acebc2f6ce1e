package envelope

import "strings"

// MessageEquals requires payload.message to equal want exactly.
func MessageEquals(want string) Marker {
	return func(p map[string]any) bool {
		s, ok := p["message"].(string)
		return ok && s == want
	}
}

// FlagTrue requires payload[key] to be the boolean true.
func FlagTrue(key string) Marker {
	return func(p map[string]any) bool {
		b, ok := p[key].(bool)
		return ok && b
	}
}

// FlagNotFalse fails only when payload[key] is explicitly false.
func FlagNotFalse(key string) Marker {
	return func(p map[string]any) bool {
		b, ok := p[key].(bool)
		return !ok || b
	}
}

// FieldsPresent requires every key to hold a non-empty value.
func FieldsPresent(keys ...string) Marker {
	return func(p map[string]any) bool {
		for _, k := range keys {
			v, ok := p[k]
			if !ok || v == nil {
				return false
			}
			if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
				return false
			}
		}
		return true
	}
}

// All combines markers; every one must hold.
func All(markers ...Marker) Marker {
	return func(p map[string]any) bool {
		for _, m := range markers {
			if m != nil && !m(p) {
				return false
			}
		}
		return true
	}
}
