package resource

import "reflect"

// ignoredProperties are stripped from both objects before comparison. They
// are assigned by the device and never part of the desired state.
var ignoredProperties = map[string]struct{}{
	"id":              {},
	"version":         {},
	"isSystemDefined": {},
	"links":           {},
}

// EqualObjects reports whether two configuration objects describe the same
// desired state. Device-assigned identity properties are ignored at the top
// level; everything below compares recursively. This is the engine's sole
// idempotence criterion.
func EqualObjects(a, b map[string]interface{}) bool {
	return equalMaps(stripIgnored(a), stripIgnored(b))
}

func stripIgnored(obj map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(obj))
	for k, v := range obj {
		if _, skip := ignoredProperties[k]; skip {
			continue
		}
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

func equalMaps(a, b map[string]interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !equalValues(av, bv) {
			return false
		}
	}
	return true
}

// equalValues compares two decoded JSON values. Numbers compare by value so
// a caller-supplied int matches the float64 the device echoes back; any
// other type mismatch means inequality.
func equalValues(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		return ok && equalMaps(av, bv)
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalValues(av[i], bv[i]) {
				return false
			}
		}
		return true
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
