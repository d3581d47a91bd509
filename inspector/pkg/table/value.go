package table

import (
	"cmp"
	"fmt"
	"strings"
	"time"
)

// Structured returns v as a structured value if it is one.
func Structured(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// Compare orders two present cell values, returning -1, 0 or +1. Times, strings, booleans and
// numbers compare naturally within their kind; anything else, including mixed kinds, compares
// by string rendering.
func Compare(a, b any) int {
	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}

	if x, ok := asInt(a); ok {
		if y, ok := asInt(b); ok {
			return cmp.Compare(x, y)
		}
	}
	if x, ok := asFloat(a); ok {
		if y, ok := asFloat(b); ok {
			return cmp.Compare(x, y)
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	return 0, false
}
