package seam

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// resolvePath walks a dotted path through the data object. scopes holds
// the enclosing iteration items, innermost last; "$" addresses the
// current item and "$$" the one outside it. The second result is false
// when any step of the path is absent.
func resolvePath(data map[string]any, scopes []any, path string) (any, bool) {
	segs := strings.Split(path, ".")
	var cur any
	switch segs[0] {
	case "$":
		if len(scopes) == 0 {
			return nil, false
		}
		cur = scopes[len(scopes)-1]
		segs = segs[1:]
	case "$$":
		if len(scopes) < 2 {
			return nil, false
		}
		cur = scopes[len(scopes)-2]
		segs = segs[1:]
	default:
		if data == nil {
			return nil, false
		}
		cur = data
	}

	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// isTruthy mirrors the conditional semantics of the directive language:
// nil, false, zero numbers, empty strings and empty arrays are falsy.
// Objects are truthy even when empty, so "if:items" means "has items"
// while "if:user" means "user exists".
func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// asArray coerces a resolved value into an iterable slice. Anything that
// is not array shaped returns nil, which iterates zero times.
func asArray(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// stringify renders a value the way script templates coerce to strings:
// integral numbers without a decimal point, booleans as bare words, nil
// as the empty string. Arrays and objects fall back to compact JSON.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(t)
	case float32:
		return formatNumber(float64(t))
	case int:
		return strconv.Itoa(t)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case json.Number:
		return t.String()
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

// formatNumber prints floats the way script runtimes stringify them:
// integral values without a trailing ".0" and scientific notation only
// past 1e21 or below 1e-6.
func formatNumber(f float64) string {
	switch {
	case f == 0:
		return "0"
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// strconv pads exponents to two digits; script runtimes do not.
		s = strings.Replace(s, "e+0", "e+", 1)
		s = strings.Replace(s, "e-0", "e-", 1)
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// asNumber extracts a float from any numeric type.
func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// attrValue decides the spliced form of a dynamic attribute. keep=false
// drops the attribute entirely. On a recognized boolean attribute, true
// renders name="" and false omits it; on any other attribute booleans
// stringify.
func attrValue(name string, v any) (val string, keep bool) {
	if v == nil {
		return "", false
	}
	if b, isBool := v.(bool); isBool && booleanAttrs[strings.ToLower(name)] {
		return "", b
	}
	return stringify(v), true
}

// styleValue decides the css text of a dynamic style property. Numbers
// get a px suffix unless the property is unitless; nil and false skip
// the declaration.
func styleValue(prop string, v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case bool:
		if !t {
			return "", false
		}
		return "true", true
	case string:
		return t, true
	}
	if n, ok := asNumber(v); ok {
		s := formatNumber(n)
		if !unitlessStyleProps[strings.ToLower(prop)] {
			s += "px"
		}
		return s, true
	}
	return stringify(v), true
}
