package parse

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// GlucoseValue coerces raw into a finite float64. Anything that cannot be
// coerced, and any NaN or infinite result, yields 0.
func GlucoseValue(raw any) float64 {
	v, ok := toFloat(raw)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case string:
		return parseNumber(v)
	case []byte:
		return parseNumber(string(v))
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}

	rv := reflect.ValueOf(raw)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return 0, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	case reflect.String:
		// Covers named string types such as json.Number.
		return parseNumber(rv.String())
	}

	if s, ok := raw.(fmt.Stringer); ok {
		return parseNumber(s.String())
	}
	return 0, false
}

// parseNumber accepts the decimal forms found in meter exports, including a
// lone decimal comma ("5,6").
func parseNumber(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
