package remote

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// Path evaluates a jsonpath expression on a value decoded by GetAny.
//
// jsonpath is never clear about whether it returns a list of one answer or a single answer,
// so Path keeps the first element of a list result.
func Path(v any, path string) (any, error) {
	val, err := jsonpath.Get(path, v)
	if err != nil {
		return nil, fmt.Errorf("cannot evaluate %q: %w", path, err)
	}
	if list, ok := val.([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("cannot evaluate %q: no match", path)
		}
		val = list[0]
	}
	return val, nil
}

// Float evaluates path into a number. Numbers sent as strings are parsed, with ',' as a
// thousand separator.
func Float(v any, path string) (float64, error) {
	val, err := Path(v, path)
	if err != nil {
		return math.NaN(), err
	}
	switch x := val.(type) {
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), 64)
		if err != nil {
			return math.NaN(), fmt.Errorf("%q is not a number: %q", path, x)
		}
		return f, nil
	default:
		return math.NaN(), fmt.Errorf("%q is not a number: %v", path, val)
	}
}

// FloatOr is like Float but returns def when the value is missing or invalid.
func FloatOr(v any, path string, def float64) float64 {
	f, err := Float(v, path)
	if err != nil {
		return def
	}
	return f
}

// String evaluates path into a string, "" when missing.
func String(v any, path string) string {
	val, err := Path(v, path)
	if err != nil || val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprint(val)
}
