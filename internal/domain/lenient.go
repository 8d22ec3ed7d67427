package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The state document is hand-editable and has no schema version, so values
// are decoded leniently: a value of the wrong shape reads as absent instead
// of failing the whole document.

// Object decodes raw as a JSON object. ok is false for any other shape.
func Object(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

// Float decodes raw as a finite number or a numeric string. NaN and the
// infinities read as absent.
func Float(raw json.RawMessage) (float64, bool) {
	f, ok := parseFloat(raw)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFloat(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

// Int decodes raw like Float and truncates toward zero. Values outside the
// int64 range read as absent.
func Int(raw json.RawMessage) (int64, bool) {
	f, ok := Float(raw)
	if !ok || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// String decodes raw as a JSON string.
func String(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// IntMap decodes an object of numbers, dropping entries that are not numeric.
// A non-object yields an empty map.
func IntMap(raw json.RawMessage) map[string]int64 {
	out := map[string]int64{}
	obj, ok := Object(raw)
	if !ok {
		return out
	}
	for k, v := range obj {
		if n, valid := Int(v); valid {
			out[k] = n
		}
	}
	return out
}

// FloatMap is IntMap for float values.
func FloatMap(raw json.RawMessage) map[string]float64 {
	out := map[string]float64{}
	obj, ok := Object(raw)
	if !ok {
		return out
	}
	for k, v := range obj {
		if f, valid := Float(v); valid {
			out[k] = f
		}
	}
	return out
}
