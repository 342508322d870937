package jsonutil

import (
	"encoding/json"
	"strconv"
)

// FlexibleNumber unmarshals a JSON scalar that should be numeric but may
// arrive as a quoted number or something else entirely. Unmarshaling
// never returns an error; Valid reports whether a number was obtained.
type FlexibleNumber struct {
	Value float64
	Valid bool
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else
// (null, booleans, objects) leaves the value invalid rather than
// failing the surrounding document.
func (n *FlexibleNumber) UnmarshalJSON(data []byte) error {
	n.Value, n.Valid = 0, false

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.Value, n.Valid = f, true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			n.Value, n.Valid = f, true
		}
	}

	return nil
}

// MarshalJSON emits the numeric value, or null when invalid.
func (n FlexibleNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// ToNumber coerces a runtime value to float64. It handles the numeric
// types produced by struct fields and decoded JSON, plus numeric
// strings. The second return reports whether coercion succeeded.
func ToNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
