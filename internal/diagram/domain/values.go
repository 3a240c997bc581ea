package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// toFloat accepts any Go numeric kind. Non-numeric values are rejected, never parsed.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func fieldTypeError(kind Kind, field, want string, got any) error {
	return fmt.Errorf("%w: %s.%s wants %s, got %T", ErrFieldType, kind, field, want, got)
}

func unknownFieldError(kind Kind, field string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownField, kind, field)
}

func immutableFieldError(kind Kind, field string) error {
	return fmt.Errorf("%w: %s.%s", ErrImmutableField, kind, field)
}

func setFloat(dst *float64, kind Kind, field string, v any) error {
	f, ok := toFloat(v)
	if !ok {
		return fieldTypeError(kind, field, "number", v)
	}
	*dst = f
	return nil
}

func setString(dst *string, kind Kind, field string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fieldTypeError(kind, field, "string", v)
	}
	*dst = s
	return nil
}

func setBool(dst *bool, kind Kind, field string, v any) error {
	b, ok := v.(bool)
	if !ok {
		return fieldTypeError(kind, field, "bool", v)
	}
	*dst = b
	return nil
}

// toPoints accepts []float64 or a slice of numbers decoded from JSON.
// A points sequence is a flat list of x,y pairs, so its length must be even and non-zero.
func toPoints(v any) ([]float64, bool) {
	var out []float64
	switch p := v.(type) {
	case []float64:
		out = append([]float64(nil), p...)
	case []int:
		out = make([]float64, len(p))
		for i, n := range p {
			out[i] = float64(n)
		}
	case []any:
		out = make([]float64, len(p))
		for i, n := range p {
			f, ok := toFloat(n)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
	default:
		return nil, false
	}
	if len(out) == 0 || len(out)%2 != 0 {
		return nil, false
	}
	return out, true
}
