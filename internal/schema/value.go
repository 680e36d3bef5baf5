package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMalformed        = errors.New("malformed configuration")
	ErrUnsupportedValue = errors.New("value must be a string or a number")
)

// Kind tells textual and numeric values apart
type Kind int

const (
	KindString Kind = iota
	KindNumber
)

func (k Kind) String() string {
	if k == KindNumber {
		return "number"
	}
	return "text"
}

// Value is a single configuration value
type Value struct {
	kind Kind
	str  string
	num  float64
}

// String creates a textual value
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number creates a numeric value
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Kind returns the value kind
func (v Value) Kind() Kind {
	return v.kind
}

// IsNumber reports whether the value is numeric
func (v Value) IsNumber() bool {
	return v.kind == KindNumber
}

// Float returns the numeric value, 0 for text
func (v Value) Float() float64 {
	return v.num
}

// String renders the value the way it is exposed through the environment.
// Numbers use the shortest decimal form (8883, 0.5).
func (v Value) String() string {
	if v.kind == KindNumber {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.str
}

// Equal compares kind and content
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindNumber {
		return v.num == o.num
	}
	return v.str == o.str
}

// Parse converts operator input into a value of the given kind
func Parse(kind Kind, raw string) (Value, error) {
	if kind != KindNumber {
		return String(raw), nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return Value{}, fmt.Errorf("%q is not a number", raw)
	}
	return Number(n), nil
}

// MarshalJSON emits a JSON string or number
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber {
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("%w: non-finite number %v", ErrUnsupportedValue, v.num)
		}
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON accepts a JSON string or number and nothing else
func (v *Value) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return ErrUnsupportedValue
	}

	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	case c == '-' || (c >= '0' && c <= '9'):
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnsupportedValue, raw)
		}
		*v = Number(n)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedValue, raw)
	}
}
